package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should be nil, got %v %v", c, err)
	}
	if _, err := ParseCursor("!!!"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestTrim(t *testing.T) {
	rows := []int{1, 2, 3}
	cursorOf := func(v int) Cursor { return Cursor{CreatedAt: time.Unix(int64(v), 0), ID: uuid.Nil} }

	kept, next := Trim(rows, 2, cursorOf)
	if len(kept) != 2 || next == "" {
		t.Fatalf("expected a next page, got %v %q", kept, next)
	}
	c, err := ParseCursor(next)
	if err != nil || c.CreatedAt.Unix() != 2 {
		t.Fatalf("cursor should point at last kept row, got %+v %v", c, err)
	}

	kept, next = Trim(rows, 5, cursorOf)
	if len(kept) != 3 || next != "" {
		t.Fatalf("expected last page, got %v %q", kept, next)
	}
}
