package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/money"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	var payload map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://pay.test/v1/orders" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		user, pass, ok := req.BasicAuth()
		if !ok || user != "key_1" || pass != "secret_1" {
			t.Fatalf("basic auth not set")
		}
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"id":"order_ABC","amount":41550,"currency":"INR","status":"created"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("http://pay.test/v1", "key_1", "secret_1", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: money.MustParse("415.50"), Receipt: "r1"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if payload["amount"] != float64(41550) || payload["currency"] != "INR" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if order.ID != "order_ABC" || !order.Amount.Equal(money.MustParse("415.5")) {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCreateOrderRejectsZeroAmount(t *testing.T) {
	client, err := NewClient("http://pay.test", "k", "s")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.CreateOrder(context.Background(), OrderRequest{Amount: money.Zero})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := Sign("whsec", body)

	if !Verify("whsec", body, sig) {
		t.Fatalf("expected signature to verify")
	}
	if !Verify("whsec", body, strings.ToUpper(sig)) {
		t.Fatalf("hex case should not matter")
	}
	if Verify("other", body, sig) {
		t.Fatalf("wrong secret verified")
	}
	if Verify("whsec", []byte(`{"event":"payment.captured "}`), sig) {
		t.Fatalf("tampered body verified")
	}
	if Verify("", body, Sign("", body)) {
		t.Fatalf("empty secret must never verify")
	}
	if Verify("whsec", body, "not-hex") {
		t.Fatalf("malformed signature verified")
	}
}
