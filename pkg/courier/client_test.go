package courier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/money"
	"github.com/stondral/tsew-sub002/pkg/types"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://courier.test/v1/external/", "tok_123", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("http://courier.test", " "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestCreateShipmentRequest(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://courier.test/v1/external/orders/create/adhoc" {
			t.Fatalf("unexpected URL %q", req.URL.String())
		}
		if req.Header.Get("Authorization") != "Bearer tok_123" {
			t.Fatalf("missing bearer token")
		}
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return respond(http.StatusOK, `{"shipment_id":98765,"awb_code":"AWB42"}`), nil
	})

	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{
		OrderID:     "ord-1",
		OrderDate:   time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC),
		PickupName:  "tea-house-main",
		Destination: types.Address{Name: "Asha", Line1: "12 MG Road", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"},
		Items:       []ShipmentItem{{Name: "Assam", SKU: "p1", Units: 1, UnitPrice: money.FromInt(400)}},
		SubTotal:    money.FromInt(400),
	})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	if shipment.TrackingID != "AWB42" || shipment.ShipmentID != "98765" {
		t.Fatalf("unexpected shipment %+v", shipment)
	}
	if captured["pickup_location"] != "tea-house-main" || captured["sub_total"] != "400.00" {
		t.Fatalf("unexpected payload %+v", captured)
	}
}

func TestTrackingParsesStatusAndScans(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(req.URL.Path, "/courier/track/awb/AWB42") {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		return respond(http.StatusOK, `{"tracking_data":{"shipment_track":[{"current_status":"Out For Delivery"}],
			"shipment_track_activities":[{"date":"2026-02-03 09:00:00","activity":"Out for delivery","location":"Pune"}]}}`), nil
	})

	tracking, err := client.Tracking(context.Background(), "AWB42")
	if err != nil {
		t.Fatalf("tracking: %v", err)
	}
	if tracking.Status != "Out For Delivery" || len(tracking.Scans) != 1 {
		t.Fatalf("unexpected tracking %+v", tracking)
	}
	if tracking.Scans[0].Date.IsZero() {
		t.Fatalf("scan date not parsed")
	}
}

func TestNon2xxIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, "upstream down"), nil
	})

	_, err := client.Tracking(context.Background(), "AWB42")
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !pkgerrors.IsRetryable(err) {
		t.Fatalf("courier failures should be retryable")
	}
}

func TestRegisterPickupFallsBackToName(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"success":true,"address":{}}`), nil
	})
	name, err := client.RegisterPickup(context.Background(), PickupLocation{Name: "wh-1", Address: types.Address{Line1: "x"}})
	if err != nil {
		t.Fatalf("register pickup: %v", err)
	}
	if name != "wh-1" {
		t.Fatalf("unexpected pickup name %q", name)
	}
}
