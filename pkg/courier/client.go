package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/types"
)

const (
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errTokenRequired = errors.New("courier api token is required")

// Client talks to the courier aggregator: pickup locations, shipment
// creation and tracking.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout replaces the default 10s request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errors.New("courier base url is required")
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    trimmedURL,
		token:      trimmedToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PickupLocation is a seller warehouse registered with the courier.
type PickupLocation struct {
	Name    string
	Email   string
	Address types.Address
}

// ShipmentItem is one line of a shipment manifest.
type ShipmentItem struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Units     int             `json:"units"`
	UnitPrice decimal.Decimal `json:"selling_price"`
}

// ShipmentRequest registers an order for pickup.
type ShipmentRequest struct {
	OrderID     string
	OrderDate   time.Time
	PickupName  string
	Destination types.Address
	Email       string
	Items       []ShipmentItem
	SubTotal    decimal.Decimal
	Provider    string
}

// Shipment is the courier's acknowledgement of a created shipment.
type Shipment struct {
	ShipmentID string
	TrackingID string
}

// Scan is one tracking event.
type Scan struct {
	Date     time.Time
	Activity string
	Location string
}

// Tracking is the scan history with the courier's free-text current status.
type Tracking struct {
	TrackingID string
	Status     string
	Scans      []Scan
}

// RegisterPickup creates a pickup location and returns the name the courier
// will reference it by.
func (c *Client) RegisterPickup(ctx context.Context, loc PickupLocation) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "courier client not configured")
	}
	name := strings.TrimSpace(loc.Name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "pickup location name is required")
	}

	body := map[string]any{
		"pickup_location": name,
		"name":            loc.Address.Name,
		"email":           loc.Email,
		"phone":           loc.Address.Phone,
		"address":         loc.Address.Line1,
		"city":            loc.Address.City,
		"state":           loc.Address.State,
		"country":         loc.Address.Country,
		"pin_code":        loc.Address.PostalCode,
	}
	if loc.Address.Line2 != nil {
		body["address_2"] = *loc.Address.Line2
	}

	var resp struct {
		Success bool `json:"success"`
		Address struct {
			PickupCode string `json:"pickup_code"`
		} `json:"address"`
	}
	if err := c.do(ctx, http.MethodPost, "settings/company/addpickup", body, &resp); err != nil {
		return "", err
	}
	if resp.Address.PickupCode != "" {
		return resp.Address.PickupCode, nil
	}
	return name, nil
}

// CreateShipment books the order with the courier and returns its tracking id.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier client not configured")
	}
	if req.OrderID == "" || req.PickupName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and pickup location are required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment requires at least one item")
	}

	dest := req.Destination
	body := map[string]any{
		"order_id":                req.OrderID,
		"order_date":              req.OrderDate.UTC().Format("2006-01-02 15:04"),
		"pickup_location":         req.PickupName,
		"billing_customer_name":   dest.Name,
		"billing_address":         dest.Line1,
		"billing_city":            dest.City,
		"billing_state":           dest.State,
		"billing_country":         dest.Country,
		"billing_pincode":         dest.PostalCode,
		"billing_phone":           dest.Phone,
		"billing_email":           req.Email,
		"shipping_is_billing":     true,
		"order_items":             req.Items,
		"payment_method":          "Prepaid",
		"sub_total":               req.SubTotal.StringFixed(2),
		"courier_preference_name": req.Provider,
	}
	if dest.Line2 != nil {
		body["billing_address_2"] = *dest.Line2
	}

	var resp struct {
		ShipmentID json.Number `json:"shipment_id"`
		AWBCode    string      `json:"awb_code"`
	}
	if err := c.do(ctx, http.MethodPost, "orders/create/adhoc", body, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.AWBCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier did not assign a tracking id")
	}
	return &Shipment{ShipmentID: resp.ShipmentID.String(), TrackingID: resp.AWBCode}, nil
}

// Tracking returns the scan history for a tracking id.
func (c *Client) Tracking(ctx context.Context, trackingID string) (*Tracking, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier client not configured")
	}
	trimmed := strings.TrimSpace(trackingID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}

	var resp struct {
		TrackingData struct {
			ShipmentTrack []struct {
				CurrentStatus string `json:"current_status"`
			} `json:"shipment_track"`
			ShipmentTrackActivities []struct {
				Date     string `json:"date"`
				Activity string `json:"activity"`
				Location string `json:"location"`
			} `json:"shipment_track_activities"`
		} `json:"tracking_data"`
	}
	if err := c.do(ctx, http.MethodGet, "courier/track/awb/"+url.PathEscape(trimmed), nil, &resp); err != nil {
		return nil, err
	}

	out := &Tracking{TrackingID: trimmed}
	if len(resp.TrackingData.ShipmentTrack) > 0 {
		out.Status = resp.TrackingData.ShipmentTrack[0].CurrentStatus
	}
	for _, a := range resp.TrackingData.ShipmentTrackActivities {
		scan := Scan{Activity: a.Activity, Location: a.Location}
		if ts, err := time.Parse("2006-01-02 15:04:05", a.Date); err == nil {
			scan.Date = ts
		}
		out.Scans = append(out.Scans, scan)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal courier request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build courier request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute courier request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"courier request failed")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode courier response")
	}
	return nil
}
