// Package backend is the HTTP client for the upstream POS backend. Every
// operation answers the same {success, data, message} envelope; a success
// of false is surfaced as *billing.RemoteError so callers can tell a
// backend-reported failure from a transport one.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quickserve/pos-billing/internal/domain/billing"
	"github.com/quickserve/pos-billing/internal/domain/order"
)

var _ billing.Backend = (*Client)(nil)

// Client talks to the POS backend. The request timeout lives here; the
// workflow core imposes none of its own.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// UpdateCustomerNumber stores a phone number against the order's customer
// record.
func (c *Client) UpdateCustomerNumber(ctx context.Context, masterID, phone string) error {
	_, err := c.post(ctx, "updateCustomerNumber", "/kot/customer-number", map[string]string{
		"master_id": masterID,
		"phone":     phone,
	})
	return err
}

// RegisterKitchenTicket assigns kitchen ticket numbers to the order's
// unticketed items.
func (c *Client) RegisterKitchenTicket(ctx context.Context, masterID string) error {
	_, err := c.post(ctx, "registerKitchenTicket", "/kot/register", map[string]string{
		"master_id": masterID,
	})
	return err
}

// LockSalePrices freezes sale prices for the order and marks it billed.
func (c *Client) LockSalePrices(ctx context.Context, masterID string) error {
	_, err := c.post(ctx, "lockSalePrices", "/sales/lock-prices", map[string]string{
		"master_id": masterID,
	})
	return err
}

// ReprintBill re-issues the physical ticket for an already billed order.
func (c *Client) ReprintBill(ctx context.Context, masterCode string) error {
	_, err := c.post(ctx, "reprintBill", "/sales/reprint", map[string]string{
		"master_code": masterCode,
	})
	return err
}

// FetchOrder pulls the authoritative open tab from the backend.
func (c *Client) FetchOrder(ctx context.Context, masterID string) (*order.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sales/open-orders/"+masterID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	data, err := c.do("fetchOrder", req)
	if err != nil {
		return nil, err
	}

	var payload orderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	return payload.toDomain(masterID), nil
}

// post sends a JSON body and returns the envelope's data field.
func (c *Client) post(ctx context.Context, op, path string, body any) (jx.Raw, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) (jx.Raw, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: call backend", op)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read response", op)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("%s: backend status %d", op, resp.StatusCode)
	}

	return decodeEnvelope(op, raw)
}

// decodeEnvelope unwraps {success, data, message}. Unknown keys are skipped;
// message may be null or absent.
func decodeEnvelope(op string, body []byte) (jx.Raw, error) {
	var (
		success bool
		message string
		data    jx.Raw
	)

	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "success":
			v, err := d.Bool()
			success = v
			return err
		case "message":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			message = v
			return err
		case "data":
			v, err := d.Raw()
			data = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrapf(err, "%s: decode envelope", op)
	}

	if !success {
		return nil, &billing.RemoteError{Op: op, Message: message}
	}
	return data, nil
}

// orderPayload mirrors the backend's open-order shape. Numeric fields arrive
// as strings or bare numbers depending on the backend version, so everything
// is kept raw and parsed defensively.
type orderPayload struct {
	FulfillmentType   string          `json:"fulfillment_type"`
	CustomerPhone     string          `json:"customer_phone"`
	Discount          json.RawMessage `json:"discount"`
	AdditionalCharges json.RawMessage `json:"additional_charges"`
	Items             []itemPayload   `json:"items"`
}

type itemPayload struct {
	SKUCode      string          `json:"sku_code"`
	SubSKUCode   string          `json:"sub_sku_code"`
	Quantity     json.RawMessage `json:"quantity"`
	TotalAmount  json.RawMessage `json:"total_amount"`
	TotalTaxable json.RawMessage `json:"total_taxable"`
	TotalTax     json.RawMessage `json:"total_tax"`
	KOTNumber    json.RawMessage `json:"kot_number"`
}

func (p orderPayload) toDomain(masterID string) *order.Order {
	items := make([]order.LineItem, len(p.Items))
	for i, it := range p.Items {
		items[i] = order.LineItem{
			SKUCode:             it.SKUCode,
			SubSKUCode:          it.SubSKUCode,
			Quantity:            rawAmount(it.Quantity),
			TotalAmount:         rawAmount(it.TotalAmount),
			TotalTaxable:        rawAmount(it.TotalTaxable),
			TotalTax:            rawAmount(it.TotalTax),
			KitchenTicketNumber: rawInt(it.KOTNumber),
		}
	}

	return &order.Order{
		MasterID:          masterID,
		FulfillmentType:   order.ParseFulfillmentType(p.FulfillmentType),
		CustomerPhone:     p.CustomerPhone,
		Items:             items,
		Discount:          rawAmount(p.Discount),
		AdditionalCharges: rawAmount(p.AdditionalCharges),
		UpdatedAt:         time.Now().UTC(),
	}
}

func rawAmount(raw json.RawMessage) decimal.Decimal {
	return order.ParseAmount(strings.Trim(string(raw), `"`))
}

func rawInt(raw json.RawMessage) int {
	n, err := strconv.Atoi(strings.TrimSpace(strings.Trim(string(raw), `"`)))
	if err != nil {
		return 0
	}
	return n
}
