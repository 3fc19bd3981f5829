package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickserve/pos-billing/internal/domain/billing"
	"github.com/quickserve/pos-billing/internal/domain/order"
)

type fakeFinalizer struct {
	outcome billing.Outcome
	state   billing.State
	err     error

	gotMasterID string
	gotPhone    string
}

func (f *fakeFinalizer) Initiate(_ context.Context, masterID string) (billing.Outcome, error) {
	f.gotMasterID = masterID
	return f.outcome, f.err
}

func (f *fakeFinalizer) SupplyCustomerInfo(_ context.Context, masterID, phone string) (billing.Outcome, error) {
	f.gotMasterID = masterID
	f.gotPhone = phone
	return f.outcome, f.err
}

func (f *fakeFinalizer) Retry(_ context.Context, masterID string) (billing.Outcome, error) {
	f.gotMasterID = masterID
	return f.outcome, f.err
}

func (f *fakeFinalizer) StateOf(string) billing.State {
	return f.state
}

type fakeReprinter struct {
	err  error
	code string
}

func (f *fakeReprinter) Reprint(_ context.Context, masterCode string) error {
	f.code = masterCode
	return f.err
}

type fakeStore struct {
	order *order.Order
	err   error
}

func (f *fakeStore) Current(context.Context, string) (*order.Order, error) {
	return f.order, f.err
}

func (f *fakeStore) Refresh(context.Context, string) (*order.Order, error) {
	return f.order, f.err
}

func (f *fakeStore) SetCustomerPhone(context.Context, string, string) error { return nil }
func (f *fakeStore) Clear(context.Context, string) error                    { return nil }

func serve(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFinalize_Printed(t *testing.T) {
	fin := &fakeFinalizer{outcome: billing.OutcomePrinted, state: billing.StatePrinted}
	h := NewHandler(fin, &fakeReprinter{}, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/finalize", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "printed", data["state"])
	assert.Equal(t, "m42", fin.gotMasterID)
}

func TestFinalize_AwaitingCustomerInfo(t *testing.T) {
	fin := &fakeFinalizer{
		outcome: billing.OutcomeAwaitingCustomerInfo,
		state:   billing.StateAwaitingCustomerInfo,
	}
	h := NewHandler(fin, &fakeReprinter{}, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/finalize", "")

	require.Equal(t, http.StatusAccepted, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "awaiting_customer_info", data["state"])
}

func TestFinalize_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no billable items", billing.ErrNoBillableItems, http.StatusUnprocessableEntity},
		{"in flight", billing.ErrInFlight, http.StatusConflict},
		{"already printed", billing.ErrAlreadyPrinted, http.StatusConflict},
		{"order not found", order.ErrNotFound, http.StatusNotFound},
		{"remote failure", &billing.RemoteError{Op: "lockSalePrices", Message: "busy"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeFinalizer{err: tt.err}, &fakeReprinter{}, &fakeStore{})

			rec := serve(h, http.MethodPost, "/api/orders/m42/finalize", "")

			require.Equal(t, tt.want, rec.Code)
			assert.Equal(t, false, decode(t, rec)["success"])
		})
	}
}

func TestCustomerInfo(t *testing.T) {
	fin := &fakeFinalizer{outcome: billing.OutcomePrinted, state: billing.StatePrinted}
	h := NewHandler(fin, &fakeReprinter{}, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/customer-info", `{"phone": "5550101"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5550101", fin.gotPhone)
}

func TestCustomerInfo_BadBody(t *testing.T) {
	h := NewHandler(&fakeFinalizer{}, &fakeReprinter{}, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/customer-info", `{nope`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetry(t *testing.T) {
	fin := &fakeFinalizer{outcome: billing.OutcomePrinted, state: billing.StatePrinted}
	h := NewHandler(fin, &fakeReprinter{}, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/retry", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m42", fin.gotMasterID)
}

func TestReprint(t *testing.T) {
	rp := &fakeReprinter{}
	h := NewHandler(&fakeFinalizer{}, rp, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/reprint", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m42", rp.code)
}

func TestReprint_InFlight(t *testing.T) {
	h := NewHandler(&fakeFinalizer{}, &fakeReprinter{err: billing.ErrInFlight}, &fakeStore{})

	rec := serve(h, http.MethodPost, "/api/orders/m42/reprint", "")

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	h := NewHandler(&fakeFinalizer{}, &fakeReprinter{}, &fakeStore{err: order.ErrNotFound})

	rec := serve(h, http.MethodGet, "/api/orders/ghost", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBillPreview(t *testing.T) {
	o := &order.Order{
		MasterID:        "m42",
		FulfillmentType: order.DineIn,
		Items: []order.LineItem{
			{
				SKUCode:             "burger",
				TotalTaxable:        decimal.RequireFromString("100"),
				TotalTax:            decimal.RequireFromString("18"),
				KitchenTicketNumber: 2,
			},
			// Unticketed dine-in item must not appear on the preview.
			{SKUCode: "fries", TotalTaxable: decimal.RequireFromString("40")},
		},
	}
	h := NewHandler(&fakeFinalizer{}, &fakeReprinter{}, &fakeStore{order: o})

	rec := serve(h, http.MethodPost, "/api/orders/m42/bill-preview", `{
		"discount": "10",
		"payments": [{"method": "cash", "amount": "150"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)

	items := data["items"].([]any)
	assert.Len(t, items, 1)

	totals := data["totals"].(map[string]any)
	assert.Equal(t, "108", totals["net_total"])
	assert.Equal(t, "42.00", data["change"])
}

func TestBillPreview_NoChangeWhenShort(t *testing.T) {
	o := &order.Order{
		MasterID:        "m42",
		FulfillmentType: order.TakeAway,
		Items: []order.LineItem{
			{SKUCode: "burger", TotalTaxable: decimal.RequireFromString("100"), TotalTax: decimal.RequireFromString("18")},
		},
	}
	h := NewHandler(&fakeFinalizer{}, &fakeReprinter{}, &fakeStore{order: o})

	rec := serve(h, http.MethodPost, "/api/orders/m42/bill-preview", `{
		"payments": [{"method": "cash", "amount": "100"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	_, hasChange := data["change"]
	assert.False(t, hasChange, "change is only shown when positive")
}
