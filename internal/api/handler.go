// Package api exposes the finalization workflow to the POS terminal UI. All
// responses use the same {success, data, message} envelope as the upstream
// backend, so the terminal handles both with one client.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/quickserve/pos-billing/internal/domain/billing"
	"github.com/quickserve/pos-billing/internal/domain/order"
)

// Finalizer is the finalization workflow surface the handlers call.
type Finalizer interface {
	Initiate(ctx context.Context, masterID string) (billing.Outcome, error)
	SupplyCustomerInfo(ctx context.Context, masterID, phone string) (billing.Outcome, error)
	Retry(ctx context.Context, masterID string) (billing.Outcome, error)
	StateOf(masterID string) billing.State
}

// Reprinter re-issues tickets for printed bills.
type Reprinter interface {
	Reprint(ctx context.Context, masterCode string) error
}

// Handler wires the workflow and the open-tab store into HTTP endpoints.
type Handler struct {
	finalizer Finalizer
	reprinter Reprinter
	store     order.Store
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(finalizer Finalizer, reprinter Reprinter, store order.Store) *Handler {
	return &Handler{
		finalizer: finalizer,
		reprinter: reprinter,
		store:     store,
	}
}

// Register mounts all endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders/{masterID}", h.getOrder)
	mux.HandleFunc("POST /api/orders/{masterID}/finalize", h.finalize)
	mux.HandleFunc("POST /api/orders/{masterID}/customer-info", h.customerInfo)
	mux.HandleFunc("POST /api/orders/{masterID}/retry", h.retry)
	mux.HandleFunc("POST /api/orders/{masterID}/reprint", h.reprint)
	mux.HandleFunc("POST /api/orders/{masterID}/bill-preview", h.billPreview)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var remoteErr *billing.RemoteError
	switch {
	case errors.Is(err, order.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, billing.ErrNoBillableItems),
		errors.Is(err, billing.ErrPhoneRequired):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, billing.ErrInFlight),
		errors.Is(err, billing.ErrNotAwaitingInfo),
		errors.Is(err, billing.ErrNothingToRetry),
		errors.Is(err, billing.ErrAlreadyPrinted):
		status, msg = http.StatusConflict, err.Error()
	case errors.As(err, &remoteErr):
		status, msg = http.StatusBadGateway, remoteErr.Error()
	default:
		zctx.From(ctx).Error("Unhandled API error", zap.Error(err))
	}

	writeJSON(w, status, envelope{Success: false, Message: msg})
}
