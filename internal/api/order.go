package api

import (
	"encoding/json"
	"net/http"

	"github.com/quickserve/pos-billing/internal/domain/billing"
	"github.com/quickserve/pos-billing/internal/domain/order"
)

type stateResponse struct {
	State   string `json:"state"`
	Outcome string `json:"outcome,omitempty"`
}

func (h *Handler) stateData(masterID string, out billing.Outcome) stateResponse {
	return stateResponse{
		State:   h.finalizer.StateOf(masterID).String(),
		Outcome: string(out),
	}
}

// finalize starts the finalization sequence for an open tab.
func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	masterID := r.PathValue("masterID")

	out, err := h.finalizer.Initiate(r.Context(), masterID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if out == billing.OutcomeAwaitingCustomerInfo {
		status = http.StatusAccepted
	}
	writeData(w, status, h.stateData(masterID, out))
}

type customerInfoRequest struct {
	Phone string `json:"phone"`
}

// customerInfo resumes a sequence waiting at the customer info gate.
func (h *Handler) customerInfo(w http.ResponseWriter, r *http.Request) {
	masterID := r.PathValue("masterID")

	var req customerInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid request body"})
		return
	}

	out, err := h.finalizer.SupplyCustomerInfo(r.Context(), masterID, req.Phone)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, h.stateData(masterID, out))
}

// retry re-runs a failed finalization from the top.
func (h *Handler) retry(w http.ResponseWriter, r *http.Request) {
	masterID := r.PathValue("masterID")

	out, err := h.finalizer.Retry(r.Context(), masterID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, h.stateData(masterID, out))
}

// reprint re-issues the physical ticket for an already billed order.
func (h *Handler) reprint(w http.ResponseWriter, r *http.Request) {
	masterID := r.PathValue("masterID")

	if err := h.reprinter.Reprint(r.Context(), masterID); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"master_code": masterID})
}

// getOrder returns the cached open tab, optionally refreshing it from the
// backend first (?refresh=1).
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	masterID := r.PathValue("masterID")

	var (
		o   *order.Order
		err error
	)
	if r.URL.Query().Get("refresh") == "1" {
		o, err = h.store.Refresh(r.Context(), masterID)
	} else {
		o, err = h.store.Current(r.Context(), masterID)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

type billPreviewRequest struct {
	Discount          *string `json:"discount"`
	AdditionalCharges *string `json:"additional_charges"`
	Payments          []struct {
		Method string `json:"method"`
		Amount string `json:"amount"`
	} `json:"payments"`
}

type billPreviewResponse struct {
	Items  []order.LineItem `json:"items"`
	Totals order.BillTotals `json:"totals"`
	Change string           `json:"change,omitempty"`
}

// billPreview computes displayable totals for the tab as the cashier edits
// discount, charges, and payments. Read-only; nothing is committed.
func (h *Handler) billPreview(w http.ResponseWriter, r *http.Request) {
	masterID := r.PathValue("masterID")

	var req billPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid request body"})
		return
	}

	o, err := h.store.Current(r.Context(), masterID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	discount := o.Discount
	if req.Discount != nil {
		discount = order.ParseAmount(*req.Discount)
	}
	charges := o.AdditionalCharges
	if req.AdditionalCharges != nil {
		charges = order.ParseAmount(*req.AdditionalCharges)
	}

	billable := order.SelectBillableItems(o.Items, o.FulfillmentType)
	totals := order.ComputeTotals(billable, discount, charges)

	payments := make([]order.PaymentEntry, len(req.Payments))
	for i, p := range req.Payments {
		payments[i] = order.PaymentEntry{
			Method: order.PaymentMethod(p.Method),
			Amount: order.ParseAmount(p.Amount),
		}
	}

	resp := billPreviewResponse{Items: billable, Totals: totals}
	// Change is only shown when positive.
	if change := order.ComputeChange(payments, totals.NetTotal); change.IsPositive() {
		resp.Change = change.StringFixed(2)
	}

	writeData(w, http.StatusOK, resp)
}
