package handlers

import (
	"net/http"

	"github.com/Nemanja264/Servizo/internal/dashboard"
	"github.com/Nemanja264/Servizo/pkg/response"
)

// StaffTables returns the dashboard snapshot: every table's balance merged
// with the sticky new-activity flags and the cash-request highlights. The
// stale marker tells the view the last poll cycle failed and it is looking
// at older data.
func (h *Handler) StaffTables(w http.ResponseWriter, r *http.Request) {
	views := h.Poller.Snapshot()
	if views == nil {
		views = []dashboard.TableView{}
	}
	payload := map[string]any{"tables": views}
	if err := h.Poller.Err(); err != nil {
		payload["stale"] = true
		payload["error"] = err.Error()
	}
	response.Success(w, payload)
}

// StaffSelect is the acknowledgement that clears a table's notification
// state: the new-activity flag and any cash request go away together.
func (h *Handler) StaffSelect(w http.ResponseWriter, r *http.Request) {
	tableID := readPathString(r, "tableID")
	if tableID == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table id is required")
		return
	}
	h.Poller.Select(tableID)
	response.Success(w, map[string]any{"selected": tableID})
}

type paymentIntentRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// PaymentIntent hands the listed orders to the card processor. The terminal
// only brokers the client secret; capture happens in the processor's UI.
func (h *Handler) PaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	if len(req.OrderIDs) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "order_ids must be a non-empty list")
		return
	}
	intent, err := h.API.CreatePaymentIntent(r.Context(), req.OrderIDs)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Created(w, intent)
}
