package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/pkg/response"
)

// OrdersUnpaid fetches the table's unpaid orders from the server. On failure
// the cached list is untouched and the upstream message surfaces; the UI
// keeps rendering what it has and offers a retry.
func (h *Handler) OrdersUnpaid(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	unpaid, err := h.Tracker.Fetch(r.Context(), table)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, map[string]any{"orders": unpaid})
}

// OrdersSubmit places the cart as a new order. Only a confirmed submission
// clears the cart; any failure leaves it exactly as it was.
func (h *Handler) OrdersSubmit(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	orderID, err := h.Tracker.Submit(r.Context(), table, h.Carts.Read(table))
	if err != nil {
		writeOperationError(w, err)
		return
	}

	h.Carts.Clear(table)
	if _, err := h.Tracker.Fetch(r.Context(), table); err != nil {
		// The order exists server-side; the next unpaid fetch catches up.
		h.Logger.Warn("unpaid refresh after submit failed", zap.Int("table", table), zap.Error(err))
	}
	response.Created(w, map[string]any{"order_id": orderID})
}

func (h *Handler) OrdersPayAll(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	if err := h.Tracker.PayAll(r.Context(), table); err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, map[string]any{"orders": h.Tracker.Cached(table)})
}

func (h *Handler) OrdersPayOne(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	if err := h.Tracker.PayOne(r.Context(), table, readPathString(r, "orderID")); err != nil {
		writeOperationError(w, err)
		return
	}
	response.Success(w, map[string]any{"orders": h.Tracker.Cached(table)})
}

// OrdersCashRequest flags the table for cash payment so every staff
// dashboard lights up. Purely local and best-effort.
func (h *Handler) OrdersCashRequest(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	if orderID := readPathString(r, "orderID"); orderID != "" {
		h.Signaler.RequestForOrder(orderID, table)
	} else {
		h.Signaler.RequestForTable(table)
	}
	response.Success(w, map[string]any{"requested": h.Signaler.Requested(table)})
}

// OrdersBadges feeds the nav badges: summed cart quantity plus the cached
// unpaid-order count.
func (h *Handler) OrdersBadges(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	view := h.cartView(table)
	response.Success(w, map[string]any{
		"cart_qty":     view.Qty,
		"unpaid_count": h.Tracker.UnpaidCount(table),
	})
}
