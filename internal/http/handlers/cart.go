package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Nemanja264/Servizo/internal/cart"
	"github.com/Nemanja264/Servizo/pkg/response"
)

type cartView struct {
	Table int             `json:"table"`
	Lines []cart.Line     `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Qty   int             `json:"qty"`
}

func (h *Handler) cartView(table int) cartView {
	lines := h.Carts.Read(table)
	if lines == nil {
		lines = []cart.Line{}
	}
	return cartView{
		Table: table,
		Lines: lines,
		Total: cart.Total(lines),
		Qty:   cart.TotalQty(lines),
	}
}

func (h *Handler) CartGet(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	response.Success(w, h.cartView(table))
}

type addItemRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

func (h *Handler) CartAddItem(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	item := cart.Item{ID: req.ID, Name: req.Name, Price: req.Price}
	if !h.Carts.AddItem(table, item, req.Qty) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Scan the table's QR code to add to the cart")
		return
	}
	response.Success(w, h.cartView(table))
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) CartChangeQuantity(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	h.Carts.ChangeQuantity(table, readPathString(r, "itemID"), req.Delta)
	response.Success(w, h.cartView(table))
}

func (h *Handler) CartRemoveItem(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	h.Carts.RemoveItem(table, readPathString(r, "itemID"))
	response.Success(w, h.cartView(table))
}

func (h *Handler) CartClear(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	h.Carts.Clear(table)
	response.Success(w, h.cartView(table))
}

type seedRequest struct {
	Payload string `json:"payload"`
}

func (h *Handler) CartSeed(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	seeded := h.Carts.SeedIfEmpty(table, cart.DecodePayload(req.Payload))
	response.Success(w, map[string]any{"seeded": seeded, "cart": h.cartView(table)})
}

// CartShare packs the cart into the blob a deep link carries, so another
// context can resume it.
func (h *Handler) CartShare(w http.ResponseWriter, r *http.Request) {
	table := readPathTable(r)
	if table == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	response.Success(w, map[string]string{"payload": cart.EncodePayload(h.Carts.Read(table))})
}
