package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/cart"
	"github.com/Nemanja264/Servizo/pkg/response"
)

type resolveRequest struct {
	Table string `json:"table"`
	// CartPayload is the base64 carry-over blob from a cart deep link. It
	// only seeds an empty cart.
	CartPayload string `json:"cart_payload,omitempty"`
}

type sessionView struct {
	Table  int    `json:"table,omitempty"`
	Source string `json:"source,omitempty"`
}

// SessionResolve binds this context to a table. The explicit value wins and
// becomes sticky; otherwise the sticky value applies. With neither, the
// guest has to scan the table's QR code first.
func (h *Handler) SessionResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	table, ok := h.Resolver.Resolve(req.Table)
	if !ok {
		response.Error(w, http.StatusNotFound, "NO_TABLE", "No table assigned. Scan the table's QR code.")
		return
	}

	if req.CartPayload != "" {
		if lines := cart.DecodePayload(req.CartPayload); len(lines) > 0 {
			if h.Carts.SeedIfEmpty(table, lines) {
				h.Logger.Info("cart seeded from carry-over payload", zap.Int("table", table))
			}
		}
	}

	response.Success(w, sessionView{Table: table, Source: "resolved"})
}

// SessionCurrent reports the table this installation is bound to: the sticky
// value, or failing that the lowest table number that has a cart lying
// around (the badge fallback).
func (h *Handler) SessionCurrent(w http.ResponseWriter, r *http.Request) {
	if table, ok := h.Resolver.Sticky(); ok {
		response.Success(w, sessionView{Table: table, Source: "sticky"})
		return
	}
	if tables := cart.Tables(h.Store); len(tables) > 0 {
		response.Success(w, sessionView{Table: tables[0], Source: "cart"})
		return
	}
	response.Success(w, sessionView{})
}

// SessionLogout signs out upstream and wipes local state. The sticky table
// survives the wipe; everything else (carts, cash requests) goes.
func (h *Handler) SessionLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.API.Logout(r.Context()); err != nil {
		// Local state is cleared regardless: the terminal must not keep a
		// signed-out user's carts around because the network blinked.
		h.Logger.Warn("upstream logout failed", zap.Error(err))
	}
	h.Resolver.Logout()
	response.Success(w, map[string]any{"logged_out": true})
}
