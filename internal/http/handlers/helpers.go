package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Nemanja264/Servizo/internal/api"
	"github.com/Nemanja264/Servizo/internal/orders"
	"github.com/Nemanja264/Servizo/pkg/response"
)

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// readPathTable parses the {table} path segment. Zero means absent/invalid;
// handlers reject that locally before any network call.
func readPathTable(r *http.Request) int {
	n, err := strconv.Atoi(readPathString(r, "table"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

// writeOperationError maps engine failures onto the gateway surface: local
// validation as 400, upstream rejections with the server's own message and
// status, transport failures as 502 so retrying is obviously the next step.
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNoTable),
		errors.Is(err, orders.ErrEmptyCart):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, orders.ErrSubmissionInFlight):
		response.Error(w, http.StatusConflict, "SUBMISSION_IN_FLIGHT", err.Error())
	default:
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			response.Error(w, apiErr.Status, "SERVER_REJECTED", apiErr.Error())
			return
		}
		response.Error(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	}
}
