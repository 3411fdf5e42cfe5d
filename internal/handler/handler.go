// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/gatherly/gatherly/internal/apperr"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/service"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler holds all HTTP handlers for the attendance API.
type Handler struct {
	catalog   *service.Catalog
	ledger    *service.Ledger
	gate      *service.Gate
	tickets   *service.Tickets
	history   *service.History
	favorites *service.Favorites
}

// New constructs a Handler over the domain services.
func New(catalog *service.Catalog, ledger *service.Ledger, gate *service.Gate, tickets *service.Tickets, history *service.History, favorites *service.Favorites) *Handler {
	return &Handler{catalog: catalog, ledger: ledger, gate: gate, tickets: tickets, history: history, favorites: favorites}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to their HTTP status and renders the
// structured envelope (message, kind, current state) the scanning clients
// rely on to distinguish harmless duplicates from hard failures.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		writeJSON(w, apperr.HTTPStatus(appErr.Kind), model.ErrorResponse{
			Error: appErr.Message,
			Kind:  string(appErr.Kind),
			State: appErr.State,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "internal error"})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: msg})
}

// decodeJSON decodes and validates a request payload.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
