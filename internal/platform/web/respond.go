package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
)

// ErrBadRequest marks malformed client input (bad JSON, unparsable ids).
var ErrBadRequest = errors.New("bad request")

// ErrConflict marks a request that is valid but not allowed in the current state.
var ErrConflict = errors.New("conflict")

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// Error writes err with the status matching its kind.
func Error(w http.ResponseWriter, err error) {
	Respond(w, StatusFor(err), ErrorBody{Error: err.Error(), Fields: validation.Fields(err)})
}

// StatusFor maps domain and storage errors to HTTP status codes.
func StatusFor(err error) int {
	var (
		ce *validation.ConsistencyError
		re *validation.RangeError
		oe *validation.OwnershipError
		ue *validation.UniquenessError
		pe *validation.ProtectedError
	)
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.As(err, &ce), errors.As(err, &re), errors.As(err, &oe):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ue), errors.As(err, &pe):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
