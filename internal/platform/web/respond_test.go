package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teashop/backend/internal/modules/validation"
	"github.com/teashop/backend/internal/platform/database"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("invalid id: %w", ErrBadRequest), http.StatusBadRequest},
		{fmt.Errorf("product: %w", database.ErrNotFound), http.StatusNotFound},
		{&validation.ConsistencyError{Msg: "x"}, http.StatusUnprocessableEntity},
		{&validation.RangeError{Msg: "x"}, http.StatusUnprocessableEntity},
		{&validation.OwnershipError{First: "user", Second: "session_key"}, http.StatusUnprocessableEntity},
		{&validation.UniquenessError{Entity: "variation"}, http.StatusConflict},
		{&validation.ProtectedError{Entity: "variation"}, http.StatusConflict},
		{fmt.Errorf("status: %w", ErrConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestError_IncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, &validation.RangeError{Fields: []string{"price"}, Msg: "price must be at least 0"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"price"}, body.Fields)
	assert.Contains(t, body.Error, "price must be at least 0")
}
