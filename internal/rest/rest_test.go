package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	// given
	w := httptest.NewRecorder()

	// when
	WriteError(w, http.StatusBadRequest, "Invalid date", "'date' must be YYYY-MM-DD")

	// then
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Invalid date", body.Error)
	assert.Equal(t, "'date' must be YYYY-MM-DD", body.Details)
}

func TestWriteJSON_OmitsEmptyDetails(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}
