package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yatra/globals"
	"yatra/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeMsg(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["msg"]
}

func TestRespondErrorClassification(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/x", nil)

	rec := httptest.NewRecorder()
	RespondError(rec, req, zap.NewNop(), &models.ValidationError{Field: "email", Msg: "is required"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email: is required", decodeMsg(t, rec))

	rec = httptest.NewRecorder()
	RespondError(rec, req, zap.NewNop(), ErrBadBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeMsg(t, rec))

	rec = httptest.NewRecorder()
	RespondError(rec, req, zap.NewNop(), errors.New("connection refused to 10.0.0.3"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ServerErrorMsg, decodeMsg(t, rec))
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Alice"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "Alice", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), ErrBadBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), ErrBadBody)
}

func TestGetUserIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUserIDFromRequest(req))

	req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, "abc"))
	assert.Equal(t, "abc", GetUserIDFromRequest(req))
}
