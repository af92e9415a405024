package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"frames": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"frames": 3}`, rec.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		body   string
	}{
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed, `{"error":"method not allowed"}`},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad units") }, http.StatusBadRequest, `{"error":"bad units"}`},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "no session") }, http.StatusNotFound, `{"error":"no session"}`},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "no frame yet") }, http.StatusServiceUnavailable, `{"error":"no frame yet"}`},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/tracks?limit=25&bad=x", nil)

	v, err := QueryInt(r, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	v, err = QueryInt(r, "missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = QueryInt(r, "bad", 10)
	assert.Error(t, err)
}

func TestGetJSON(t *testing.T) {
	client := NewMockHTTPClient().
		AddResponse(http.StatusOK, `{"name": "wand"}`).
		AddResponse(http.StatusNotFound, `{"error": "session not found"}`).
		AddResponse(http.StatusBadGateway, `<html>`).
		AddErrorResponse(errors.New("connection refused"))

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, GetJSON(context.Background(), client, "http://mocap/api/x", &out))
	assert.Equal(t, "wand", out.Name)

	err := GetJSON(context.Background(), client, "http://mocap/api/x", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")

	err = GetJSON(context.Background(), client, "http://mocap/api/x", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	err = GetJSON(context.Background(), client, "http://mocap/api/x", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, 4, client.RequestCount())
	assert.Equal(t, "application/json", client.Requests[0].Header.Get("Accept"))
}
