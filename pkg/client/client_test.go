package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/convert":
			assert.Equal(t, "true", r.URL.Query().Get("wait"))
			var req ConvertRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "markdown", req.SourceFormat)
			json.NewEncoder(w).Encode(Job{JobID: "abc", Status: "completed"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/jobs/abc":
			json.NewEncoder(w).Encode(Job{JobID: "abc", Status: "completed"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/jobs/abc/result":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<h1>Hi</h1>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	job, err := c.Submit(ctx, ConvertRequest{
		SourceFormat: "markdown",
		TargetFormat: "html",
		Content:      "# Hi",
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "abc", job.JobID)
	assert.Equal(t, "completed", job.Status)

	got, err := c.Status(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)

	result, err := c.Result(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", string(result))
}

func TestSubmitSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "unsupported_conversion",
			"detail": "no conversion path from pdf to pdf",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Submit(context.Background(), ConvertRequest{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported_conversion")
	assert.Contains(t, err.Error(), "no conversion path")
}

func TestStatusNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Status(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
