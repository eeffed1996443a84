package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type overview struct {
	RunsCount int `json:"runs_count"`
}

func newServer(t *testing.T, primary, fallback http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var fallbackHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/metrics/overview", primary)
	mux.HandleFunc("/mocks/metrics_overview.json", func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
		fallback(w, r)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &fallbackHits
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", code)
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name         string
		primary      http.HandlerFunc
		fallback     http.HandlerFunc
		wantCount    int
		wantFallback int32
		wantErr      bool
	}{
		{name: "primary ok", primary: jsonBody(`{"runs_count": 3}`), fallback: jsonBody(`{"runs_count": 1}`), wantCount: 3},
		{name: "primary 500", primary: status(http.StatusInternalServerError), fallback: jsonBody(`{"runs_count": 1}`), wantCount: 1, wantFallback: 1},
		{name: "primary bad json", primary: jsonBody(`<html>`), fallback: jsonBody(`{"runs_count": 1}`), wantCount: 1, wantFallback: 1},
		{name: "both fail", primary: status(http.StatusBadGateway), fallback: status(http.StatusNotFound), wantFallback: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, hits := newServer(t, tt.primary, tt.fallback)
			c := New(ts.URL, ts.Client(), zaptest.NewLogger(t))

			var got overview
			err := c.Fetch(context.Background(), "/api/metrics/overview", "/mocks/metrics_overview.json", &got)
			assert.Equal(t, tt.wantFallback, hits.Load())
			if tt.wantErr {
				require.Error(t, err)
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusNotFound, se.Code)
				assert.Contains(t, err.Error(), "HTTP 502")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, got.RunsCount)
		})
	}
}

func TestFetch_NoFallback(t *testing.T) {
	ts, _ := newServer(t, status(http.StatusServiceUnavailable), jsonBody(`{}`))
	c := New(ts.URL+"/", nil, zaptest.NewLogger(t))

	var got overview
	err := c.Fetch(context.Background(), "api/metrics/overview", "", &got)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}
