package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProbe struct {
	name  string
	err   error
	panic bool
}

func (p *stubProbe) Name() string { return p.name }

func (p *stubProbe) Check(ctx context.Context) error {
	if p.panic {
		panic("probe exploded")
	}
	return p.err
}

func TestHandleHealth_NoProbes(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Empty(t, resp.Components)
}

func TestHandleHealth_AllHealthy(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.HealthProbes = []HealthProbe{
		&stubProbe{name: "database"},
		&stubProbe{name: "cache"},
	}

	w := httptest.NewRecorder()
	srv.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["database"].Status)
	assert.Equal(t, "healthy", resp.Components["cache"].Status)
}

func TestHandleHealth_OneUnhealthy(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.HealthProbes = []HealthProbe{
		&stubProbe{name: "database"},
		&stubProbe{name: "cache", err: errors.New("connection refused")},
	}

	w := httptest.NewRecorder()
	srv.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Components["database"].Status)
	assert.Equal(t, "unhealthy", resp.Components["cache"].Status)
	assert.Contains(t, resp.Components["cache"].Message, "connection refused")
}

func TestHandleHealth_PanickingProbe(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.HealthProbes = []HealthProbe{
		&stubProbe{name: "database", panic: true},
	}

	w := httptest.NewRecorder()
	srv.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Components["database"].Status)
	assert.Contains(t, resp.Components["database"].Message, "panicked")
}
