package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreEnabled = true
	cfg.StoreDSN = filepath.Join(t.TempDir(), "server.db")

	srv, err := NewServer(context.Background(), cfg, "test-version")
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.store.Close() })

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, true, health["vector_store"])
	assert.Equal(t, false, health["api_key_configured"])
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = "0"

	srv, err := NewServer(context.Background(), cfg, "test-version")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
