package cli

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.NotNil(t, serveCmd.Flags().Lookup("addr"))
}

func TestResolveServeAddr(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	assert.Equal(t, ":4100", resolveServeAddr())

	ts.settings.settings.Server.Addr = ":9000"
	assert.Equal(t, ":9000", resolveServeAddr())

	serveAddr = "127.0.0.1:8080"
	assert.Equal(t, "127.0.0.1:8080", resolveServeAddr())

	serveAddr = ""
	SetServices(Services{})
	assert.Equal(t, ":4100", resolveServeAddr())
}

func TestServeCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute("serve")

	assert.EqualError(t, err, "query service not configured")
}

func TestServeCmd_ServesUntilCancelled(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetArgs([]string{"serve", "--addr", addr})
	defer rootCmd.SetArgs(nil)

	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/stats")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Equal(t, 1, ts.scheduler.stopped, "the scheduler runs alongside the server")
}
