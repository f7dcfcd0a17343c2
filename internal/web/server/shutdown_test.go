package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunServesUntilCancelled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv, err := New(&Config{
		Address:         "127.0.0.1:0",
		Handler:         okHandler(),
		ShutdownTimeout: 5 * time.Second,
		Logger:          zap.New(core),
	})
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, 1, logs.FilterMessage("server stopped").Len())
}

func TestRunFailsWhenAddressIsTaken(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	srv, err := New(&Config{Address: taken.Addr().String(), Handler: okHandler()})
	require.NoError(t, err)

	assert.Error(t, srv.Run(context.Background()))
}

func TestShutdownBeforeRun(t *testing.T) {
	srv, err := New(&Config{Address: "127.0.0.1:0", Handler: okHandler()})
	require.NoError(t, err)

	assert.NoError(t, srv.Shutdown())
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
}
