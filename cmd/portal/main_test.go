package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerbook/portal/internal/testutil"
)

func Test_run(t *testing.T) {
	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	t.Run("stop with signal", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		err := run(ctx, os.Getenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--platform", "http://localhost:3000",
			"--secret-key", "secret",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("stop with srv error", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond) // Half Second
		t.Cleanup(cancel)

		// Occupy the port so the server fails to listen
		ln, err := net.Listen("tcp", listenAddr)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ln.Close() })

		err = run(ctx, os.Getenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--platform", "http://localhost:3000",
			"--secret-key", "secret",
		})

		require.Error(t, err, "server should fail to bind an occupied port")
	})

	t.Run("no secret key", func(t *testing.T) {
		err := run(t.Context(), func(string) string { return "" }, os.Getwd, []string{
			"--address", listenAddr,
		})

		require.Error(t, err, "cookie signing key is required")
	})
}
