package server_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/iamNilotpal/kvs/internal/client"
	"github.com/iamNilotpal/kvs/internal/engine"
	"github.com/iamNilotpal/kvs/internal/server"
	"github.com/iamNilotpal/kvs/pkg/options"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*server.Server, *client.Client) {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.Addr = "127.0.0.1:0"

	eng, err := engine.New(context.Background(), &engine.Config{
		Options: &opts,
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	srv, err := server.New(context.Background(), &server.Config{
		Addr:           opts.Addr,
		WorkerPoolSize: opts.WorkerPoolSize,
		Engine:         eng,
		Logger:         zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	go srv.Serve()

	return srv, client.New(srv.Addr())
}

func TestServerSetGetRemoveRoundTrip(t *testing.T) {
	_, cl := newTestServer(t)

	require.NoError(t, cl.Set("language", "go"))

	value, found, err := cl.Get("language")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "go", value)

	_, found, err = cl.Get("missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, cl.Remove("language"))

	err = cl.Remove("language")
	require.Error(t, err)
}

func TestServerConcurrentClients(t *testing.T) {
	_, cl := newTestServer(t)

	const clients = 16
	const keysPerClient = 50

	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			for i := 0; i < keysPerClient; i++ {
				key := fmt.Sprintf("client-%d-key-%d", clientID, i)
				value := fmt.Sprintf("value-%d-%d", clientID, i)
				require.NoError(t, cl.Set(key, value))
			}
		}(c)
	}
	wg.Wait()

	for c := 0; c < clients; c++ {
		for i := 0; i < keysPerClient; i++ {
			key := fmt.Sprintf("client-%d-key-%d", c, i)
			expected := fmt.Sprintf("value-%d-%d", c, i)

			value, found, err := cl.Get(key)
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, expected, value)
		}
	}
}
