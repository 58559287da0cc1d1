package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iamNilotpal/kvs/internal/engine"
	"github.com/iamNilotpal/kvs/pkg/options"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, dir string) *engine.Engine {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = dir

	eng, err := engine.New(context.Background(), &engine.Config{
		Options: &opts,
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return eng
}

func TestNewWritesEngineMarker(t *testing.T) {
	dir := t.TempDir()
	eng := newTestEngine(t, dir)
	defer eng.Close()

	contents, err := os.ReadFile(filepath.Join(dir, engine.MarkerFileName))
	require.NoError(t, err)
	require.Equal(t, "kvs", string(contents))
}

func TestNewRejectsMismatchedMarker(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, engine.MarkerFileName), []byte("sled"), 0644))

	opts := options.NewDefaultOptions()
	opts.DataDir = dir

	_, err := engine.New(context.Background(), &engine.Config{
		Options: &opts,
		Logger:  zap.NewNop().Sugar(),
	})
	require.Error(t, err)
}

func TestEngineSetGetRemove(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())
	defer eng.Close()

	ctx := context.Background()
	require.NoError(t, eng.Set(ctx, "foo", "bar"))

	value, found, err := eng.Get(ctx, "foo")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "bar", value)

	require.NoError(t, eng.Remove(ctx, "foo"))

	_, found, err = eng.Get(ctx, "foo")
	require.NoError(t, err)
	require.False(t, found)
}

func TestEngineOperationsFailAfterClose(t *testing.T) {
	eng := newTestEngine(t, t.TempDir())
	require.NoError(t, eng.Close())

	ctx := context.Background()
	require.ErrorIs(t, eng.Set(ctx, "foo", "bar"), engine.ErrEngineClosed)

	_, _, err := eng.Get(ctx, "foo")
	require.ErrorIs(t, err, engine.ErrEngineClosed)
}
