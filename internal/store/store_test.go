package store_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/iamNilotpal/kvs/internal/codec"
	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/segment"
	"github.com/iamNilotpal/kvs/internal/store"
	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, dir string, threshold uint64) *store.Store {
	t.Helper()
	idx, err := index.New(context.Background(), &index.Config{DataDir: dir, Logger: zap.NewNop().Sugar()})
	require.NoError(t, err)

	st, err := store.Open(context.Background(), &store.Config{
		DataDir:             dir,
		CompactionThreshold: threshold,
		Index:               idx,
		Logger:              zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return st
}

func TestSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := newTestStore(t, dir, store.DefaultCompactionThreshold)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "k", "a"))
	require.NoError(t, st.Set(ctx, "k", "b"))
	require.NoError(t, st.Set(ctx, "k", "c"))

	v, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "c", v)
}

func TestSetRemoveGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st := newTestStore(t, dir, store.DefaultCompactionThreshold)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "k", "v"))
	require.NoError(t, st.Remove(ctx, "k"))

	_, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestGetAbsentKey(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, t.TempDir(), store.DefaultCompactionThreshold)
	defer st.Close()

	_, found, err := st.Get(ctx, "absent")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRemoveAbsentKeyFails(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, t.TempDir(), store.DefaultCompactionThreshold)
	defer st.Close()

	err := st.Remove(ctx, "absent")
	require.Error(t, err)
	ee, ok := kvserrors.AsEngineError(err)
	require.True(t, ok)
	require.Equal(t, kvserrors.ErrorCodeKeyNotFound, ee.Code())
}

func TestBasicScenario(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, t.TempDir(), store.DefaultCompactionThreshold)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "k1", "v1"))
	require.NoError(t, st.Set(ctx, "k2", "v2"))

	v, found, err := st.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v1", v)

	v, found, err = st.Get(ctx, "k2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v2", v)

	require.NoError(t, st.Remove(ctx, "k1"))
	_, found, err = st.Get(ctx, "k1")
	require.NoError(t, err)
	require.False(t, found)

	v, found, err = st.Get(ctx, "k2")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "v2", v)
}

func TestReopenPersistsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st := newTestStore(t, dir, store.DefaultCompactionThreshold)
	require.NoError(t, st.Set(ctx, "k", "c"))
	require.NoError(t, st.Close())

	reopened := newTestStore(t, dir, store.DefaultCompactionThreshold)
	defer reopened.Close()

	v, found, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "c", v)
}

func TestCompactionReclaimsSpace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// A 1 KiB threshold: with 1 KiB values, every overwrite after the first pushes uncompacted bytes past it and triggers compaction.
	st := newTestStore(t, dir, 1024)
	defer st.Close()

	large := make([]byte, 1024)
	for i := range large {
		large[i] = 'x'
	}

	for i := 0; i < 200; i++ {
		require.NoError(t, st.Set(ctx, "k", string(large)))
	}

	v, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, string(large), v)

	// Without compaction the log would hold all 200 records; with it, at most
	// the live record plus one more write remain on disk.
	ids, err := segment.List(dir)
	require.NoError(t, err)
	var total int64
	for _, id := range ids {
		info, err := os.Stat(segment.Path(dir, id))
		require.NoError(t, err)
		total += info.Size()
	}
	recordLen := int64(codec.NewSetCommand("k", string(large)).EncodedLen())
	require.LessOrEqual(t, total, 2*recordLen)
}

func TestConcurrentDisjointKeyWritesAndReads(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, t.TempDir(), store.DefaultCompactionThreshold)
	defer st.Close()

	const goroutines = 16
	const keysEach = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < keysEach; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i)
				val := fmt.Sprintf("g%d-v%d", g, i)
				require.NoError(t, st.Set(ctx, key, val))
				v, found, err := st.Get(ctx, key)
				require.NoError(t, err)
				require.True(t, found)
				require.Equal(t, val, v)
			}
		}(g)
	}
	wg.Wait()
}

func TestEmptyKeyAndValue(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, t.TempDir(), store.DefaultCompactionThreshold)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "", ""))
	v, found, err := st.Get(ctx, "")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "", v)
}

func TestReopenEmptyDirectory(t *testing.T) {
	st := newTestStore(t, t.TempDir(), store.DefaultCompactionThreshold)
	defer st.Close()

	_, found, err := st.Get(context.Background(), "anything")
	require.NoError(t, err)
	require.False(t, found)
}
