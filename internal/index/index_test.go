package index_test

import (
	"context"
	"testing"

	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(context.Background(), &index.Config{
		DataDir: t.TempDir(),
		Logger:  zap.NewNop().Sugar(),
	})
	require.NoError(t, err)
	return idx
}

func TestPutGetDelete(t *testing.T) {
	idx := newTestIndex(t)

	replaced := idx.Put("k", index.Entry{SegmentID: 0, Offset: 0, Length: 10})
	require.Zero(t, replaced)

	entry, ok := idx.Get("k")
	require.True(t, ok)
	require.Equal(t, index.Entry{SegmentID: 0, Offset: 0, Length: 10}, entry)

	replaced = idx.Put("k", index.Entry{SegmentID: 0, Offset: 10, Length: 20})
	require.Equal(t, uint32(10), replaced)

	removed, ok := idx.Delete("k")
	require.True(t, ok)
	require.Equal(t, uint32(20), removed.Length)

	_, ok = idx.Get("k")
	require.False(t, ok)

	_, ok = idx.Delete("absent")
	require.False(t, ok)
}

func TestLenAndRange(t *testing.T) {
	idx := newTestIndex(t)
	idx.Put("a", index.Entry{Offset: 0, Length: 1})
	idx.Put("b", index.Entry{Offset: 1, Length: 2})

	require.Equal(t, 2, idx.Len())

	seen := map[string]uint32{}
	idx.Range(func(key string, entry index.Entry) {
		seen[key] = entry.Length
	})
	require.Equal(t, map[string]uint32{"a": 1, "b": 2}, seen)
}

func TestCloseRejectsDoubleClose(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())
	require.ErrorIs(t, idx.Close(), index.ErrIndexClosed)
}
