package segment_test

import (
	"os"
	"testing"

	"github.com/iamNilotpal/kvs/internal/segment"
	"github.com/stretchr/testify/require"
)

func TestListIgnoresNonMatchingEntries(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(segment.Path(dir, 2), []byte("b"), 0644))
	require.NoError(t, os.WriteFile(segment.Path(dir, 0), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(segment.Path(dir, 10), []byte("c"), 0644))
	require.NoError(t, os.WriteFile(dir+"/README.md", []byte("ignore me"), 0644))
	require.NoError(t, os.WriteFile(dir+"/kvs.engine", []byte("kvs"), 0644))

	ids, err := segment.List(dir)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 2, 10}, ids)
}

func TestOpenAppenderCreatesAndAppends(t *testing.T) {
	dir := t.TempDir()

	f, err := segment.OpenAppender(dir, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := segment.OpenAppender(dir, 0)
	require.NoError(t, err)
	_, err = f2.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, f2.Close())

	data, err := os.ReadFile(segment.Path(dir, 0))
	require.NoError(t, err)
	require.Equal(t, "helloworld", string(data))
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	f, err := segment.OpenAppender(dir, 5)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, segment.Delete(dir, 5))

	ids, err := segment.List(dir)
	require.NoError(t, err)
	require.Empty(t, ids)
}
