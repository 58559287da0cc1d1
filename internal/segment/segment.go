// Package segment enumerates, opens, creates, and deletes the numbered log
// files that make up a store's on-disk state. A segment is a file named
// "<N>.kvs.log" directly inside the store's data directory, where <N> is a
// non-negative base-10 integer with no leading zeros beyond "0". Exactly one
// segment is active (receiving appends) at any moment; the rest are sealed.
package segment

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
)

const suffix = ".kvs.log"

// Name returns the filename (not full path) for segment id.
func Name(id uint64) string {
	return strconv.FormatUint(id, 10) + suffix
}

// Path returns the well-known path for segment id inside dir.
func Path(dir string, id uint64) string {
	return filepath.Join(dir, Name(id))
}

// List enumerates dir, filters entries matching "<N>.kvs.log" with <N>
// parseable as a non-negative integer, and returns their ids sorted
// ascending. Non-matching entries are ignored silently.
func List(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "failed to list segment directory").
			WithPath(dir)
	}

	var ids []uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		idStr := strings.TrimSuffix(name, suffix)
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids, nil
}

// OpenAppender opens segment id for appending, creating it if absent, and
// positions the handle at end-of-file.
func OpenAppender(dir string, id uint64) (*os.File, error) {
	path := Path(dir, id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		classified := kvserrors.ClassifyFileOpenError(err, path, Name(id))
		if se, ok := kvserrors.AsStorageError(classified); ok {
			se.WithSegmentID(int(id))
		}
		return nil, classified
	}
	return f, nil
}

// OpenReader opens segment id read-only for random-access reads.
func OpenReader(dir string, id uint64) (*os.File, error) {
	path := Path(dir, id)
	f, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		classified := kvserrors.ClassifyFileOpenError(err, path, Name(id))
		if se, ok := kvserrors.AsStorageError(classified); ok {
			se.WithSegmentID(int(id))
		}
		return nil, classified
	}
	return f, nil
}

// Delete unlinks segment id's file.
func Delete(dir string, id uint64) error {
	path := Path(dir, id)
	if err := os.Remove(path); err != nil {
		return kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "failed to delete segment file").
			WithSegmentID(int(id)).WithFileName(Name(id)).WithPath(path)
	}
	return nil
}
