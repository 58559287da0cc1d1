// Package compaction implements the generational-GC rewrite that reclaims
// space held by superseded and removed records: every live Set is copied
// byte-for-byte into a fresh segment, the index is repointed at the copy,
// and only then are the old segments deleted. Grounded on the byte-copying
// merge pass used by this corpus's other Bitcask-style stores (a fresh
// destination segment, a live-entry copy loop, a delete-after-swap phase),
// generalized to the single-monotonic-sequence segment ids this store uses.
package compaction

import (
	"context"
	"io"
	"os"

	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/segment"
	"github.com/iamNilotpal/kvs/pkg/errors"
	"go.uber.org/zap"
)

// Store is the narrow view of internal/store.Store that compaction needs.
// Kept as an interface so this package never reaches into the store's
// locking internals — the caller is expected to already hold whatever lock
// serializes compaction against concurrent writes.
type Store interface {
	Dir() string
	Index() *index.Index
	DeleteSegments(ids []uint64) error
}

type liveEntry struct {
	key   string
	entry index.Entry
}

// Run allocates new_id = activeID + 1, copies every live index entry's
// bytes from its current segment into the new one, repoints the index at
// the new location as each copy completes, and — once every entry has been
// repointed — deletes every segment with id strictly less than new_id.
//
// It returns the new active segment id and the number of bytes written to
// it, so the caller can resume appending at the correct offset.
func Run(ctx context.Context, log *zap.SugaredLogger, st Store, activeID uint64) (newActiveID uint64, writtenBytes int64, err error) {
	dir := st.Dir()
	newID := activeID + 1

	writer, err := segment.OpenAppender(dir, newID)
	if err != nil {
		return 0, 0, err
	}
	defer writer.Close()

	var live []liveEntry
	st.Index().Range(func(key string, entry index.Entry) {
		live = append(live, liveEntry{key: key, entry: entry})
	})

	log.Infow("compaction starting", "activeSegmentID", activeID, "newSegmentID", newID, "liveKeys", len(live))

	srcReaders := make(map[uint64]*os.File)
	defer func() {
		for _, f := range srcReaders {
			_ = f.Close()
		}
	}()

	var offset int64
	for _, le := range live {
		src, ok := srcReaders[le.entry.SegmentID]
		if !ok {
			f, oerr := segment.OpenReader(dir, le.entry.SegmentID)
			if oerr != nil {
				return 0, 0, oerr
			}
			src = f
			srcReaders[le.entry.SegmentID] = src
		}

		if _, serr := src.Seek(le.entry.Offset, io.SeekStart); serr != nil {
			return 0, 0, errors.NewStorageError(serr, errors.ErrorCodeIO, "failed to seek during compaction copy").
				WithSegmentID(int(le.entry.SegmentID)).WithOffset(int(le.entry.Offset))
		}

		if _, cerr := io.CopyN(writer, src, int64(le.entry.Length)); cerr != nil {
			return 0, 0, errors.NewStorageError(cerr, errors.ErrorCodeIO, "failed to copy live record during compaction").
				WithSegmentID(int(le.entry.SegmentID)).WithOffset(int(le.entry.Offset))
		}

		// Repoint before any file is deleted, so a concurrent Get never
		// dereferences an index entry naming a segment about to vanish.
		st.Index().Set(le.key, index.Entry{SegmentID: newID, Offset: offset, Length: le.entry.Length})
		offset += int64(le.entry.Length)
	}

	if err := writer.Sync(); err != nil {
		classified := errors.ClassifySyncError(err, segment.Name(newID), dir, int(offset))
		if se, ok := errors.AsStorageError(classified); ok {
			se.WithSegmentID(int(newID))
		}
		return 0, 0, classified
	}

	ids, err := segment.List(dir)
	if err != nil {
		return 0, 0, err
	}

	var toDelete []uint64
	for _, id := range ids {
		if id < newID {
			toDelete = append(toDelete, id)
		}
	}
	if err := st.DeleteSegments(toDelete); err != nil {
		return 0, 0, err
	}

	log.Infow("compaction complete", "newActiveSegmentID", newID, "bytesWritten", offset, "segmentsDeleted", len(toDelete))
	return newID, offset, nil
}
