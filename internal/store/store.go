package store

import (
	"bufio"
	"context"
	stdErrors "errors"
	"io"

	"github.com/iamNilotpal/kvs/internal/codec"
	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/segment"
	"github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/filesys"
)

// ErrStoreClosed is returned by any operation attempted after Close.
var ErrStoreClosed = stdErrors.New("operation failed: cannot access closed store")

// DefaultCompactionThreshold is the number of uncompacted bytes that
// triggers a compaction pass when none is configured.
const DefaultCompactionThreshold uint64 = 1 << 20 // 1 MiB

// Open prepares the store directory for use: it ensures the directory
// exists, enumerates existing segments, replays each in ascending id order
// to rebuild the index and the uncompacted-bytes estimate, and appends to
// (or creates) the highest-numbered segment as the active one.
func Open(ctx context.Context, config *Config) (*Store, error) {
	if config == nil || config.DataDir == "" || config.Index == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "store configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	threshold := config.CompactionThreshold
	if threshold == 0 {
		threshold = DefaultCompactionThreshold
	}

	config.Logger.Infow("opening store", "dataDir", config.DataDir, "compactionThreshold", threshold)

	if err := filesys.CreateDir(config.DataDir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, config.DataDir)
	}

	ids, err := segment.List(config.DataDir)
	if err != nil {
		return nil, err
	}

	st := &Store{
		dir:                 config.DataDir,
		log:                 config.Logger,
		idx:                 config.Index,
		compactionThreshold: threshold,
		readers:             make(map[uint64]*readerHandle),
	}

	var (
		uncompacted uint64
		activeSize  int64
		lastSegSeen bool
	)

	for _, id := range ids {
		f, err := segment.OpenReader(config.DataDir, id)
		if err != nil {
			return nil, err
		}
		st.readers[id] = &readerHandle{f: f}

		var offset int64
		for {
			before := offset
			cmd, err := codec.DecodeCommand(f)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, errors.NewIndexCorruptionError("Replay", st.idx.Len(), err).
					WithKey(segment.Name(id))
			}
			after, serr := f.Seek(0, io.SeekCurrent)
			if serr != nil {
				return nil, errors.NewStorageError(serr, errors.ErrorCodeIO, "failed to determine replay offset").
					WithSegmentID(int(id))
			}
			length := uint32(after - before)
			offset = after

			switch cmd.Tag {
			case codec.TagSet:
				replaced := st.idx.Put(cmd.Key, index.Entry{SegmentID: id, Offset: before, Length: length})
				if replaced > 0 {
					uncompacted += uint64(replaced)
				}
			case codec.TagRemove:
				if removed, ok := st.idx.Delete(cmd.Key); ok {
					uncompacted += uint64(removed.Length)
				}
			}
		}

		activeSize = offset
		lastSegSeen = true
	}

	var activeID uint64
	if lastSegSeen {
		activeID = ids[len(ids)-1]
	}

	writer, err := segment.OpenAppender(config.DataDir, activeID)
	if err != nil {
		return nil, err
	}

	st.writer = writer
	st.bufw = bufio.NewWriter(writer)
	st.activeID = activeID
	st.writeOffset = activeSize
	st.uncompacted = uncompacted

	config.Logger.Infow(
		"store opened",
		"activeSegmentID", activeID,
		"segmentCount", len(ids),
		"indexedKeys", st.idx.Len(),
		"uncompactedBytes", uncompacted,
	)

	return st, nil
}

// Dir returns the store's data directory. Used by the compactor.
func (s *Store) Dir() string { return s.dir }

// Index returns the store's in-memory index. Used by the compactor.
func (s *Store) Index() *index.Index { return s.idx }

// closeSegmentReader closes and forgets the cached reader handle for
// segment id, if one is open.
func (s *Store) closeSegmentReader(id uint64) {
	s.readersMu.Lock()
	rh, ok := s.readers[id]
	if ok {
		delete(s.readers, id)
	}
	s.readersMu.Unlock()

	if ok {
		rh.mu.Lock()
		_ = rh.f.Close()
		rh.mu.Unlock()
	}
}

// DeleteSegments closes the cached reader for, and removes the file
// backing, each segment id in ids. Used by the compactor once every live
// entry has been copied into the new active segment and the index
// repointed at the copies.
//
// It holds ioMu for write across the whole loop, so it cannot interleave
// with a Get that already resolved an index entry naming one of these
// segments: that Get either completed (and released ioMu) before this call
// started, or this call waits for it to finish before unlinking anything.
func (s *Store) DeleteSegments(ids []uint64) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	for _, id := range ids {
		s.closeSegmentReader(id)
		if err := segment.Delete(s.dir, id); err != nil {
			return err
		}
	}
	return nil
}

// borrowReader returns the reader handle for segmentID, opening and caching
// one if this is the first access.
func (s *Store) borrowReader(segmentID uint64) (*readerHandle, error) {
	s.readersMu.Lock()
	rh, ok := s.readers[segmentID]
	if !ok {
		f, err := segment.OpenReader(s.dir, segmentID)
		if err != nil {
			s.readersMu.Unlock()
			return nil, err
		}
		rh = &readerHandle{f: f}
		s.readers[segmentID] = rh
	}
	s.readersMu.Unlock()
	return rh, nil
}

// Close flushes and closes the active segment and every cached reader
// handle. It does not close the index — the caller owns that.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStoreClosed
	}

	s.writeMu.Lock()
	var flushErr error
	if err := s.bufw.Flush(); err != nil {
		classified := errors.ClassifySyncError(err, segment.Name(s.activeID), s.dir, int(s.writeOffset))
		if se, ok := errors.AsStorageError(classified); ok {
			se.WithSegmentID(int(s.activeID))
		}
		flushErr = classified
	}
	closeErr := s.writer.Close()
	s.writeMu.Unlock()

	s.readersMu.Lock()
	for id, rh := range s.readers {
		rh.mu.Lock()
		_ = rh.f.Close()
		rh.mu.Unlock()
		delete(s.readers, id)
	}
	s.readersMu.Unlock()

	s.log.Infow("store closed", "activeSegmentID", s.activeID)

	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return errors.NewStorageError(closeErr, errors.ErrorCodeIO, "failed to close active segment").
			WithSegmentID(int(s.activeID))
	}
	return nil
}
