package store

import (
	"bufio"
	"context"

	"github.com/iamNilotpal/kvs/internal/codec"
	"github.com/iamNilotpal/kvs/internal/compaction"
	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/segment"
	"github.com/iamNilotpal/kvs/pkg/errors"
)

// Set installs key -> value, durably. If uncompacted bytes cross the
// configured threshold afterward, compaction runs before Set returns;
// compaction failures are logged, not surfaced, since the Set itself
// already succeeded.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	cmd := codec.NewSetCommand(key, value)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	offset := s.writeOffset
	n, err := codec.EncodeCommand(s.bufw, cmd)
	if err != nil {
		return err
	}
	if err := s.bufw.Flush(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush set record").
			WithSegmentID(int(s.activeID)).WithOffset(int(offset))
	}
	s.writeOffset += int64(n)

	replaced := s.idx.Put(key, index.Entry{SegmentID: s.activeID, Offset: offset, Length: uint32(n)})
	if replaced > 0 {
		s.uncompacted += uint64(replaced)
	}

	s.maybeCompact(ctx)
	return nil
}

// Remove deletes key. It fails with a KeyNotFound engine error and appends
// nothing if the key is absent — preserving the invariant that every
// Remove record in the log had a corresponding live Set at append time.
func (s *Store) Remove(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok := s.idx.Get(key)
	if !ok {
		return errors.NewKeyNotFoundEngineError(key)
	}

	s.idx.Delete(key)

	cmd := codec.NewRemoveCommand(key)
	offset := s.writeOffset
	n, err := codec.EncodeCommand(s.bufw, cmd)
	if err != nil {
		// Roll back the index deletion so the failed append doesn't cause
		// a live key to silently disappear.
		s.idx.Set(key, existing)
		return err
	}
	if err := s.bufw.Flush(); err != nil {
		s.idx.Set(key, existing)
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush remove record").
			WithSegmentID(int(s.activeID)).WithOffset(int(offset))
	}
	s.writeOffset += int64(n)

	// Policy: only the superseded Set's length counts toward uncompacted,
	// not the Remove record's own bytes (see the Open Question decision in
	// DESIGN.md).
	s.uncompacted += uint64(existing.Length)

	s.maybeCompact(ctx)
	return nil
}

// maybeCompact runs compaction when uncompacted bytes cross the threshold.
// Must be called with writeMu held.
func (s *Store) maybeCompact(ctx context.Context) {
	if s.uncompacted <= s.compactionThreshold {
		return
	}

	newActiveID, writtenBytes, err := compaction.Run(ctx, s.log, s, s.activeID)
	if err != nil {
		s.log.Errorw("compaction failed, will retry on next threshold crossing",
			"activeSegmentID", s.activeID, "uncompactedBytes", s.uncompacted, "error", err)
		return
	}

	if err := s.bufw.Flush(); err != nil {
		s.log.Errorw("failed to flush old active segment after compaction", "error", err)
	}
	if err := s.writer.Close(); err != nil {
		s.log.Warnw("failed to close old active segment after compaction", "error", err)
	}

	newWriter, err := segment.OpenAppender(s.dir, newActiveID)
	if err != nil {
		s.log.Errorw("failed to open new active segment after compaction", "error", err)
		return
	}

	s.writer = newWriter
	s.bufw = bufio.NewWriter(newWriter)
	s.activeID = newActiveID
	s.writeOffset = writtenBytes
	s.uncompacted = 0
}
