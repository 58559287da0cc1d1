package store

import (
	"context"
	"io"

	"github.com/iamNilotpal/kvs/internal/codec"
	"github.com/iamNilotpal/kvs/pkg/errors"
)

// Get resolves key via the index, seeks into the segment the index names,
// and decodes exactly one command. It fails with an UnexpectedCommand
// engine error if the decoded command is not a Set — a sign that invariant
// 1 (every indexed entry decodes to exactly one Set) was violated. Reads
// never mutate on-disk state.
//
// Resolving the index entry and reading the segment it names happens under
// ioMu's read lock, so a concurrent compaction pass can never unlink the
// segment out from under a Get already in flight: DeleteSegments holds
// ioMu for write across its close-and-remove loop, so it either runs
// entirely before this Get starts or waits for it to finish.
func (s *Store) Get(ctx context.Context, key string) (value string, found bool, err error) {
	if s.closed.Load() {
		return "", false, ErrStoreClosed
	}

	s.ioMu.RLock()
	defer s.ioMu.RUnlock()

	entry, ok := s.idx.Get(key)
	if !ok {
		return "", false, nil
	}

	rh, err := s.borrowReader(entry.SegmentID)
	if err != nil {
		return "", false, err
	}

	rh.mu.Lock()
	defer rh.mu.Unlock()

	if _, err := rh.f.Seek(entry.Offset, io.SeekStart); err != nil {
		return "", false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to indexed offset").
			WithSegmentID(int(entry.SegmentID)).WithOffset(int(entry.Offset))
	}

	bounded := io.LimitReader(rh.f, int64(entry.Length))
	cmd, err := codec.DecodeCommand(bounded)
	if err != nil {
		return "", false, err
	}
	if !cmd.IsSet() {
		return "", false, errors.NewUnexpectedCommandError(key, entry.SegmentID)
	}

	return cmd.Value, true, nil
}
