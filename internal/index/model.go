package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Entry contains the absolute minimum metadata required to locate a Set
// command's value on disk without scanning: which segment it lives in, the
// byte offset the command's header starts at, and the encoded length of the
// whole command record.
//
// Index entries are back-references, not ownership: the segment file is
// owned by the store, and an Entry holds coordinates into it rather than a
// handle. Deleting a segment must be preceded by removing every Entry that
// points into it — the compactor guarantees this by repointing every entry
// before it deletes an old segment's file.
type Entry struct {
	// SegmentID identifies which segment file holds the record.
	SegmentID uint64
	// Offset is the byte position within the segment where the record's
	// header begins.
	Offset int64
	// Length is the total encoded size of the command record (header, key,
	// and value), letting a read fetch the whole record in one seek+read.
	Length uint32
}

// Index is the in-memory hash table mapping keys to the location of the
// newest Set command for that key. It is rebuilt by replaying the segment
// log on startup and never itself persisted — the log is the source of
// truth, and the index is a cache over it.
type Index struct {
	dataDir string             // Filesystem directory containing the segments this index points into.
	log     *zap.SugaredLogger // Structured logging for index operations.
	entries map[string]Entry   // Core mapping from key to its on-disk location.
	mu      sync.RWMutex       // Guards entries, permitting any number of concurrent readers.
	closed  atomic.Bool        // Whether Close has already run.
}

// Config encapsulates the configuration parameters required to initialize an Index.
type Config struct {
	DataDir string             // Filesystem directory containing segment files.
	Logger  *zap.SugaredLogger // Structured logging for Index operations.
}
