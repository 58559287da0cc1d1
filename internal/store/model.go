// Package store implements the append-only command log, its write and read
// paths, and the locking discipline that lets many goroutines share one
// store: a writer mutex serializes appends and compaction, the index has its
// own read-write lock, and each segment's reader handle is borrowed
// exclusively for the duration of one Get.
package store

import (
	"bufio"
	"os"
	"sync"
	"sync/atomic"

	"github.com/iamNilotpal/kvs/internal/index"
	"go.uber.org/zap"
)

// readerHandle pairs a segment's read-only file descriptor with the mutex
// that makes seek-then-read on it safe to share: a handle is not
// concurrency-safe on its own, so every Get borrows it exclusively.
type readerHandle struct {
	mu sync.Mutex
	f  *os.File
}

// Store owns one store directory: the active segment's append handle, the
// table of sealed-and-active segment readers, and the in-memory index that
// points into both.
type Store struct {
	dir                 string
	compactionThreshold uint64
	log                 *zap.SugaredLogger
	idx                 *index.Index

	// writeMu guards writer, bufw, activeID, writeOffset, and uncompacted —
	// everything touched by an append or by compaction.
	writeMu     sync.Mutex
	writer      *os.File
	bufw        *bufio.Writer
	activeID    uint64
	writeOffset int64
	uncompacted uint64

	readersMu sync.Mutex
	readers   map[uint64]*readerHandle

	// ioMu serializes a Get's segment read against compaction's delete
	// phase: Get holds it for read across resolving the index entry and
	// reading the segment it names, and DeleteSegments holds it for write
	// across closing and removing old segment files. Without this, a Get
	// that resolved a stale index entry could still be seeking into a
	// segment compaction has already unlinked.
	ioMu sync.RWMutex

	closed atomic.Bool
}

// Config encapsulates the configuration parameters required to open a Store.
type Config struct {
	DataDir             string
	CompactionThreshold uint64
	Index               *index.Index
	Logger              *zap.SugaredLogger
}
