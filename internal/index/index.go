// Package index provides the in-memory hash table implementation for the kvs
// key-value store. This package embodies the core Bitcask architectural
// principle: maintain all keys in memory with minimal metadata while storing
// actual values on disk.
//
// The index enables O(1) key lookups through an in-memory hash table while
// keeping storage overhead minimal. This allows the system to handle
// datasets significantly larger than available RAM while maintaining
// excellent read performance characteristics.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/iamNilotpal/kvs/pkg/errors"
)

var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates and initializes a new Index instance configured according to the
// provided parameters. The returned Index is immediately ready for concurrent
// use and includes optimizations like pre-allocated map capacity.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		dataDir: config.DataDir,
		entries: make(map[string]Entry, 2046),
	}, nil
}

// Get returns the entry for key and whether it was present.
func (idx *Index) Get(key string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[key]
	return e, ok
}

// Put installs entry for key, replacing any prior entry. It returns the
// length of the entry that was replaced (0 if there was none) so the write
// path can account the superseded bytes toward uncompacted.
func (idx *Index) Put(key string, entry Entry) (replacedLength uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if old, ok := idx.entries[key]; ok {
		replacedLength = old.Length
	}
	idx.entries[key] = entry
	return replacedLength
}

// Delete removes key's entry, returning the removed entry and whether it existed.
func (idx *Index) Delete(key string) (Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.entries[key]
	if ok {
		delete(idx.entries, key)
	}
	return e, ok
}

// Len returns the number of keys currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Range calls fn once for every (key, entry) pair. Iteration order is not
// significant. fn must not call back into the Index.
func (idx *Index) Range(fn func(key string, entry Entry)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for k, e := range idx.entries {
		fn(k, e)
	}
}

// Set replaces key's entry with entry, unconditionally, used by the
// compactor to repoint an entry at its post-compaction location without
// caring about the replaced length.
func (idx *Index) Set(key string, entry Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[key] = entry
}

// Close gracefully shuts down the Index, cleaning up resources and ensuring
// that the index cannot be used after closure.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("Closing index system")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.entries)
	idx.entries = nil

	idx.log.Infow("Index system closed successfully")
	return nil
}
