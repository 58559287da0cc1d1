// Package engine provides the core database engine for the kvs store.
//
// The engine is the central coordinator for all database operations. It
// owns the in-memory index and the append-only store built on top of it,
// checks the on-disk engine marker at startup, and exposes the Set/Get/
// Remove operations that the wire protocol server and any embedding caller
// drive.
package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/store"
	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/options"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

// MarkerFileName is the file recording which engine last opened a data
// directory (spec.md §6: "Engine operating marker").
const MarkerFileName = "kvs.engine"

// Engine coordinates the index and the store, and is the unit the server's
// worker pool clones a handle to per connection — all methods forward to
// the same shared, lock-guarded state.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger
	closed  atomic.Bool
	index   *index.Index
	store   *store.Store
}

// Config holds the parameters needed to initialize a new Engine instance.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens the engine's data directory: it checks (and, if absent, writes)
// the engine marker, rebuilds the index by replaying the segment log, and
// returns a ready-to-use Engine.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, kvserrors.NewValidationError(
			nil, kvserrors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	if err := checkEngineMarker(config.Options.DataDir, config.Options.EngineName); err != nil {
		return nil, err
	}

	idx, err := index.New(ctx, &index.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, &store.Config{
		DataDir:             config.Options.DataDir,
		CompactionThreshold: config.Options.CompactionThreshold,
		Index:               idx,
		Logger:              config.Logger,
	})
	if err != nil {
		if ie, ok := kvserrors.AsIndexError(err); ok {
			config.Logger.Errorw("index corrupted while rebuilding from segment log",
				"operation", ie.Operation(), "indexSize", ie.IndexSize(), "segment", ie.Key())
		}
		return nil, err
	}

	config.Logger.Infow("engine ready", "dataDir", config.Options.DataDir, "engine", config.Options.EngineName)

	return &Engine{options: config.Options, log: config.Logger, index: idx, store: st}, nil
}

// checkEngineMarker writes MarkerFileName with engineName if dataDir has no
// marker yet, or fails if an existing marker names a different engine.
func checkEngineMarker(dataDir, engineName string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "failed to create data directory").
			WithPath(dataDir)
	}

	path := filepath.Join(dataDir, MarkerFileName)
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := os.WriteFile(path, []byte(engineName), 0644); werr != nil {
				return kvserrors.NewStorageError(werr, kvserrors.ErrorCodeIO, "failed to write engine marker").
					WithPath(path)
			}
			return nil
		}
		return kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "failed to read engine marker").
			WithPath(path)
	}

	if string(existing) != engineName {
		return kvserrors.NewValidationError(
			nil, kvserrors.ErrorCodeInvalidInput, "data directory was created by a different engine",
		).WithField("engine").WithProvided(engineName).WithExpected(string(existing))
	}
	return nil
}

// Set installs key -> value.
func (e *Engine) Set(ctx context.Context, key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.store.Set(ctx, key, value)
}

// Get resolves key, returning (value, true, nil) if present and (_, false,
// nil) if absent.
func (e *Engine) Get(ctx context.Context, key string) (string, bool, error) {
	if e.closed.Load() {
		return "", false, ErrEngineClosed
	}
	return e.store.Get(ctx, key)
}

// Remove deletes key, failing with a KeyNotFound engine error if absent.
func (e *Engine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.store.Remove(ctx, key)
}

// Close gracefully shuts down the engine, flushing the active segment and
// releasing the index.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	if err := e.store.Close(); err != nil {
		return err
	}
	return e.index.Close()
}
