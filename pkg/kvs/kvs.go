// Package kvs provides a high-performance, crash-resilient key/value data
// store inspired by Bitcask. It combines an in-memory index with an
// append-only log on disk: sets and removes are durable before returning,
// and reads resolve the index and seek straight to the record on disk. This
// package is the in-process entry point for callers embedding the store
// directly, as an alternative to driving it over the wire protocol.
package kvs

import (
	"context"

	"github.com/iamNilotpal/kvs/internal/engine"
	"github.com/iamNilotpal/kvs/pkg/logger"
	"github.com/iamNilotpal/kvs/pkg/options"
)

// Instance is an open kvs store instance.
//
// Instance is the primary entry point for interacting with the store,
// providing methods for setting, getting, and removing key/value pairs.
type Instance struct {
	engine  *engine.Engine   // The underlying database engine handling read/write operations.
	options *options.Options // Configuration options applied to this instance.
}

// NewInstance opens a store instance at the configured data directory,
// applying any functional options over the defaults.
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	eng, err := engine.New(ctx, &engine.Config{
		Logger:  logger.New(service),
		Options: &defaultOpts,
	})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &defaultOpts}, nil
}

// Set stores a key-value pair in the database. If the key already exists,
// its value is updated. The operation is durable and written to the
// append-only log before returning.
func (i *Instance) Set(ctx context.Context, key, value string) error {
	return i.engine.Set(ctx, key, value)
}

// Get retrieves the value associated with key, returning found=false if no
// such key is present.
func (i *Instance) Get(ctx context.Context, key string) (value string, found bool, err error) {
	return i.engine.Get(ctx, key)
}

// Remove deletes a key-value pair from the database. It fails if the key is
// absent.
func (i *Instance) Remove(ctx context.Context, key string) error {
	return i.engine.Remove(ctx, key)
}

// Close gracefully shuts down the instance, flushing pending writes and
// closing open file handles.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close()
}
