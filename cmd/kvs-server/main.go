// Command kvs-server runs the kvs TCP server against a data directory,
// refusing to start if the directory's engine marker names a different
// engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iamNilotpal/kvs/internal/engine"
	"github.com/iamNilotpal/kvs/internal/server"
	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/logger"
	"github.com/iamNilotpal/kvs/pkg/options"
)

func main() {
	addr := flag.String("addr", options.DefaultAddr, "address to bind the server to")
	engineName := flag.String("engine", options.DefaultEngineName, "storage engine name (kvs or sled)")
	dataDir := flag.String("data-dir", options.DefaultDataDir, "directory to store engine data in")
	workers := flag.Int("workers", options.DefaultWorkerPoolSize, "number of worker goroutines handling connections")
	compactionThreshold := flag.Uint64(
		"compaction-threshold", options.DefaultCompactionThreshold, "uncompacted bytes that trigger compaction",
	)
	flag.Parse()

	log := logger.New("kvs-server")

	opts := options.NewDefaultOptions()
	opts.Addr = *addr
	opts.EngineName = *engineName
	opts.DataDir = *dataDir
	opts.WorkerPoolSize = *workers
	opts.CompactionThreshold = *compactionThreshold

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: log})
	if err != nil {
		if ve, ok := kvserrors.AsValidationError(err); ok {
			fmt.Fprintf(os.Stderr, "invalid configuration: %s (field=%s, provided=%v)\n", ve.Error(), ve.Field(), ve.Provided())
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer eng.Close()

	srv, err := server.New(ctx, &server.Config{
		Addr:           opts.Addr,
		WorkerPoolSize: opts.WorkerPoolSize,
		Engine:         eng,
		Logger:         log,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.Serve(); err != nil {
		log.Errorw("server stopped with error", "error", err)
		os.Exit(1)
	}
}
