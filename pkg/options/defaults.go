package options

const (
	// DefaultDataDir is the default base directory where kvs stores its segments.
	DefaultDataDir = "/var/lib/kvs"

	// DefaultCompactionThreshold is the default uncompacted-bytes threshold
	// that triggers compaction (1 MiB, per spec).
	DefaultCompactionThreshold uint64 = 1 * 1024 * 1024

	// DefaultAddr is the default TCP bind address for the server and the
	// default address clients dial.
	DefaultAddr = "127.0.0.1:4000"

	// DefaultWorkerPoolSize is the default number of goroutines handling
	// connections.
	DefaultWorkerPoolSize = 32

	// DefaultEngineName is the engine name recorded in the engine marker
	// file when none is configured.
	DefaultEngineName = "kvs"
)

// defaultOptions holds the default configuration for a kvs instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	CompactionThreshold: DefaultCompactionThreshold,
	Addr:                DefaultAddr,
	WorkerPoolSize:      DefaultWorkerPoolSize,
	EngineName:          DefaultEngineName,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
