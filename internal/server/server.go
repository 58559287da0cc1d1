// Package server implements the TCP wire protocol in front of the engine:
// one Request decoded per connection, dispatched to the engine, and exactly
// one Response written back before the connection closes. A fixed-size
// worker pool owns connection handling so a slow client can never block the
// accept loop — the same producer/worker-channel split this corpus's other
// log-structured stores use for connection and request fan-out.
package server

import (
	"context"
	"net"
	"sync"

	"github.com/iamNilotpal/kvs/internal/codec"
	"github.com/iamNilotpal/kvs/internal/engine"
	kvserrors "github.com/iamNilotpal/kvs/pkg/errors"
	"go.uber.org/zap"
)

// DefaultWorkerPoolSize is used when Config.WorkerPoolSize is unset.
const DefaultWorkerPoolSize = 32

// Config holds the parameters needed to start a Server.
type Config struct {
	Addr           string
	WorkerPoolSize int
	Engine         *engine.Engine
	Logger         *zap.SugaredLogger
}

// Server accepts TCP connections and dispatches one request per connection
// to the engine across a fixed worker pool.
type Server struct {
	log    *zap.SugaredLogger
	eng    *engine.Engine
	ln     net.Listener
	conns  chan net.Conn
	wg     sync.WaitGroup
	quit   chan struct{}
	closed sync.Once
}

// New binds a TCP listener at config.Addr and starts the worker pool. The
// server does not begin accepting connections until Serve is called.
func New(ctx context.Context, config *Config) (*Server, error) {
	if config == nil || config.Engine == nil || config.Logger == nil || config.Addr == "" {
		return nil, kvserrors.NewValidationError(
			nil, kvserrors.ErrorCodeInvalidInput, "server configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	workers := config.WorkerPoolSize
	if workers <= 0 {
		workers = DefaultWorkerPoolSize
	}

	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return nil, kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "failed to bind listener").
			WithPath(config.Addr)
	}

	srv := &Server{
		log:   config.Logger,
		eng:   config.Engine,
		ln:    ln,
		conns: make(chan net.Conn),
		quit:  make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		srv.wg.Add(1)
		go srv.worker()
	}

	srv.log.Infow("server listening", "addr", ln.Addr().String(), "workers", workers)
	return srv, nil
}

// Addr returns the listener's bound address — useful for tests that bind to
// "127.0.0.1:0" and need to discover the assigned port.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Serve runs the accept loop until Close is called. The accept loop only
// hands connections to the worker pool; it never itself blocks on I/O for a
// single connection.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				return kvserrors.NewStorageError(err, kvserrors.ErrorCodeIO, "accept failed")
			}
		}

		select {
		case s.conns <- conn:
		case <-s.quit:
			_ = conn.Close()
			return nil
		}
	}
}

// Close stops the accept loop, closes the listener, and waits for in-flight
// connections to finish.
func (s *Server) Close() error {
	var err error
	s.closed.Do(func() {
		close(s.quit)
		err = s.ln.Close()
		close(s.conns)
		s.wg.Wait()
	})
	return err
}

// worker pulls connections off the shared channel and handles exactly one
// request/response round trip on each before closing it.
func (s *Server) worker() {
	defer s.wg.Done()
	for conn := range s.conns {
		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	req, err := codec.DecodeRequest(conn)
	if err != nil {
		s.log.Warnw("malformed request, closing connection", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	resp := s.dispatch(req)

	if err := codec.EncodeResponse(conn, resp); err != nil {
		s.log.Warnw("failed to write response", "remote", conn.RemoteAddr(), "error", err)
	}
}

// dispatch invokes the one engine method req names and maps the result onto
// a Response: engine success becomes the matching Ok variant, engine error
// becomes Err(message).
func (s *Server) dispatch(req codec.Request) codec.Response {
	ctx := context.Background()

	switch req.Tag {
	case codec.ReqGet:
		value, found, err := s.eng.Get(ctx, req.Key)
		if err != nil {
			s.logEngineError("get failed", req.Key, err)
			return codec.ErrResponse(err.Error())
		}
		return codec.GetOkResponse(value, found)

	case codec.ReqSet:
		if err := s.eng.Set(ctx, req.Key, req.Value); err != nil {
			s.logEngineError("set failed", req.Key, err)
			return codec.ErrResponse(err.Error())
		}
		return codec.SetOkResponse()

	case codec.ReqRemove:
		if err := s.eng.Remove(ctx, req.Key); err != nil {
			s.logEngineError("remove failed", req.Key, err)
			return codec.ErrResponse(err.Error())
		}
		return codec.RemoveOkResponse()

	default:
		return codec.ErrResponse("unknown request variant")
	}
}

// logEngineError reports a failed operation at a severity matched to the
// error's kind: storage and index failures point at operational problems
// (disk, corruption) and are logged as errors; validation failures are
// caller mistakes and are logged as warnings.
func (s *Server) logEngineError(msg, key string, err error) {
	fields := []any{
		"key", key,
		"code", kvserrors.GetErrorCode(err),
		"error", err,
	}
	for k, v := range kvserrors.GetErrorDetails(err) {
		fields = append(fields, k, v)
	}

	switch {
	case kvserrors.IsStorageError(err) || kvserrors.IsIndexError(err):
		s.log.Errorw(msg, fields...)
	case kvserrors.IsValidationError(err):
		s.log.Warnw(msg, fields...)
	default:
		s.log.Errorw(msg, fields...)
	}
}
