// File: rpc/server.go
// Author: momentics <momentics@gmail.com>
//
// Server is a JSON-RPC 2.0 method registry exposed both as a plain
// http.Handler and, via Listen (conn_unix.go/listener_unix.go), as a
// selector.Selector-driven listener, grounded on
// original_source/test/jsonrpchttp-test.cpp's registerMethod/HttpService
// pair and structurally on the teacher's facade.Config/Control surface
// (immutable construction, explicit registration calls rather than
// reflection-driven auto-wiring). Handler execution itself never runs on
// whatever goroutine calls dispatch directly: it is handed to a small
// worker pool (core/concurrency.Executor) so neither the net/http request
// goroutine nor, more importantly, the single reactor goroutine driving
// Selector.Wait over a Listen-managed listener ever blocks on handler
// work, per spec.md §5 ("they may not block the reactor").

package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/deniskin82/goselector/core/concurrency"
)

// HandlerFunc handles one JSON-RPC method call. It receives the raw
// "params" member and returns a result to be marshaled back, or an error.
// An error that is a *Fault is reported with its own code/message; any
// other error is wrapped as CodeInternalError without leaking its text
// verbatim to the caller, logged instead via the server's logger.
type HandlerFunc func(params json.RawMessage) (any, error)

// Server dispatches JSON-RPC 2.0 requests arriving as HTTP POST bodies to
// registered methods. The zero value is not usable; construct with
// NewServer.
type Server struct {
	mu       sync.RWMutex
	methods  map[string]HandlerFunc
	logger   *log.Logger
	executor *concurrency.Executor
}

// NewServer constructs an empty method registry and its handler worker
// pool. logger may be nil, in which case internal errors are not logged
// (only reported to the caller as CodeInternalError). The worker pool
// defaults to one worker per CPU with NUMA pinning disabled (-1); use
// SetExecutor to install a differently sized or pinned pool before
// serving any request.
func NewServer(logger *log.Logger) *Server {
	return &Server{
		methods:  make(map[string]HandlerFunc),
		logger:   logger,
		executor: concurrency.NewExecutor(0, -1),
	}
}

// SetExecutor replaces the handler worker pool, closing the previous one.
// Must be called before the server starts accepting requests.
func (s *Server) SetExecutor(e *concurrency.Executor) {
	s.mu.Lock()
	old := s.executor
	s.executor = e
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Close shuts down the handler worker pool. Safe to call once.
func (s *Server) Close() {
	s.mu.RLock()
	e := s.executor
	s.mu.RUnlock()
	if e != nil {
		e.Close()
	}
}

// Register adds or replaces the handler for method name.
func (s *Server) Register(name string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods[name] = h
}

// ServeHTTP implements http.Handler: it decodes exactly one JSON-RPC 2.0
// Request from the body, dispatches it, and writes exactly one Response.
// Batched requests are not supported (Non-goal: this package targets the
// single pipelined-call client in this repo, not a general-purpose
// JSON-RPC batch server).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeFault(w, 0, NewFault(CodeParseError, "failed to read request body"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeFault(w, 0, NewFault(CodeParseError, "invalid JSON"))
		return
	}

	resp := s.dispatch(req)
	json.NewEncoder(w).Encode(resp)
}

// dispatch resolves req's method and runs its handler on the worker
// pool, blocking the caller until the handler completes. Both ServeHTTP
// and the selector-driven pipelinedConn path (conn_unix.go) share this so
// a method behaves identically regardless of which front end served it.
func (s *Server) dispatch(req Request) Response {
	if req.JSONRPC != "" && req.JSONRPC != protocolVersion {
		return s.faultResponse(req.ID, NewFault(CodeInvalidRequest, "unsupported jsonrpc version"))
	}

	s.mu.RLock()
	h, ok := s.methods[req.Method]
	executor := s.executor
	s.mu.RUnlock()
	if !ok {
		return s.faultResponse(req.ID, NewFault(CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method)))
	}

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)
	submitErr := executor.Submit(func() {
		result, err := h(req.Params)
		done <- outcome{result, err}
	})
	if submitErr != nil {
		return s.faultResponse(req.ID, NewFault(CodeInternalError, "handler pool unavailable"))
	}
	out := <-done

	if out.err != nil {
		if f, ok := out.err.(*Fault); ok {
			return s.faultResponse(req.ID, f)
		}
		if s.logger != nil {
			s.logger.Printf("rpc: method %q handler error: %v", req.Method, out.err)
		}
		return s.faultResponse(req.ID, NewFault(CodeInternalError, "internal error"))
	}

	raw, err := json.Marshal(out.result)
	if err != nil {
		return s.faultResponse(req.ID, NewFault(CodeInternalError, "failed to marshal result"))
	}
	return Response{JSONRPC: protocolVersion, Result: raw, ID: req.ID}
}

func (s *Server) faultResponse(id int64, f *Fault) Response {
	return Response{JSONRPC: protocolVersion, Error: f, ID: id}
}

func (s *Server) writeFault(w http.ResponseWriter, id int64, f *Fault) {
	json.NewEncoder(w).Encode(s.faultResponse(id, f))
}
