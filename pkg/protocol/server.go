package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// acceptTimeout bounds each Accept call so the running flag stays observable.
const acceptTimeout = time.Second

// HandlerFunc executes one command against host state. The returned value
// must be JSON-serializable; a non-nil error becomes an error response with
// the error text as its message.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Server accepts one client connection at a time, frames inbound commands,
// routes them through the handler registry, and writes responses back on
// the same connection.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   Logger

	ln      *net.TCPListener
	running atomic.Bool
	wg      sync.WaitGroup

	connMu sync.Mutex
	conn   net.Conn
}

// NewServer constructs a server with an empty handler registry.
func NewServer(logger Logger) *Server {
	return &Server{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register installs a handler for a command type. The registry is expected
// to be populated before Start and left alone afterwards.
func (s *Server) Register(name string, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = handler
}

// Start binds the listener and launches the accept loop in the background.
func (s *Server) Start(ctx context.Context, addr string) error {
	if s == nil {
		return errors.New("nil server")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln.(*net.TCPListener)
	s.running.Store(true)
	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop clears the running flag, closes the listener and any accepted
// connection, then waits for the accept loop to drain. Closing the client
// socket unblocks a read loop sitting in a deadline-free Read. Safe to call
// more than once.
func (s *Server) Stop() {
	if !s.running.Swap(false) {
		return
	}
	if s.ln != nil {
		s.ln.Close()
	}
	s.setConn(nil)
	s.wg.Wait()
}

// setConn records the accepted connection, closing any previous one.
func (s *Server) setConn(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
}

// acceptLoop serves clients strictly one at a time. Each accept is bounded
// by a short deadline so shutdown is observed between clients.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for s.running.Load() && ctx.Err() == nil {
		if err := s.ln.SetDeadline(time.Now().Add(acceptTimeout)); err != nil {
			return
		}
		conn, err := s.ln.Accept()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if !s.running.Load() || ctx.Err() != nil {
				return
			}
			s.logf("accept error: %v", err)
			continue
		}
		s.logf("client connected: %s", conn.RemoteAddr())
		s.serveClient(ctx, conn)
	}
}

// serveClient runs the per-connection read loop until the peer closes, an
// unrecoverable socket error occurs, or the server is stopped.
func (s *Server) serveClient(ctx context.Context, conn net.Conn) {
	s.setConn(conn)
	defer s.setConn(nil)

	var acc Accumulator
	buf := make([]byte, readChunkSize)
	for s.running.Load() {
		n, err := conn.Read(buf)
		if n > 0 {
			acc.Feed(buf[:n])
			if done := s.drainCommands(ctx, conn, &acc); done {
				return
			}
		}
		if err == io.EOF {
			s.logf("client disconnected")
			return
		}
		if err != nil {
			// A read error after Stop is the closed socket, not a fault.
			if s.running.Load() {
				s.logf("client read error: %v", err)
			}
			return
		}
	}
}

// drainCommands dispatches every complete document already buffered.
// Returns true when the connection should be dropped.
func (s *Server) drainCommands(ctx context.Context, conn net.Conn, acc *Accumulator) bool {
	for {
		doc, err := acc.Next()
		if errors.Is(err, ErrIncomplete) {
			return false
		}
		if err != nil {
			// The buffer can never become a valid document; report and
			// discard it so the connection stays usable.
			s.logf("protocol error: %v", err)
			acc.Reset()
			if werr := s.writeResponse(conn, Response{Status: StatusError, Message: err.Error()}); werr != nil {
				return true
			}
			return false
		}
		resp := s.Dispatch(ctx, doc)
		if err := s.writeResponse(conn, resp); err != nil {
			s.logf("write response: %v", err)
			return true
		}
	}
}

// Dispatch decodes one command document, routes it to the registered
// handler, and wraps the outcome as a response. Handler failures of any
// kind are converted to error responses and never escape.
func (s *Server) Dispatch(ctx context.Context, doc json.RawMessage) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("handler panic: %v", r)
			resp = Response{Status: StatusError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	var cmd Command
	if err := json.Unmarshal(doc, &cmd); err != nil {
		return Response{Status: StatusError, Message: fmt.Sprintf("malformed command: %v", err)}
	}

	handler := s.lookupHandler(cmd.Type)
	if handler == nil {
		s.logf("unknown command type: %q", cmd.Type)
		return Response{Status: StatusError, Message: "Unknown command type: " + cmd.Type}
	}

	params := cmd.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	result, err := handler(ctx, params)
	if err != nil {
		s.logf("command %s failed: %v", cmd.Type, err)
		return Response{Status: StatusError, Message: err.Error()}
	}
	raw, err := json.Marshal(result)
	if err != nil {
		s.logf("command %s result not serializable: %v", cmd.Type, err)
		return Response{Status: StatusError, Message: fmt.Sprintf("result not serializable: %v", err)}
	}
	return Response{Status: StatusSuccess, Result: raw}
}

func (s *Server) lookupHandler(name string) HandlerFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[name]
}

func (s *Server) writeResponse(conn net.Conn, resp Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = conn.Write(payload)
	return err
}

func (s *Server) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Printf(format, v...)
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
