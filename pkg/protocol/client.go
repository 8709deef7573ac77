package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// DefaultAddr is the bridge server's default endpoint.
const DefaultAddr = "localhost:9877"

var (
	// ErrNotConnected is returned when a command is attempted and a
	// connection cannot be established.
	ErrNotConnected = errors.New("not connected to bridge host")
	// ErrStreamEnded is returned when the peer closes the stream before a
	// complete response document was assembled.
	ErrStreamEnded = errors.New("unexpected end of stream")
)

// RemoteError carries the message of a status:"error" response from the host.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Client owns a single persistent connection to the bridge server and
// provides a synchronous send-command primitive. Calls are serialized; the
// protocol allows at most one in-flight command per connection.
type Client struct {
	addr        string
	dialTimeout time.Duration
	probe       string

	mu   sync.Mutex
	conn net.Conn
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.dialTimeout = d }
}

// WithProbeCommand overrides the idempotent command IsAlive issues.
func WithProbeCommand(name string) ClientOption {
	return func(c *Client) { c.probe = name }
}

// NewClient creates a client for the given address. The connection is not
// established until the first command or an explicit Connect.
func NewClient(addr string, opts ...ClientOption) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	c := &Client{
		addr:        addr,
		dialTimeout: 5 * time.Second,
		probe:       "get_project_info",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the configured server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect establishes the connection if there is none. Idempotent when
// already connected; on failure the client stays disconnected so a later
// call can retry.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	c.conn = conn
	return nil
}

// Disconnect closes the connection if open. Always safe to call; close
// errors are swallowed and the connection reference is cleared regardless.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// IsConnected reports whether a connection is currently held.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// IsAlive issues the configured lightweight probe command and reports
// whether it succeeded. A false result leaves the client disconnected.
func (c *Client) IsAlive() bool {
	_, err := c.SendCommand(c.probe, nil)
	return err == nil
}

// SendCommand encodes one command, writes it to the socket, and blocks
// until a complete response document is parsed. On success it returns the
// result field (an empty JSON object when absent); a status:"error"
// response is returned as a *RemoteError. Any transport failure invalidates
// the cached connection so the next call starts fresh.
func (c *Client) SendCommand(cmdType string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	cmd := Command{Type: cmdType}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		cmd.Params = raw
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}

	if _, err := c.conn.Write(payload); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("send command: %w", err)
	}

	resp, err := c.readResponse()
	if err != nil {
		c.dropLocked()
		return nil, err
	}
	if resp.Status == StatusError {
		message := resp.Message
		if message == "" {
			message = "unknown error from bridge host"
		}
		return nil, &RemoteError{Message: message}
	}
	if len(resp.Result) == 0 {
		return json.RawMessage("{}"), nil
	}
	return resp.Result, nil
}

// readResponse accumulates bytes until they parse as one JSON document.
// Reads are deliberately unbounded in time; the protocol has no response
// deadline once a command is in flight.
func (c *Client) readResponse() (*Response, error) {
	var acc Accumulator
	buf := make([]byte, readChunkSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			acc.Feed(buf[:n])
			doc, perr := acc.Next()
			if perr == nil {
				var resp Response
				if uerr := json.Unmarshal(doc, &resp); uerr != nil {
					return nil, fmt.Errorf("decode response: %w", uerr)
				}
				return &resp, nil
			}
			if !errors.Is(perr, ErrIncomplete) {
				return nil, perr
			}
		}
		if err == io.EOF {
			return nil, ErrStreamEnded
		}
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
	}
}
