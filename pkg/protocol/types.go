package protocol

import "encoding/json"

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Command names a bridge operation and carries its keyword parameters.
type Command struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the per-command reply. Exactly one of Result and Message is
// meaningful, selected by Status.
type Response struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Logger is satisfied by logging.Logger; kept minimal to avoid dependency cycles.
type Logger interface {
	Printf(format string, v ...any)
}
