package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// readChunkSize matches the peer's receive buffer size.
const readChunkSize = 8192

// ErrIncomplete reports that the accumulated bytes are a prefix of a JSON
// document that has not fully arrived yet.
var ErrIncomplete = errors.New("incomplete json document")

// Accumulator assembles complete JSON documents from a byte stream that
// carries no length prefix or delimiter. Bytes are fed in as they arrive;
// Next returns one document as soon as the buffer holds one. Trailing bytes
// after a decoded document are retained for the next message rather than
// discarded with the consumed prefix.
type Accumulator struct {
	buf []byte
}

// Feed appends a received chunk to the pending buffer.
func (a *Accumulator) Feed(p []byte) {
	a.buf = append(a.buf, p...)
}

// Len reports the number of pending bytes.
func (a *Accumulator) Len() int {
	return len(a.buf)
}

// Reset discards all pending bytes.
func (a *Accumulator) Reset() {
	a.buf = a.buf[:0]
}

// Next attempts to decode one complete JSON document from the pending
// buffer. It returns ErrIncomplete when the buffer holds only a prefix of a
// document, and a decode error when the buffer can never become one.
func (a *Accumulator) Next() (json.RawMessage, error) {
	if len(bytes.TrimSpace(a.buf)) == 0 {
		return nil, ErrIncomplete
	}
	dec := json.NewDecoder(bytes.NewReader(a.buf))
	var doc json.RawMessage
	err := dec.Decode(&doc)
	if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
		// A truncated document reads as unexpected EOF; keep buffering.
		return nil, ErrIncomplete
	}
	if err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	rest := a.buf[dec.InputOffset():]
	a.buf = append(a.buf[:0:0], bytes.TrimLeft(rest, " \t\r\n")...)
	return doc, nil
}
