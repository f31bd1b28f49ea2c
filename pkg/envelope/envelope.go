// Package envelope implements the framed-RPC wire format: a 5-byte header
// (1-byte flags, 4-byte big-endian length) followed by that many payload
// bytes. One envelope carries one logical message on a streaming response;
// a clean end-of-stream is an envelope with the end-of-stream flag set and
// an empty payload, an error end-of-stream carries a JSON error body.
package envelope

import (
	"encoding/binary"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

const (
	// FlagCompressed marks a compressed payload. Reserved; unsupported on
	// receive and must never be set on send.
	FlagCompressed byte = 0x01
	// FlagEndStream marks the final envelope of a stream.
	FlagEndStream byte = 0x02

	headerLen = 5
)

// Envelope is one frame on the wire: flags + length + payload.
type Envelope struct {
	Flags byte
	Data  []byte
}

// EndStream reports whether this envelope terminates the stream.
func (e Envelope) EndStream() bool { return e.Flags&FlagEndStream != 0 }

// Compressed reports whether the compressed flag is set.
func (e Envelope) Compressed() bool { return e.Flags&FlagCompressed != 0 }

// StreamError is the JSON shape carried in the data of an error
// end-of-stream envelope.
type StreamError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type streamErrorEnvelope struct {
	Error StreamError `json:"error"`
}

// Encode frames a single payload as one envelope's wire bytes.
func Encode(flags byte, payload []byte) []byte {
	buf := make([]byte, headerLen+len(payload))
	buf[0] = flags
	binary.BigEndian.PutUint32(buf[1:headerLen], uint32(len(payload)))
	copy(buf[headerLen:], payload)
	return buf
}

// Parser incrementally decodes a byte stream into a sequence of envelopes.
// It is chunk-agnostic: Next may be fed arbitrarily small reads of the
// underlying reader and still emits complete envelopes in order.
type Parser struct {
	r       io.Reader
	buf     []byte
	readErr error
}

// NewParser returns a Parser reading framed envelopes from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Next returns the next envelope, decoding a compressed-flag envelope as
// ErrUnsupportedEncoding and a non-empty error end-of-stream envelope as
// *StreamError. Next returns io.EOF on an empty end-of-stream envelope
// (a clean close) or once the underlying reader is exhausted with no
// buffered bytes left.
func (p *Parser) Next() (Envelope, error) {
	for {
		env, ok, err := p.tryParse()
		if err != nil {
			return Envelope{}, err
		}
		if ok {
			return env, nil
		}
		if p.readErr != nil {
			if len(p.buf) > 0 {
				return Envelope{}, io.ErrUnexpectedEOF
			}
			return Envelope{}, p.readErr
		}
		chunk := make([]byte, 32*1024)
		n, err := p.r.Read(chunk)
		if n > 0 {
			p.buf = append(p.buf, chunk[:n]...)
		}
		if err != nil {
			p.readErr = err
		}
	}
}

func (p *Parser) tryParse() (Envelope, bool, error) {
	if len(p.buf) < headerLen {
		return Envelope{}, false, nil
	}
	flags := p.buf[0]
	length := binary.BigEndian.Uint32(p.buf[1:headerLen])
	total := headerLen + int(length)
	if len(p.buf) < total {
		return Envelope{}, false, nil
	}
	data := make([]byte, length)
	copy(data, p.buf[headerLen:total])
	p.buf = p.buf[total:]

	if flags&FlagCompressed != 0 {
		return Envelope{}, false, ErrUnsupportedEncoding
	}
	if flags&FlagEndStream != 0 {
		if len(data) == 0 {
			return Envelope{}, false, io.EOF
		}
		var wrapped streamErrorEnvelope
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return Envelope{}, false, fmt.Errorf("envelope: decode end-of-stream error: %w", err)
		}
		return Envelope{}, false, &wrapped.Error
	}
	return Envelope{Flags: flags, Data: data}, true, nil
}

// ErrUnsupportedEncoding is returned when a received envelope sets the
// compressed flag; this implementation never negotiates compression.
var ErrUnsupportedEncoding = fmt.Errorf("envelope: compressed payloads are not supported")

func (e *StreamError) Error() string {
	return fmt.Sprintf("envelope: end-of-stream error %d: %s", e.Code, e.Message)
}
