package envelope

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("hello"),
		bytes.Repeat([]byte("x"), 70000),
	}
	for _, p := range payloads {
		wire := Encode(0, p)
		parser := NewParser(bytes.NewReader(wire))
		env, err := parser.Next()
		require.NoError(t, err)
		assert.Equal(t, byte(0), env.Flags)
		assert.Equal(t, p, env.Data)

		_, err = parser.Next()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestParserIsChunkAgnostic(t *testing.T) {
	wire := Encode(0, []byte("hello"))
	wire = append(wire, Encode(0, []byte("world"))...)

	chunks := [][]byte{
		wire[:1],
		wire[1:5],
		wire[5:7],
		wire[7:9],
		wire[9:],
	}
	r := &chunkedReader{chunks: chunks}
	parser := NewParser(r)

	env1, err := parser.Next()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(env1.Data))

	env2, err := parser.Next()
	require.NoError(t, err)
	assert.Equal(t, "world", string(env2.Data))

	_, err = parser.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestEndOfStreamErrorBody(t *testing.T) {
	body := []byte(`{"error":{"code":404,"message":"not found"}}`)
	wire := Encode(FlagEndStream, body)
	parser := NewParser(bytes.NewReader(wire))

	_, err := parser.Next()
	require.Error(t, err)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, 404, streamErr.Code)
	assert.Equal(t, "not found", streamErr.Message)
}

func TestEmptyEndOfStreamIsCleanClose(t *testing.T) {
	wire := Encode(0, []byte("data"))
	wire = append(wire, Encode(FlagEndStream, nil)...)
	parser := NewParser(bytes.NewReader(wire))

	env, err := parser.Next()
	require.NoError(t, err)
	assert.Equal(t, "data", string(env.Data))

	_, err = parser.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCompressedFlagRejected(t *testing.T) {
	wire := Encode(FlagCompressed, []byte("x"))
	parser := NewParser(bytes.NewReader(wire))
	_, err := parser.Next()
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestTruncatedStreamIsUnexpectedEOF(t *testing.T) {
	wire := Encode(0, []byte("hello"))
	parser := NewParser(bytes.NewReader(wire[:3]))
	_, err := parser.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

type chunkedReader struct {
	chunks [][]byte
	idx    int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.idx >= len(r.chunks) {
		return 0, io.EOF
	}
	chunk := r.chunks[r.idx]
	r.idx++
	n := copy(p, chunk)
	return n, nil
}
