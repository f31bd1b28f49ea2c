package rpcclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e2b-dev/e2b-go/pkg/envelope"
)

func TestUnaryDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.Header.Get("connect-protocol-version"))
		assert.Equal(t, "application/json", r.Header.Get("content-type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"greeting":"hi"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	var resp struct {
		Greeting string `json:"greeting"`
	}
	err := c.Unary(context.Background(), "svc", "Method", map[string]string{"x": "y"}, &resp)
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Greeting)
}

func TestUnaryMapsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":429,"message":"too many"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	err := c.Unary(context.Background(), "svc", "Method", nil, &struct{}{})
	require.Error(t, err)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, KindRateLimit, rpcErr.Kind)
	assert.Equal(t, "too many", rpcErr.Message)
}

func TestStreamYieldsMessagesThenEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/connect+json", r.Header.Get("content-type"))
		assert.Equal(t, "30", r.Header.Get("connect-keepalive-ping"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(envelope.Encode(0, []byte(`{"n":1}`)))
		_, _ = w.Write(envelope.Encode(0, []byte(`{"n":2}`)))
		_, _ = w.Write(envelope.Encode(envelope.FlagEndStream, nil))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	stream, err := c.Stream(context.Background(), "svc", "Method", map[string]string{})
	require.NoError(t, err)
	defer stream.Close()

	var msg struct {
		N int `json:"n"`
	}
	require.NoError(t, stream.Next(&msg))
	assert.Equal(t, 1, msg.N)
	require.NoError(t, stream.Next(&msg))
	assert.Equal(t, 2, msg.N)

	err = stream.Next(&msg)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamStatusErrorSurfacedImmediately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("sandbox not found"))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client(), nil)
	_, err := c.Stream(context.Background(), "svc", "Method", map[string]string{})
	require.Error(t, err)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, KindNotFound, rpcErr.Kind)
}
