package process

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e2b-dev/e2b-go/pkg/envelope"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

func TestListDecodesProcesses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process.Process/List", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"processes":[{"pid":7,"config":{"cmd":"sleep","args":["5"]}}]}`))
	}))
	defer srv.Close()

	c := New(rpcclient.New(srv.URL, srv.Client(), nil))
	procs, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, uint32(7), procs[0].Pid)
	assert.Equal(t, "sleep", procs[0].Cmd)
}

func TestSendSignalPostsSelector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendSignalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Process)
		require.NotNil(t, req.Process.Selector)
		assert.Equal(t, uint32(42), req.Process.Selector.Pid)
		assert.Equal(t, SignalSIGKILL, req.Signal)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(rpcclient.New(srv.URL, srv.Client(), nil))
	require.NoError(t, c.SendSignal(context.Background(), 42, SignalSIGKILL))
}

func TestStartStreamYieldsStartThenData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(envelope.Encode(0, []byte(`{"event":{"start":{"pid":9}}}`)))
		_, _ = w.Write(envelope.Encode(0, []byte(`{"event":{"data":{"stdout":"aGk="}}}`)))
		_, _ = w.Write(envelope.Encode(0, []byte(`{"event":{"end":{"exit_code":0}}}`)))
		_, _ = w.Write(envelope.Encode(envelope.FlagEndStream, nil))
	}))
	defer srv.Close()

	c := New(rpcclient.New(srv.URL, srv.Client(), nil))
	stream, err := c.StartStream(context.Background(), StartOptions{Config: ProcessConfig{Cmd: "echo", Args: []string{"hi"}}})
	require.NoError(t, err)
	defer stream.Close()

	evt, err := DecodeEvent(stream)
	require.NoError(t, err)
	require.NotNil(t, evt.Start)
	assert.Equal(t, uint32(9), evt.Start.Pid)

	evt, err = DecodeEvent(stream)
	require.NoError(t, err)
	require.NotNil(t, evt.Data)

	evt, err = DecodeEvent(stream)
	require.NoError(t, err)
	require.NotNil(t, evt.End)
	assert.Equal(t, int32(0), evt.End.ExitCode)
}
