package demux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e2b-dev/e2b-go/pkg/envelope"
	"github.com/e2b-dev/e2b-go/pkg/process"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

type fakeCommandDeps struct {
	signalled chan process.Signal
	input     chan []byte
}

func (f *fakeCommandDeps) SendSignal(ctx context.Context, pid uint32, signal process.Signal) error {
	f.signalled <- signal
	return nil
}

func (f *fakeCommandDeps) SendInput(ctx context.Context, pid uint32, stdin []byte) error {
	f.input <- stdin
	return nil
}

func startStreamServer(t *testing.T, frames ...[]byte) (*process.Client, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			_, _ = w.Write(f)
		}
	}))
	return process.New(rpcclient.New(srv.URL, srv.Client(), nil)), srv.Close
}

func TestRunCollectsOutputAndExit(t *testing.T) {
	client, closeFn := startStreamServer(t,
		envelope.Encode(0, []byte(`{"event":{"start":{"pid":1}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stdout":"aGVsbG8="}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stderr":"b29wcw=="}}}`)),
		envelope.Encode(0, []byte(`{"event":{"end":{"exit_code":0}}}`)),
		envelope.Encode(envelope.FlagEndStream, nil),
	)
	defer closeFn()

	stream, err := client.StartStream(context.Background(), process.StartOptions{Config: process.ProcessConfig{Cmd: "echo"}})
	require.NoError(t, err)

	result, err := Run(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Stdout)
	assert.Equal(t, "oops", result.Stderr)
	assert.Equal(t, int32(0), result.ExitCode)
	assert.True(t, result.Success())
}

func TestRunSurfacesPrematureStreamClose(t *testing.T) {
	client, closeFn := startStreamServer(t,
		envelope.Encode(0, []byte(`{"event":{"start":{"pid":1}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stdout":"cGFydGlhbA=="}}}`)),
		envelope.Encode(envelope.FlagEndStream, nil),
	)
	defer closeFn()

	stream, err := client.StartStream(context.Background(), process.StartOptions{Config: process.ProcessConfig{Cmd: "cat"}})
	require.NoError(t, err)

	result, err := Run(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "partial", result.Stdout)
	assert.Equal(t, int32(0), result.ExitCode)
	assert.Equal(t, "stream closed", result.Error)
	assert.False(t, result.Success())
}

func TestStartReturnsHandleAndPumpsChannels(t *testing.T) {
	client, closeFn := startStreamServer(t,
		envelope.Encode(0, []byte(`{"event":{"start":{"pid":55}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stdout":"aGk="}}}`)),
		envelope.Encode(0, []byte(`{"event":{"end":{"exit_code":1}}}`)),
		envelope.Encode(envelope.FlagEndStream, nil),
	)
	defer closeFn()

	stream, err := client.StartStream(context.Background(), process.StartOptions{Config: process.ProcessConfig{Cmd: "sh"}})
	require.NoError(t, err)

	deps := &fakeCommandDeps{signalled: make(chan process.Signal, 1), input: make(chan []byte, 1)}
	h, err := Start(context.Background(), deps, stream)
	require.NoError(t, err)
	assert.Equal(t, uint32(55), h.Pid())

	stdout, ok := h.Stdout()
	require.True(t, ok)
	assert.Equal(t, []byte("hi"), <-stdout)

	_, ok = h.Stdout()
	assert.False(t, ok, "second Stdout() call must fail")

	result, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), result.ExitCode)

	require.NoError(t, h.SendInput(context.Background(), []byte("x")))
	assert.Equal(t, []byte("x"), <-deps.input)
}

func TestWaitWithoutDrainingChannels(t *testing.T) {
	client, closeFn := startStreamServer(t,
		envelope.Encode(0, []byte(`{"event":{"start":{"pid":8}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stdout":"b25l"}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stdout":"dHdv"}}}`)),
		envelope.Encode(0, []byte(`{"event":{"data":{"stderr":"ZXJy"}}}`)),
		envelope.Encode(0, []byte(`{"event":{"end":{"exit_code":0}}}`)),
		envelope.Encode(envelope.FlagEndStream, nil),
	)
	defer closeFn()

	stream, err := client.StartStream(context.Background(), process.StartOptions{Config: process.ProcessConfig{Cmd: "sh"}})
	require.NoError(t, err)

	deps := &fakeCommandDeps{signalled: make(chan process.Signal, 1), input: make(chan []byte, 1)}
	h, err := Start(context.Background(), deps, stream)
	require.NoError(t, err)

	// Never take stdout/stderr; the accumulated totals must still arrive
	// through the exit slot.
	result, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "onetwo", result.Stdout)
	assert.Equal(t, "err", result.Stderr)
	assert.Equal(t, int32(0), result.ExitCode)
}

func TestUnboundedPipeBuffersAndCloses(t *testing.T) {
	in, out := unboundedPipe()
	for i := 0; i < 100; i++ {
		in <- []byte{byte(i)}
	}
	close(in)

	var got []byte
	for chunk := range out {
		got = append(got, chunk...)
	}
	require.Len(t, got, 100)
	assert.Equal(t, byte(0), got[0])
	assert.Equal(t, byte(99), got[99])
}
