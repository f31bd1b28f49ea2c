package demux

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/e2b-dev/e2b-go/pkg/handle"
	"github.com/e2b-dev/e2b-go/pkg/process"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

// ptyDeps is the surface a PtyHandle needs from a process.Client.
type ptyDeps interface {
	SendSignal(ctx context.Context, pid uint32, signal process.Signal) error
	SendInput(ctx context.Context, pid uint32, stdin []byte) error
	UpdatePty(ctx context.Context, pid uint32, size process.PtySize) error
}

// StartPty fans a PTY event stream out into a live PtyHandle. Terminal
// output interleaves stdout and stderr by nature, so the handle exposes
// one combined Output channel rather than a stdout/stderr split.
func StartPty(ctx context.Context, deps ptyDeps, stream *rpcclient.MessageStream) (*handle.PtyHandle, error) {
	first, err := awaitStart(stream)
	if err != nil {
		stream.Close()
		return nil, err
	}
	pid := first.Pid

	outputIn, outputOut := unboundedPipe()
	result := handle.NewResult[int32]()

	go pumpPty(stream, outputIn, result)

	kill := func(ctx context.Context) error { return deps.SendSignal(ctx, pid, process.SignalSIGKILL) }
	resize := func(ctx context.Context, size process.PtySize) error { return deps.UpdatePty(ctx, pid, size) }
	sendInput := func(ctx context.Context, data []byte) error { return deps.SendInput(ctx, pid, data) }
	return handle.NewPtyHandle(pid, uuid.NewString(), outputOut, result, kill, resize, sendInput), nil
}

func pumpPty(stream *rpcclient.MessageStream, output chan<- []byte, result *handle.Result[int32]) {
	defer stream.Close()

	fail := func(err error) {
		close(output)
		result.Fail(err)
	}

	for {
		evt, err := process.DecodeEvent(stream)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fail(errors.New("demux: pty stream ended without an end event"))
				return
			}
			fail(err)
			return
		}
		switch {
		case evt.Data != nil:
			// The pty payload is the primary channel, but a server may
			// also emit stdout for a pty-backed process; forward both
			// to the one combined output channel.
			if len(evt.Data.Pty) > 0 {
				output <- evt.Data.Pty
			}
			if len(evt.Data.Stdout) > 0 {
				output <- evt.Data.Stdout
			}
		case evt.End != nil:
			close(output)
			if evt.End.Error != nil {
				result.Fail(errors.New(*evt.End.Error))
				return
			}
			result.Fill(evt.End.ExitCode)
			return
		}
	}
}
