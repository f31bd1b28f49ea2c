// Package demux implements the fan-out goroutines that turn one
// framed-RPC event stream into either a single collected CommandResult
// (Run) or a live multi-channel handle (Start/StartPty/Watch): one
// producer goroutine per stream feeding consumer-owned channels.
package demux

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/e2b-dev/e2b-go/pkg/handle"
	"github.com/e2b-dev/e2b-go/pkg/process"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

// Run drives a process event stream to completion, collecting stdout and
// stderr in full and returning the final CommandResult. It never raises
// a non-zero exit as an error; callers opt in via
// CommandResult.EnsureSuccess. A stream that closes before delivering an
// end event returns the accumulated output with a zero exit code and
// Error set to "stream closed".
func Run(ctx context.Context, stream *rpcclient.MessageStream) (process.CommandResult, error) {
	defer stream.Close()

	var stdout, stderr bytes.Buffer
	for {
		evt, err := process.DecodeEvent(stream)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return process.CommandResult{Stdout: stdout.String(), Stderr: stderr.String(), Error: errStreamClosed}, nil
			}
			return process.CommandResult{}, err
		}
		switch {
		case evt.Data != nil:
			stdout.Write(evt.Data.Stdout)
			stderr.Write(evt.Data.Stderr)
		case evt.End != nil:
			result := process.CommandResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: evt.End.ExitCode}
			if evt.End.Error != nil {
				result.Error = *evt.End.Error
			}
			return result, nil
		}
	}
}

// commandDeps is the small surface Start needs from a process.Client to
// back a CommandHandle's Kill/SendInput without importing it by name
// (keeps demux decoupled from the concrete transport).
type commandDeps interface {
	SendSignal(ctx context.Context, pid uint32, signal process.Signal) error
	SendInput(ctx context.Context, pid uint32, stdin []byte) error
}

// Start fans a process event stream out into a live CommandHandle: the
// caller gets the handle back as soon as the stream's StartEvent arrives,
// with a background goroutine continuing to pump stdout/stderr/exit.
func Start(ctx context.Context, deps commandDeps, stream *rpcclient.MessageStream) (*handle.CommandHandle, error) {
	first, err := awaitStart(stream)
	if err != nil {
		stream.Close()
		return nil, err
	}
	pid := first.Pid

	stdoutIn, stdoutOut := unboundedPipe()
	stderrIn, stderrOut := unboundedPipe()
	result := handle.NewResult[process.CommandResult]()

	go pumpCommand(stream, stdoutIn, stderrIn, result)

	kill := func(ctx context.Context) error { return deps.SendSignal(ctx, pid, process.SignalSIGKILL) }
	sendInput := func(ctx context.Context, data []byte) error { return deps.SendInput(ctx, pid, data) }
	return handle.NewCommandHandle(pid, stdoutOut, stderrOut, result, kill, sendInput), nil
}

const errStreamClosed = "stream closed"

// awaitStart pulls events off a freshly opened stream until the
// StartEvent carrying the pid arrives, skipping keepalive frames.
func awaitStart(stream *rpcclient.MessageStream) (*process.StartEvent, error) {
	for {
		evt, err := process.DecodeEvent(stream)
		if err != nil {
			return nil, err
		}
		switch {
		case evt.Start != nil:
			return evt.Start, nil
		case evt.Data == nil && evt.End == nil:
			continue
		default:
			return nil, errors.New("demux: expected start event, got something else")
		}
	}
}

func pumpCommand(stream *rpcclient.MessageStream, stdout, stderr chan<- []byte, result *handle.Result[process.CommandResult]) {
	defer stream.Close()

	// The exit slot is filled only after both channels are closed, so a
	// consumer that drains stdout/stderr to completion observes Wait
	// resolve strictly afterwards.
	finish := func(final process.CommandResult) {
		close(stdout)
		close(stderr)
		result.Fill(final)
	}

	var outBuf, errBuf bytes.Buffer
	for {
		evt, err := process.DecodeEvent(stream)
		if err != nil {
			if errors.Is(err, io.EOF) {
				finish(process.CommandResult{Stdout: outBuf.String(), Stderr: errBuf.String(), Error: errStreamClosed})
				return
			}
			finish(process.CommandResult{Stdout: outBuf.String(), Stderr: errBuf.String(), Error: err.Error()})
			return
		}
		switch {
		case evt.Data != nil:
			if len(evt.Data.Stdout) > 0 {
				outBuf.Write(evt.Data.Stdout)
				stdout <- evt.Data.Stdout
			}
			if len(evt.Data.Stderr) > 0 {
				errBuf.Write(evt.Data.Stderr)
				stderr <- evt.Data.Stderr
			}
		case evt.End != nil:
			final := process.CommandResult{Stdout: outBuf.String(), Stderr: errBuf.String(), ExitCode: evt.End.ExitCode}
			if evt.End.Error != nil {
				final.Error = *evt.End.Error
			}
			finish(final)
			return
		}
	}
}
