package handle

import (
	"context"

	"github.com/e2b-dev/e2b-go/pkg/process"
)

// CommandHandle is the take-once handle returned by a started (not
// run-to-completion) command: separate stdout/stderr streams plus a
// single Wait result.
type CommandHandle struct {
	pid    uint32
	stdout *Stream[[]byte]
	stderr *Stream[[]byte]
	result *Result[process.CommandResult]

	kill      func(ctx context.Context) error
	sendInput func(ctx context.Context, data []byte) error
}

// NewCommandHandle assembles a CommandHandle from the channels and
// callbacks a demultiplexer goroutine drives. Callers never construct
// one directly outside pkg/demux.
func NewCommandHandle(
	pid uint32,
	stdout, stderr <-chan []byte,
	result *Result[process.CommandResult],
	kill func(ctx context.Context) error,
	sendInput func(ctx context.Context, data []byte) error,
) *CommandHandle {
	return &CommandHandle{
		pid:       pid,
		stdout:    NewStream(stdout),
		stderr:    NewStream(stderr),
		result:    result,
		kill:      kill,
		sendInput: sendInput,
	}
}

// Pid returns the process's assigned identifier.
func (h *CommandHandle) Pid() uint32 { return h.pid }

// Stdout returns the command's stdout channel. Only the first call
// succeeds; later calls return ok=false.
func (h *CommandHandle) Stdout() (<-chan []byte, bool) { return h.stdout.Take() }

// Stderr returns the command's stderr channel. Only the first call
// succeeds; later calls return ok=false.
func (h *CommandHandle) Stderr() (<-chan []byte, bool) { return h.stderr.Take() }

// Wait blocks until the command exits, returning its CommandResult. A
// second call returns ErrAlreadyTaken.
func (h *CommandHandle) Wait(ctx context.Context) (process.CommandResult, error) {
	return h.result.Wait(ctx)
}

// Kill sends SIGKILL to the command.
func (h *CommandHandle) Kill(ctx context.Context) error {
	return h.kill(ctx)
}

// SendInput writes data to the command's stdin.
func (h *CommandHandle) SendInput(ctx context.Context, data []byte) error {
	return h.sendInput(ctx, data)
}
