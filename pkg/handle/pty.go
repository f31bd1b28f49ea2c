package handle

import (
	"context"

	"github.com/e2b-dev/e2b-go/pkg/process"
)

// PtyHandle is the take-once handle returned by a started PTY session: a
// single combined output stream (terminal output interleaves stdout and
// stderr by nature) plus resize and input.
type PtyHandle struct {
	pid    uint32
	ptyID  string
	output *Stream[[]byte]
	result *Result[int32]

	kill      func(ctx context.Context) error
	resize    func(ctx context.Context, size process.PtySize) error
	sendInput func(ctx context.Context, data []byte) error
}

// NewPtyHandle assembles a PtyHandle from the channel and callbacks a
// demultiplexer goroutine drives. ptyID is a locally generated identifier
// used to correlate this session in logs and caller-side bookkeeping;
// the agent only ever sees the pid. result holds only the exit code,
// unlike CommandHandle's full Wait result.
func NewPtyHandle(
	pid uint32,
	ptyID string,
	output <-chan []byte,
	result *Result[int32],
	kill func(ctx context.Context) error,
	resize func(ctx context.Context, size process.PtySize) error,
	sendInput func(ctx context.Context, data []byte) error,
) *PtyHandle {
	return &PtyHandle{
		pid:       pid,
		ptyID:     ptyID,
		output:    NewStream(output),
		result:    result,
		kill:      kill,
		resize:    resize,
		sendInput: sendInput,
	}
}

// Pid returns the PTY's assigned process identifier.
func (h *PtyHandle) Pid() uint32 { return h.pid }

// PtyID returns this session's locally generated correlation id.
func (h *PtyHandle) PtyID() string { return h.ptyID }

// Output returns the PTY's combined output channel. Only the first call
// succeeds; later calls return ok=false.
func (h *PtyHandle) Output() (<-chan []byte, bool) { return h.output.Take() }

// Wait blocks until the PTY's shell exits, returning its exit code.
func (h *PtyHandle) Wait(ctx context.Context) (int32, error) {
	return h.result.Wait(ctx)
}

// Kill terminates the PTY session.
func (h *PtyHandle) Kill(ctx context.Context) error {
	return h.kill(ctx)
}

// Resize updates the PTY's column/row geometry.
func (h *PtyHandle) Resize(ctx context.Context, size process.PtySize) error {
	return h.resize(ctx, size)
}

// SendInput writes keystrokes to the PTY.
func (h *PtyHandle) SendInput(ctx context.Context, data []byte) error {
	return h.sendInput(ctx, data)
}
