package e2b

import (
	"context"
	"errors"
	"time"

	"github.com/e2b-dev/e2b-go/pkg/demux"
	"github.com/e2b-dev/e2b-go/pkg/filesystem"
	"github.com/e2b-dev/e2b-go/pkg/handle"
	"github.com/e2b-dev/e2b-go/pkg/process"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

// FilesSurface is the sandbox's files method group, composing
// pkg/filesystem's RPC client with pkg/demux's watch demultiplexer.
type FilesSurface struct {
	rpc *filesystem.Client
}

func (f *FilesSurface) ListDir(ctx context.Context, path string) ([]filesystem.EntryInfo, error) {
	return f.rpc.ListDir(ctx, path, 1)
}

func (f *FilesSurface) Stat(ctx context.Context, path string) (filesystem.EntryInfo, error) {
	return f.rpc.Stat(ctx, path)
}

func (f *FilesSurface) Exists(ctx context.Context, path string) (bool, error) {
	return f.rpc.Exists(ctx, path)
}

func (f *FilesSurface) MakeDir(ctx context.Context, path string) (filesystem.EntryInfo, error) {
	return f.rpc.MakeDir(ctx, path)
}

func (f *FilesSurface) Rename(ctx context.Context, oldPath, newPath string) (filesystem.EntryInfo, error) {
	return f.rpc.Move(ctx, oldPath, newPath)
}

func (f *FilesSurface) Remove(ctx context.Context, path string) error {
	return f.rpc.Remove(ctx, path)
}

func (f *FilesSurface) Read(ctx context.Context, path string) ([]byte, error) {
	return f.rpc.Read(ctx, path)
}

func (f *FilesSurface) Write(ctx context.Context, path string, data []byte) error {
	return f.rpc.Write(ctx, path, data)
}

func (f *FilesSurface) WriteFiles(ctx context.Context, entries []filesystem.WriteEntry) error {
	return f.rpc.WriteFiles(ctx, entries)
}

// Watch opens a recursive (or shallow) watch on path, returning a
// take-once WatchHandle backed by a background demultiplexer goroutine.
func (f *FilesSurface) Watch(ctx context.Context, path string, recursive bool) (*handle.WatchHandle, error) {
	stream, err := f.rpc.WatchStream(ctx, path, recursive)
	if err != nil {
		return nil, err
	}
	return demux.Watch(stream), nil
}

// CommandsSurface is the sandbox's "run_*" method group, composing
// pkg/process's RPC client with pkg/demux's command demultiplexer.
type CommandsSurface struct {
	rpc *process.Client
}

// RunOptions configures a one-shot Run or a long-lived Start. A non-zero
// Timeout bounds the whole Run call; when exceeded, the stream is
// cancelled and a timeout error returned.
type RunOptions struct {
	Envs    map[string]string
	Cwd     string
	Tag     string
	Timeout time.Duration
}

// Run executes cmd to completion, collecting its full stdout/stderr.
// It never raises a non-zero exit; callers opt in via
// CommandResult.EnsureSuccess.
func (c *CommandsSurface) Run(ctx context.Context, cmd string, args []string, opts RunOptions) (process.CommandResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	stream, err := c.rpc.StartStream(ctx, process.StartOptions{
		Config: process.ProcessConfig{Cmd: cmd, Args: args, Envs: opts.Envs, Cwd: opts.Cwd},
		Tag:    opts.Tag,
	})
	if err != nil {
		return process.CommandResult{}, err
	}
	result, err := demux.Run(ctx, stream)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return process.CommandResult{}, &rpcclient.Error{Kind: rpcclient.KindTimeout, Message: "command timed out"}
	}
	return result, err
}

// RunShell executes command through a login shell, so pipes, redirects
// and environment expansion behave the way interactive callers expect.
func (c *CommandsSurface) RunShell(ctx context.Context, command string, opts RunOptions) (process.CommandResult, error) {
	return c.Run(ctx, "/bin/bash", []string{"-l", "-c", command}, opts)
}

// Start launches cmd without waiting for it to finish, returning a
// take-once CommandHandle fed by a background demultiplexer goroutine.
func (c *CommandsSurface) Start(ctx context.Context, cmd string, args []string, opts RunOptions) (*handle.CommandHandle, error) {
	stream, err := c.rpc.StartStream(ctx, process.StartOptions{
		Config: process.ProcessConfig{Cmd: cmd, Args: args, Envs: opts.Envs, Cwd: opts.Cwd},
		Tag:    opts.Tag,
	})
	if err != nil {
		return nil, err
	}
	return demux.Start(ctx, c.rpc, stream)
}

// StartShell launches command through a login shell without waiting for
// it to finish, returning a take-once CommandHandle.
func (c *CommandsSurface) StartShell(ctx context.Context, command string, opts RunOptions) (*handle.CommandHandle, error) {
	return c.Start(ctx, "/bin/bash", []string{"-l", "-c", command}, opts)
}

// List returns every running process (and PTY session) in the sandbox.
func (c *CommandsSurface) List(ctx context.Context) ([]process.ProcessInfo, error) {
	return c.rpc.List(ctx)
}

// Signal delivers an arbitrary signal to pid.
func (c *CommandsSurface) Signal(ctx context.Context, pid uint32, signal process.Signal) error {
	return c.rpc.SendSignal(ctx, pid, signal)
}

// SignalByTag delivers an arbitrary signal to the process started with
// tag (see RunOptions.Tag).
func (c *CommandsSurface) SignalByTag(ctx context.Context, tag string, signal process.Signal) error {
	return c.rpc.SendSignalByTag(ctx, tag, signal)
}

// Kill sends SIGKILL to pid.
func (c *CommandsSurface) Kill(ctx context.Context, pid uint32) error {
	return c.rpc.SendSignal(ctx, pid, process.SignalSIGKILL)
}

// SendStdin writes data to pid's stdin.
func (c *CommandsSurface) SendStdin(ctx context.Context, pid uint32, data []byte) error {
	return c.rpc.SendInput(ctx, pid, data)
}

// KillAll lists every running process and signals each with SIGKILL. It
// returns the first error encountered, continuing to attempt the
// remaining processes.
func (c *CommandsSurface) KillAll(ctx context.Context) error {
	procs, err := c.rpc.List(ctx)
	if err != nil {
		return err
	}
	var firstErr error
	for _, p := range procs {
		if signalErr := c.rpc.SendSignal(ctx, p.Pid, process.SignalSIGKILL); signalErr != nil && firstErr == nil {
			firstErr = signalErr
		}
	}
	return firstErr
}

// PtySurface is the sandbox's "pty_*" method group, composing
// pkg/process's RPC client with pkg/demux's PTY demultiplexer.
type PtySurface struct {
	rpc *process.Client
}

// Create starts cmd attached to a pseudo-terminal of the given size,
// defaulting to process.DefaultPtySize when size is the zero value.
func (p *PtySurface) Create(ctx context.Context, cmd string, args []string, size process.PtySize) (*handle.PtyHandle, error) {
	if size.Cols == 0 || size.Rows == 0 {
		size = process.DefaultPtySize
	}
	stream, err := p.rpc.StartStream(ctx, process.StartOptions{
		Config: process.ProcessConfig{Cmd: cmd, Args: args},
		Pty:    &size,
	})
	if err != nil {
		return nil, err
	}
	return demux.StartPty(ctx, p.rpc, stream)
}

// Resize updates the column/row geometry of the PTY attached to pid.
func (p *PtySurface) Resize(ctx context.Context, pid uint32, size process.PtySize) error {
	return p.rpc.UpdatePty(ctx, pid, size)
}

// Kill terminates the PTY session attached to pid.
func (p *PtySurface) Kill(ctx context.Context, pid uint32) error {
	return p.rpc.SendSignal(ctx, pid, process.SignalSIGKILL)
}
