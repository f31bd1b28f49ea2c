package process

import (
	"context"

	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

const serviceName = "process.Process"

// Client is the typed process RPC surface: list, signal, start, connect,
// send-input and PTY resize, all over a shared *rpcclient.Client bound
// to one sandbox's agent.
type Client struct {
	rpc *rpcclient.Client
}

// New wraps rpc as a process client.
func New(rpc *rpcclient.Client) *Client {
	return &Client{rpc: rpc}
}

// List returns every running process and PTY session in the sandbox.
func (c *Client) List(ctx context.Context) ([]ProcessInfo, error) {
	var resp listResponse
	if err := c.rpc.Unary(ctx, serviceName, "List", struct{}{}, &resp); err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(resp.Processes))
	for _, p := range resp.Processes {
		out = append(out, p.toProcessInfo())
	}
	return out, nil
}

// SendSignal delivers signal to the process identified by pid.
func (c *Client) SendSignal(ctx context.Context, pid uint32, signal Signal) error {
	req := sendSignalRequest{Process: selectByPid(pid), Signal: signal}
	var resp sendSignalResponse
	return c.rpc.Unary(ctx, serviceName, "SendSignal", req, &resp)
}

// SendSignalByTag delivers signal to the process started with tag.
func (c *Client) SendSignalByTag(ctx context.Context, tag string, signal Signal) error {
	req := sendSignalRequest{Process: selectByTag(tag), Signal: signal}
	var resp sendSignalResponse
	return c.rpc.Unary(ctx, serviceName, "SendSignal", req, &resp)
}

// SendInput writes stdin to the process identified by pid. Only valid for
// processes started without a pty (pty sessions take input via Resize's
// sibling stream, see handle.PtyHandle.SendInput).
func (c *Client) SendInput(ctx context.Context, pid uint32, stdin []byte) error {
	req := sendInputRequest{Process: selectByPid(pid), Stdin: string(stdin)}
	var resp sendInputResponse
	return c.rpc.Unary(ctx, serviceName, "SendInput", req, &resp)
}

// UpdatePty resizes the pty attached to pid.
func (c *Client) UpdatePty(ctx context.Context, pid uint32, size PtySize) error {
	req := updatePtyRequest{Pid: pid, Size: size}
	var resp updatePtyResponse
	return c.rpc.Unary(ctx, serviceName, "UpdatePty", req, &resp)
}

// StartStream opens the event stream for a newly started process. The
// first message is always a StartEvent carrying the assigned pid; callers
// pull further Data/End events with Stream.Next.
func (c *Client) StartStream(ctx context.Context, opts StartOptions) (*rpcclient.MessageStream, error) {
	cfg := &processConfigWire{Cmd: opts.Config.Cmd, Args: opts.Config.Args, Envs: opts.Config.Envs}
	if opts.Config.Cwd != "" {
		cwd := opts.Config.Cwd
		cfg.Cwd = &cwd
	}
	req := startRequest{Process: cfg, Tag: opts.Tag}
	if opts.Pty != nil {
		size := *opts.Pty
		req.Pty = &ptyConfigWire{Size: &size}
	}
	return c.rpc.Stream(ctx, serviceName, "Start", req)
}

// ConnectStream reattaches to an already-running process's event stream
// by pid or, when tag is non-empty, by tag.
func (c *Client) ConnectStream(ctx context.Context, pid uint32, tag string) (*rpcclient.MessageStream, error) {
	selector := selectByPid(pid)
	if tag != "" {
		selector = selectByTag(tag)
	}
	req := connectRequest{Process: selector}
	return c.rpc.Stream(ctx, serviceName, "Connect", req)
}

// DecodeEvent unwraps one process event frame off stream.
func DecodeEvent(stream *rpcclient.MessageStream) (Event, error) {
	var resp processEventResponse
	if err := stream.Next(&resp); err != nil {
		return Event{}, err
	}
	if resp.Event == nil {
		return Event{}, nil
	}
	return *resp.Event, nil
}
