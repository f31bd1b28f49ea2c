// Package process implements the typed process RPC operations (list,
// send-signal, start, connect) layered on pkg/rpcclient.
package process

// Signal is the numeric signal enum the agent accepts.
type Signal int32

const (
	SignalSIGINT  Signal = 2
	SignalSIGTERM Signal = 15
	SignalSIGKILL Signal = 9
)

// PtySize is a pseudo-terminal's column/row geometry. The zero value is
// invalid; DefaultPtySize is what the agent assumes when none is given.
type PtySize struct {
	Cols uint32 `json:"cols"`
	Rows uint32 `json:"rows"`
}

// DefaultPtySize is the agent's implicit default when a start request
// omits pty.size.
var DefaultPtySize = PtySize{Cols: 80, Rows: 24}

// ProcessInfo describes one running process or PTY session.
type ProcessInfo struct {
	Pid  uint32            `json:"pid"`
	Tag  string            `json:"tag,omitempty"`
	Cmd  string            `json:"cmd"`
	Args []string          `json:"args,omitempty"`
	Envs map[string]string `json:"envs,omitempty"`
	Cwd  string            `json:"cwd,omitempty"`
}

// CommandResult is the outcome of a completed command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int32
	Error    string
}

// Success reports whether the command exited cleanly (ExitCode == 0 and
// no out-of-band Error).
func (r CommandResult) Success() bool {
	return r.ExitCode == 0 && r.Error == ""
}

// ExitError is what EnsureSuccess returns for a non-zero or failed
// result; Run never raises it automatically.
type ExitError struct {
	Result CommandResult
}

func (e *ExitError) Error() string {
	if e.Result.Error != "" {
		return "command failed: " + e.Result.Error
	}
	return "command exited with non-zero status"
}

// EnsureSuccess turns a non-zero/failed CommandResult into an *ExitError.
// Callers that treat a non-zero exit as fatal opt in here; nothing in the
// SDK raises it for them.
func (r CommandResult) EnsureSuccess() error {
	if r.Success() {
		return nil
	}
	return &ExitError{Result: r}
}

// ProcessConfig is the command to run: executable, args, environment and
// optional working directory.
type ProcessConfig struct {
	Cmd  string
	Args []string
	Envs map[string]string
	Cwd  string
}

// StartOptions configures a Start call.
type StartOptions struct {
	Config ProcessConfig
	Pty    *PtySize
	Tag    string
}

// --- wire shapes ---

type processConfigWire struct {
	Cmd  string            `json:"cmd"`
	Args []string          `json:"args,omitempty"`
	Envs map[string]string `json:"envs,omitempty"`
	Cwd  *string           `json:"cwd,omitempty"`
}

type ptyConfigWire struct {
	Size *PtySize `json:"size,omitempty"`
}

type startRequest struct {
	Process *processConfigWire `json:"process"`
	Pty     *ptyConfigWire     `json:"pty,omitempty"`
	Tag     string             `json:"tag,omitempty"`
}

// processSelectorWire wraps the pid-or-tag selector one level deep, the
// way the agent matches it: {"process":{"selector":{"pid":N}}}.
type processSelectorWire struct {
	Selector *selectorWire `json:"selector,omitempty"`
}

type selectorWire struct {
	Pid uint32 `json:"pid,omitempty"`
	Tag string `json:"tag,omitempty"`
}

func selectByPid(pid uint32) *processSelectorWire {
	return &processSelectorWire{Selector: &selectorWire{Pid: pid}}
}

func selectByTag(tag string) *processSelectorWire {
	return &processSelectorWire{Selector: &selectorWire{Tag: tag}}
}

type sendSignalRequest struct {
	Process *processSelectorWire `json:"process"`
	Signal  Signal               `json:"signal"`
}

type sendSignalResponse struct{}

type processInfoWire struct {
	Pid    uint32             `json:"pid"`
	Tag    string             `json:"tag,omitempty"`
	Config *processConfigWire `json:"config,omitempty"`
}

func (p processInfoWire) toProcessInfo() ProcessInfo {
	info := ProcessInfo{Pid: p.Pid, Tag: p.Tag}
	if p.Config != nil {
		info.Cmd = p.Config.Cmd
		info.Args = p.Config.Args
		info.Envs = p.Config.Envs
		if p.Config.Cwd != nil {
			info.Cwd = *p.Config.Cwd
		}
	}
	return info
}

type listResponse struct {
	Processes []processInfoWire `json:"processes"`
}

type connectRequest struct {
	Process *processSelectorWire `json:"process"`
}

type sendInputRequest struct {
	Process *processSelectorWire `json:"process"`
	Stdin   string               `json:"stdin"`
}

type sendInputResponse struct{}

type updatePtyRequest struct {
	Pid  uint32  `json:"pid"`
	Size PtySize `json:"size"`
}

type updatePtyResponse struct{}

// StartEvent, DataEvent and EndEvent are the three (plus keepalive)
// shapes multiplexed on a process event stream.
type StartEvent struct {
	Pid uint32 `json:"pid"`
}

type DataEvent struct {
	Stdout []byte `json:"stdout,omitempty"`
	Stderr []byte `json:"stderr,omitempty"`
	Pty    []byte `json:"pty,omitempty"`
}

type EndEvent struct {
	ExitCode int32   `json:"exit_code"`
	Error    *string `json:"error,omitempty"`
}

// Event is one frame of a process event stream: exactly one of its
// fields is non-nil.
type Event struct {
	Start     *StartEvent `json:"start,omitempty"`
	Data      *DataEvent  `json:"data,omitempty"`
	End       *EndEvent   `json:"end,omitempty"`
	Keepalive *struct{}   `json:"keepalive,omitempty"`
}

type processEventResponse struct {
	Event *Event `json:"event,omitempty"`
}
