// Package e2b implements the sandbox façade: lifecycle calls against the
// control-plane REST API, endpoint derivation into a per-sandbox agent
// URL, and composition of the filesystem, process, pty and watch
// surfaces (pkg/filesystem, pkg/process, pkg/demux, pkg/handle) behind
// one object.
package e2b

import "time"

// State is a sandbox's lifecycle state as reported by the control plane.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// SandboxDetail is the control-plane projection returned by Info/Connect.
type SandboxDetail struct {
	SandboxID    string                 `json:"sandboxID"`
	ClientID     string                 `json:"clientID"`
	TemplateID   string                 `json:"templateID"`
	Alias        string                 `json:"alias,omitempty"`
	State        State                  `json:"state"`
	CPUCount     int                    `json:"cpuCount,omitempty"`
	MemoryMB     int                    `json:"memoryMB,omitempty"`
	StartedAt    time.Time              `json:"startedAt"`
	EndAt        time.Time              `json:"endAt"`
	Metadata     map[string]any         `json:"metadata,omitempty"`
	EnvdVersion  string                 `json:"envdVersion,omitempty"`
}

// ListedSandbox is the control-plane projection returned by List.
type ListedSandbox struct {
	SandboxID  string         `json:"sandboxID"`
	ClientID   string         `json:"clientID"`
	TemplateID string         `json:"templateID"`
	Alias      string         `json:"alias,omitempty"`
	State      State          `json:"state"`
	StartedAt  time.Time      `json:"startedAt"`
	EndAt      time.Time      `json:"endAt"`
	CPUCount   int            `json:"cpuCount,omitempty"`
	MemoryMB   int            `json:"memoryMB,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// LogEntry is one line of a sandbox's envd/control-plane logs.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Line      string    `json:"line"`
}

// CreateOptions configures Create beyond the required template id.
type CreateOptions struct {
	Metadata map[string]any
	EnvVars  map[string]string
	Alias    string
	Timeout  time.Duration
}

// ListOptions filters List by state and/or metadata.
type ListOptions struct {
	State    State
	Metadata map[string]string
}

// --- wire shapes for the control-plane REST calls ---

type newSandboxWire struct {
	TemplateID string            `json:"templateID"`
	Timeout    int               `json:"timeout"`
	AutoPause  bool              `json:"autoPause,omitempty"`
	Secure     bool              `json:"secure,omitempty"`
	Alias      string            `json:"alias,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	EnvVars    map[string]string `json:"envVars,omitempty"`
}

type createdSandboxWire struct {
	SandboxID       string `json:"sandboxID"`
	ClientID        string `json:"clientID"`
	TemplateID      string `json:"templateID"`
	EnvdVersion     string `json:"envdVersion,omitempty"`
	EnvdAccessToken string `json:"envdAccessToken,omitempty"`
}

type sandboxLogsWire struct {
	Logs []LogEntry `json:"logs"`
}

type setTimeoutWire struct {
	Timeout int `json:"timeout"`
}
