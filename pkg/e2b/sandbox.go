package e2b

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/e2b-dev/e2b-go/pkg/filesystem"
	"github.com/e2b-dev/e2b-go/pkg/process"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

const defaultCreateTimeoutSeconds = 300

// Sandbox is the single handle a caller interacts with: sandbox identity
// plus the Files/Commands/Pty method groups composed over the
// per-sandbox agent.
type Sandbox struct {
	SandboxID  string
	ClientID   string
	TemplateID string

	cfg     *Config
	control *controlClient

	Files    *FilesSurface
	Commands *CommandsSurface
	Pty      *PtySurface
}

// Create provisions a new sandbox from templateID and wires up its agent
// endpoint.
func Create(ctx context.Context, cfg *Config, templateID string, opts CreateOptions) (*Sandbox, error) {
	control := newControlClient(cfg)

	timeoutSeconds := defaultCreateTimeoutSeconds
	if opts.Timeout > 0 {
		timeoutSeconds = int(opts.Timeout / time.Second)
	}
	req := newSandboxWire{
		TemplateID: templateID,
		Timeout:    timeoutSeconds,
		Alias:      opts.Alias,
		Metadata:   opts.Metadata,
		EnvVars:    opts.EnvVars,
	}

	var created createdSandboxWire
	if err := control.do(ctx, http.MethodPost, "/sandboxes", req, &created); err != nil {
		return nil, err
	}
	logf(cfg, "sandbox created id=%s client=%s template=%s", created.SandboxID, created.ClientID, templateID)

	return newSandbox(cfg, control, created.SandboxID, created.ClientID, created.TemplateID), nil
}

// Connect attaches to an already-running sandbox by id, fetching its
// current detail to recover the client id needed for endpoint derivation.
func Connect(ctx context.Context, cfg *Config, sandboxID string) (*Sandbox, error) {
	control := newControlClient(cfg)

	var detail SandboxDetail
	if err := control.do(ctx, http.MethodGet, "/sandboxes/"+sandboxID, nil, &detail); err != nil {
		return nil, err
	}
	logf(cfg, "sandbox connected id=%s client=%s", detail.SandboxID, detail.ClientID)

	return newSandbox(cfg, control, detail.SandboxID, detail.ClientID, detail.TemplateID), nil
}

// List returns every sandbox visible to the configured API key,
// optionally filtered by state and metadata.
func List(ctx context.Context, cfg *Config, opts ListOptions) ([]ListedSandbox, error) {
	control := newControlClient(cfg)

	var listed []ListedSandbox
	if err := control.do(ctx, http.MethodGet, "/sandboxes", nil, &listed); err != nil {
		return nil, err
	}
	logf(cfg, "sandboxes listed count=%d", len(listed))
	if opts.State == "" && len(opts.Metadata) == 0 {
		return listed, nil
	}

	filtered := listed[:0]
	for _, s := range listed {
		if opts.State != "" && s.State != opts.State {
			continue
		}
		if !metadataMatches(s.Metadata, opts.Metadata) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered, nil
}

func metadataMatches(have map[string]any, want map[string]string) bool {
	for k, v := range want {
		got, ok := have[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != v {
			return false
		}
	}
	return true
}

func newSandbox(cfg *Config, control *controlClient, sandboxID, clientID, templateID string) *Sandbox {
	base := agentBaseURL(cfg, sandboxID, clientID)
	headers := agentAuthHeader(cfg.AgentUsername)
	httpClient := &http.Client{Timeout: cfg.Timeout}

	rpc := rpcclient.New(base, httpClient, headers)
	// Streams (watch, process events) outlive any per-request timeout;
	// they are bounded by keepalive pings and caller cancellation only.
	// Both clients share the default transport's connection pool.
	rpc.StreamClient = &http.Client{}
	filesClient := filesystem.New(rpc, httpClient, base, cfg.AgentUsername)
	processClient := process.New(rpc)

	return &Sandbox{
		SandboxID:  sandboxID,
		ClientID:   clientID,
		TemplateID: templateID,
		cfg:        cfg,
		control:    control,
		Files:      &FilesSurface{rpc: filesClient},
		Commands:   &CommandsSurface{rpc: processClient},
		Pty:        &PtySurface{rpc: processClient},
	}
}

// Info re-fetches the sandbox's current SandboxDetail from the control
// plane.
func (s *Sandbox) Info(ctx context.Context) (SandboxDetail, error) {
	var detail SandboxDetail
	err := s.control.do(ctx, http.MethodGet, "/sandboxes/"+s.SandboxID, nil, &detail)
	return detail, err
}

// Refresh is an alias for Info, for call sites that re-fetch sandbox
// detail on demand rather than at connect time.
func (s *Sandbox) Refresh(ctx context.Context) (SandboxDetail, error) {
	return s.Info(ctx)
}

// Logs returns the sandbox's accumulated log lines.
func (s *Sandbox) Logs(ctx context.Context) ([]LogEntry, error) {
	var wire sandboxLogsWire
	err := s.control.do(ctx, http.MethodGet, "/sandboxes/"+s.SandboxID+"/logs", nil, &wire)
	return wire.Logs, err
}

// Kill terminates the sandbox. Handles obtained from this Sandbox must
// not be used afterwards: the agent will answer with a not-found error,
// surfaced unchanged.
func (s *Sandbox) Kill(ctx context.Context) error {
	logf(s.cfg, "sandbox kill id=%s", s.SandboxID)
	return s.control.do(ctx, http.MethodDelete, "/sandboxes/"+s.SandboxID, nil, nil)
}

// SetTimeout extends (or shortens) how long the control plane will keep
// the sandbox alive past its last activity.
func (s *Sandbox) SetTimeout(ctx context.Context, d time.Duration) error {
	logf(s.cfg, "sandbox set-timeout id=%s seconds=%d", s.SandboxID, int(d/time.Second))
	req := setTimeoutWire{Timeout: int(d / time.Second)}
	return s.control.do(ctx, http.MethodPost, "/sandboxes/"+s.SandboxID+"/timeout", req, nil)
}

// AgentURL returns the derived base URL of this sandbox's envd agent,
// primarily useful to pkg/desktop for building the noVNC browser URL.
func (s *Sandbox) AgentURL() string {
	return agentBaseURL(s.cfg, s.SandboxID, s.ClientID)
}
