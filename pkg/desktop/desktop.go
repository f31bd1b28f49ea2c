// Package desktop implements the VNC + noVNC orchestrator: a
// choreography of four processes started inside a sandbox via
// pkg/e2b's CommandsSurface — Xvfb, xfce4, x11vnc, novnc_proxy — plus
// the browser URL the caller hands to a user.
package desktop

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/e2b-dev/e2b-go/pkg/e2b"
	"github.com/e2b-dev/e2b-go/pkg/handle"
	"github.com/e2b-dev/e2b-go/pkg/rpcclient"
)

const (
	display            = ":1"
	xvfbResolution     = "1024x768x24"
	xvfbDPI            = "96"
	xvfbReadyTimeout   = 5 * time.Second
	xvfbPollInterval   = 1 * time.Second
	passwordLength     = 12
	passwordAlphabet   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	startSettleDelay   = 1 * time.Second
	defaultVNCPort     = 5900
	defaultNoVNCPort   = 6080
)

// Config configures a Server beyond its defaults.
type Config struct {
	VNCPort    int
	NoVNCPort  int
	EnableAuth bool
	Password   string
	WindowID   string
}

// DefaultConfig is the standard port pair with authentication enabled.
func DefaultConfig() Config {
	return Config{VNCPort: defaultVNCPort, NoVNCPort: defaultNoVNCPort, EnableAuth: true}
}

// URLOptions configures the generated browser URL's query string.
type URLOptions struct {
	Autoconnect bool
	ViewOnly    bool
	Resize      string
}

// Server starts and tracks a VNC + noVNC desktop stack inside one
// sandbox. The zero value is not usable; construct with New.
type Server struct {
	sandbox *e2b.Sandbox
	cfg     Config

	mu       sync.Mutex
	running  bool
	password string

	xvfb  *handle.CommandHandle
	xfce4 *handle.CommandHandle
	vnc   *handle.CommandHandle
	novnc *handle.CommandHandle
}

// New returns a Server with DefaultConfig.
func New(sandbox *e2b.Sandbox) *Server {
	return NewWithConfig(sandbox, DefaultConfig())
}

// NewWithConfig returns a Server with a custom Config.
func NewWithConfig(sandbox *e2b.Sandbox, cfg Config) *Server {
	return &Server{sandbox: sandbox, cfg: cfg, password: cfg.Password}
}

// Start sequences Xvfb -> xfce4 -> x11vnc -> novnc_proxy inside the
// sandbox, polling Xvfb's readiness before moving on. It is idempotent:
// calling Start on an already-running Server is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if s.cfg.EnableAuth && s.password == "" {
		pw, err := generatePassword()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.password = pw
	}
	s.mu.Unlock()

	if err := s.startXvfb(ctx); err != nil {
		return err
	}
	if err := s.startXfce4(ctx); err != nil {
		return err
	}
	if err := s.startX11VNC(ctx); err != nil {
		return err
	}
	if err := s.startNoVNCProxy(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

func (s *Server) startXvfb(ctx context.Context) error {
	args := []string{
		display, "-ac",
		"-screen", "0", xvfbResolution,
		"-retro",
		"-dpi", xvfbDPI,
		"-nolisten", "tcp",
	}
	h, err := s.sandbox.Commands.Start(ctx, "Xvfb", args, e2b.RunOptions{})
	if err != nil {
		return fmt.Errorf("desktop: start Xvfb: %w", err)
	}
	s.mu.Lock()
	s.xvfb = h
	s.mu.Unlock()

	deadline := time.Now().Add(xvfbReadyTimeout)
	for time.Now().Before(deadline) {
		result, err := s.sandbox.Commands.Run(ctx, "xdpyinfo", []string{"-display", display}, e2b.RunOptions{})
		if err == nil && result.ExitCode == 0 {
			return nil
		}
		time.Sleep(xvfbPollInterval)
	}
	return &rpcclient.Error{Kind: rpcclient.KindTimeout, Message: "could not start Xvfb"}
}

func (s *Server) startXfce4(ctx context.Context) error {
	h, err := s.sandbox.Commands.StartShell(ctx, "DISPLAY="+display+" startxfce4", e2b.RunOptions{})
	if err != nil {
		return fmt.Errorf("desktop: start xfce4: %w", err)
	}
	s.mu.Lock()
	s.xfce4 = h
	s.mu.Unlock()
	time.Sleep(startSettleDelay)
	return nil
}

func (s *Server) startX11VNC(ctx context.Context) error {
	vncPort := s.cfg.VNCPort
	if vncPort == 0 {
		vncPort = defaultVNCPort
	}
	args := []string{
		"-display", display,
		"-rfbport", fmt.Sprintf("%d", vncPort),
		"-shared", "-forever", "-noxdamage", "-noxfixes", "-noxrandr",
	}
	if s.cfg.EnableAuth {
		args = append(args, "-passwd", s.password)
	} else {
		args = append(args, "-nopw")
	}
	if s.cfg.WindowID != "" {
		args = append(args, "-id", s.cfg.WindowID)
	}

	h, err := s.sandbox.Commands.Start(ctx, "x11vnc", args, e2b.RunOptions{})
	if err != nil {
		return fmt.Errorf("desktop: start x11vnc: %w", err)
	}
	s.mu.Lock()
	s.vnc = h
	s.mu.Unlock()
	time.Sleep(startSettleDelay)
	return nil
}

func (s *Server) startNoVNCProxy(ctx context.Context) error {
	vncPort := s.cfg.VNCPort
	if vncPort == 0 {
		vncPort = defaultVNCPort
	}
	novncPort := s.cfg.NoVNCPort
	if novncPort == 0 {
		novncPort = defaultNoVNCPort
	}

	// The agent's Start RPC does not shell-interpret argv; go through a
	// login shell like the other stages.
	script := fmt.Sprintf(
		"novnc_proxy --vnc localhost:%d --listen %d --web /opt/noVNC",
		vncPort, novncPort,
	)
	h, err := s.sandbox.Commands.StartShell(ctx, script, e2b.RunOptions{})
	if err != nil {
		return fmt.Errorf("desktop: start novnc_proxy: %w", err)
	}
	s.mu.Lock()
	s.novnc = h
	s.mu.Unlock()
	time.Sleep(startSettleDelay)
	return nil
}

// Running reports whether the stack was started and not yet stopped.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Password returns the generated or configured VNC password, empty when
// auth is disabled.
func (s *Server) Password() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password
}

// URL builds the noVNC browser URL for this running desktop.
func (s *Server) URL(opts URLOptions) (string, error) {
	s.mu.Lock()
	running := s.running
	password := s.password
	s.mu.Unlock()
	if !running {
		return "", &rpcclient.Error{Kind: rpcclient.KindInvalidArgument, Message: "desktop: VNC server is not running"}
	}

	novncPort := s.cfg.NoVNCPort
	if novncPort == 0 {
		novncPort = defaultNoVNCPort
	}
	agent, err := url.Parse(s.sandbox.AgentURL())
	if err != nil {
		return "", fmt.Errorf("desktop: parse agent URL: %w", err)
	}

	u := &url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("%d-%s", novncPort, agent.Host),
		Path:   "/vnc.html",
	}
	q := u.Query()
	if opts.Autoconnect {
		q.Set("autoconnect", "true")
	}
	if opts.ViewOnly {
		q.Set("view_only", "true")
	}
	if opts.Resize != "" {
		q.Set("resize", opts.Resize)
	}
	if s.cfg.EnableAuth && password != "" {
		q.Set("password", password)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Stop kills the tracked process handles concurrently, then sweeps any
// stragglers with pkill.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	handles := []*handle.CommandHandle{s.novnc, s.vnc, s.xfce4, s.xvfb}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handles {
		if h == nil {
			continue
		}
		h := h
		g.Go(func() error {
			_ = h.Kill(gctx)
			return nil
		})
	}
	_ = g.Wait()

	sweep, gctx2 := errgroup.WithContext(ctx)
	sweep.Go(func() error {
		_, err := s.sandbox.Commands.Run(gctx2, "pkill", []string{"-f", "x11vnc"}, e2b.RunOptions{})
		return err
	})
	sweep.Go(func() error {
		_, err := s.sandbox.Commands.Run(gctx2, "pkill", []string{"-f", "novnc"}, e2b.RunOptions{})
		return err
	})
	_ = sweep.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, passwordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordAlphabet))))
		if err != nil {
			return "", fmt.Errorf("desktop: generate password: %w", err)
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
