package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tinyland-inc/bridgeclaw/pkg/config"
)

// AuditLog records every inbound chunk as "[timestamp] remoteAddr: bytes".
// Local deployments append to logs/connections.log; containerized ones write
// to the console so the runtime captures the trail.
type AuditLog struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
	now  func() time.Time
}

// NewAuditLog creates the audit trail for the given HOST_ENV.
func NewAuditLog(hostEnv string) (*AuditLog, error) {
	a := &AuditLog{now: time.Now}

	if hostEnv == config.HostEnvDocker {
		a.out = os.Stdout
		return a, nil
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	path := filepath.Join("logs", "connections.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	a.file = f
	a.out = f
	return a, nil
}

// Record appends one chunk to the trail. Failures are swallowed: the audit
// log must never interfere with message processing.
func (a *AuditLog) Record(remoteAddr string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "[%s] %s: %s\n", a.now().Format(time.RFC3339), remoteAddr, data)
}

// Close releases the underlying file, if any.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}
