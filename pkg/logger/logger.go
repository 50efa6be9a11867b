// Package logger provides leveled, channel-tagged logging for bridgeclaw.
//
// Log lines carry a component channel ("server", "queue", "discord", ...) so
// that interleaved output from the socket readers, the delivery loop and the
// sweeper stays attributable. Output goes to stderr and, when configured via
// SetLogFile, to an append-only file as well.
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is a log severity level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return "UNKNOWN"
}

var (
	mu       sync.Mutex
	minLevel = INFO
	logFile  *os.File
)

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetLogFile opens path for append and mirrors all log output into it.
// Passing an empty path disables the file sink.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f
	return nil
}

func emit(level Level, channel, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	if level < minLevel {
		return
	}

	line := fmt.Sprintf("[%s] %-5s [%s] %s",
		time.Now().Format("15:04:05"), level, channel, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, fields[k])
		}
		line += sb.String()
	}

	fmt.Fprintln(os.Stderr, line)
	if logFile != nil {
		fmt.Fprintln(logFile, line)
	}
}

// DebugC logs a debug message on a channel.
func DebugC(channel, msg string) { emit(DEBUG, channel, msg, nil) }

// DebugCF logs a debug message on a channel with structured fields.
func DebugCF(channel, msg string, fields map[string]any) { emit(DEBUG, channel, msg, fields) }

// InfoC logs an info message on a channel.
func InfoC(channel, msg string) { emit(INFO, channel, msg, nil) }

// InfoCF logs an info message on a channel with structured fields.
func InfoCF(channel, msg string, fields map[string]any) { emit(INFO, channel, msg, fields) }

// WarnC logs a warning on a channel.
func WarnC(channel, msg string) { emit(WARN, channel, msg, nil) }

// WarnCF logs a warning on a channel with structured fields.
func WarnCF(channel, msg string, fields map[string]any) { emit(WARN, channel, msg, fields) }

// ErrorC logs an error on a channel.
func ErrorC(channel, msg string) { emit(ERROR, channel, msg, nil) }

// ErrorCF logs an error on a channel with structured fields.
func ErrorCF(channel, msg string, fields map[string]any) { emit(ERROR, channel, msg, fields) }
