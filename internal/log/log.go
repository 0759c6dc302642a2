// Package log provides structured logging for Opsdeck.
// It writes leveled, categorized entries to a debug log file and is
// conditionally enabled via the --debug flag or OPSDECK_DEBUG env.
// Until Init succeeds every call is a no-op, so packages log
// unconditionally and only a debug run pays the cost.
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Category groups related log messages.
type Category string

const (
	CatStore    Category = "store"    // Workflow collection persistence
	CatWorkflow Category = "workflow" // Lifecycle service operations
	CatDB       Category = "db"       // SQLite backend operations
	CatConfig   Category = "config"   // Configuration loading/saving
	CatWatcher  Category = "watcher"  // Store file watcher events
	CatUI       Category = "ui"       // Board and toaster updates
	CatBus      Category = "bus"      // Pub/sub broadcast events
	CatCache    Category = "cache"    // Insight cache operations
	CatInsights Category = "insights" // Insight feed fetches
	CatTrace    Category = "trace"    // Tracing setup
)

type sink struct {
	mu   sync.Mutex
	file *os.File
}

var (
	active *sink
	once   sync.Once
)

// Init opens the debug log at path and enables logging process-wide.
// Only the first call has any effect. The returned cleanup closes the
// log file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is user-controlled debug log path
		if err != nil {
			initErr = err
			return
		}
		active = &sink{file: f}
	})
	if initErr != nil {
		return nil, initErr
	}
	if active == nil {
		return nil, fmt.Errorf("logger initialization failed or already attempted")
	}
	return func() { _ = active.file.Close() }, nil
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	emit(LevelDebug, cat, msg, fields)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	emit(LevelInfo, cat, msg, fields)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	emit(LevelWarn, cat, msg, fields)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	emit(LevelError, cat, msg, fields)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	emit(LevelError, cat, msg, fields)
}

func emit(level Level, cat Category, msg string, fields []any) {
	s := active
	if s == nil {
		return
	}

	line := formatEntry(time.Now(), level, cat, msg, fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.file.WriteString(line)
}

// formatEntry renders one log line:
// 2025-12-06T10:45:00 [ERROR] [store] message key=value key2=value2
func formatEntry(at time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	b.WriteString(at.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)

	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	// Odd field count, append the orphan key with no value
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	return b.String()
}
