package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/chi32/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// verbose is set by the --verbose CLI flag
var verbose bool

// debugOutput is the writer for debug output (defaults to nil, meaning no output)
var debugOutput io.Writer

// debugFile holds the open file handle if debug output goes to a file
var debugFile *os.File

// debugMutex protects access to debug output
var debugMutex sync.Mutex

// Component names used with Log
const (
	ComponentCanonical = "CANON"
	ComponentBattery   = "BATTERY"
	ComponentStream    = "STREAM"
	ComponentWalk      = "WALK"
)

// SetVerbose turns debug output on or off at runtime.
func SetVerbose(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	verbose = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely. The stream command writes
// values to stdout, so debug output must never be pointed there.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a file.
// Returns the path to the log file, or an error if initialization fails.
// Call CloseDebugLog when done to ensure the file is properly closed.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "chi32-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled returns true if debug mode is enabled by build flag,
// --verbose or the DEBUG environment variable
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}

	debugMutex.Lock()
	v := verbose
	debugMutex.Unlock()
	if v {
		return true
	}

	// Allow runtime override via environment variable
	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}

	return false
}

// getDebugWriter returns the writer for debug output, or nil if none is configured
func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// write serializes a single formatted record so concurrent workers don't interleave
func write(format string, args ...interface{}) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	if debugOutput == nil {
		return
	}
	fmt.Fprintf(debugOutput, format, args...)
}

// Printf prints debug information only when debug mode is enabled and output is configured
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	write("[DEBUG] "+format, args...)
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	write("[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogCanonical logs regression harness activity
func LogCanonical(format string, args ...interface{}) {
	Log(ComponentCanonical, format, args...)
}

// LogBattery logs statistical battery activity
func LogBattery(format string, args ...interface{}) {
	Log(ComponentBattery, format, args...)
}

// LogStream logs stream emitter activity
func LogStream(format string, args ...interface{}) {
	Log(ComponentStream, format, args...)
}

// LogWalk logs random-walk simulation activity
func LogWalk(format string, args ...interface{}) {
	Log(ComponentWalk, format, args...)
}

// Fatal outputs a catastrophic error message to the debug log and returns a fatal error.
// Callers decide whether to exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if getDebugWriter() != nil {
		write("[FATAL] %s\n", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}
