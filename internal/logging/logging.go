package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const defaultLogFile = "billboard.log"

var (
	traceMu      sync.Mutex
	traceEnabled bool
	logPath      = defaultLogFile
)

// Error writes errors to the shared log file.
func Error(err error) {
	if err == nil {
		return
	}
	write("ERROR", err.Error())
}

// Warn records a non-fatal condition such as an ignored message.
func Warn(format string, args ...interface{}) {
	write("WARN", fmt.Sprintf(format, args...))
}

// Info records routine progress. Only emitted while tracing is enabled so the
// log file stays quiet during normal use.
func Info(format string, args ...interface{}) {
	if !TraceEnabled() {
		return
	}
	write("INFO", fmt.Sprintf(format, args...))
}

// Detail is the structured description of a failure written by ErrorDetail.
type Detail struct {
	Context string   `json:"context"`
	Name    string   `json:"name"`
	Message string   `json:"message"`
	Chain   []string `json:"chain,omitempty"`
	Stack   string   `json:"stack,omitempty"`
}

// Describe breaks err down into its type name, message and unwrap chain.
func Describe(context string, err error) Detail {
	d := Detail{Context: context}
	if err == nil {
		return d
	}
	d.Name = fmt.Sprintf("%T", err)
	d.Message = err.Error()
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(next) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %s", next, next.Error()))
	}
	var st interface{ StackTrace() string }
	if errors.As(err, &st) {
		d.Stack = st.StackTrace()
	}
	return d
}

// ErrorDetail logs err together with its structured description and mirrors
// the description into the trace log.
func ErrorDetail(context string, err error) {
	if err == nil {
		return
	}
	d := Describe(context, err)
	line := fmt.Sprintf("%s: %s (%s)", context, d.Message, d.Name)
	if len(d.Chain) > 0 {
		line += " chain=[" + strings.Join(d.Chain, "; ") + "]"
	}
	if d.Stack != "" {
		line += "\n" + d.Stack
	}
	write("ERROR", line)
	Trace("error.detail", d)
}

func write(level, text string) {
	traceMu.Lock()
	path := logPath
	traceMu.Unlock()

	f, ferr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if ferr != nil {
		fmt.Fprintf(os.Stderr, "logging failed: %v\n", ferr)
		return
	}
	defer f.Close()

	logger := log.New(f, "", log.LstdFlags)
	logger.Printf("%s %s", level, text)
}

// SetTraceEnabled toggles emission of structured trace entries.
func SetTraceEnabled(enabled bool) {
	traceMu.Lock()
	traceEnabled = enabled
	traceMu.Unlock()
}

// TraceEnabled reports whether trace entries are being written.
func TraceEnabled() bool {
	traceMu.Lock()
	defer traceMu.Unlock()
	return traceEnabled
}

// Trace appends a structured JSON entry to the shared log when tracing is enabled.
func Trace(event string, payload interface{}) {
	traceMu.Lock()
	enabled := traceEnabled
	path := logPath
	traceMu.Unlock()
	if !enabled {
		return
	}

	entry := struct {
		Time    time.Time   `json:"time"`
		Event   string      `json:"event"`
		Payload interface{} `json:"payload,omitempty"`
	}{
		Time:    time.Now().UTC(),
		Event:   event,
		Payload: payload,
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace logging failed: %v\n", err)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "trace encoding failed: %v\n", err)
	}
}

// Configure sets the log destination. Empty values fall back to the default
// path. Directories are created automatically when missing.
func Configure(path string) {
	traceMu.Lock()
	defer traceMu.Unlock()
	if strings.TrimSpace(path) == "" {
		logPath = defaultLogFile
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
		logPath = defaultLogFile
		return
	}
	logPath = path
}

// Path returns the active log destination.
func Path() string {
	traceMu.Lock()
	defer traceMu.Unlock()
	return logPath
}

// PanicError wraps a recovered panic so it can be logged with its stack.
type PanicError struct {
	Value interface{}
	Stack string
}

// NewPanicError captures the current goroutine's stack alongside v.
func NewPanicError(v interface{}) *PanicError {
	return &PanicError{Value: v, Stack: string(debug.Stack())}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) StackTrace() string {
	return e.Stack
}
