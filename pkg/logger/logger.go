// Component-tagged leveled logger with an optional JSONL file sink.
// The file sink doubles as the gateway's append-only audit log.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var (
	mu       sync.Mutex
	minLevel = INFO
	sink     *os.File
)

// SetLevel sets the minimum level emitted to stderr and the file sink.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetLogFile opens path in append mode and mirrors every record to it as one
// JSON object per line. The file is never truncated or rewritten.
func SetLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		sink.Close()
	}
	sink = f
	return nil
}

// CloseLogFile closes the file sink if one is open.
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()
	if sink != nil {
		sink.Close()
		sink = nil
	}
}

type record struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func log(level Level, component, msg string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()

	if level < minLevel {
		return
	}

	now := time.Now().UTC()
	line := fmt.Sprintf("%s [%s] [%s] %s", now.Format(time.RFC3339), levelNames[level], component, msg)
	if len(fields) > 0 {
		extra, err := json.Marshal(fields)
		if err == nil {
			line += " " + string(extra)
		}
	}
	fmt.Fprintln(os.Stderr, line)

	if sink != nil {
		rec := record{
			Timestamp: now.Format(time.RFC3339),
			Level:     levelNames[level],
			Component: component,
			Message:   msg,
			Fields:    fields,
		}
		if data, err := json.Marshal(rec); err == nil {
			sink.Write(append(data, '\n'))
		}
	}
}

func DebugC(component, msg string)                        { log(DEBUG, component, msg, nil) }
func DebugCF(component, msg string, f map[string]any)     { log(DEBUG, component, msg, f) }
func InfoC(component, msg string)                         { log(INFO, component, msg, nil) }
func InfoCF(component, msg string, f map[string]any)      { log(INFO, component, msg, f) }
func WarnC(component, msg string)                         { log(WARN, component, msg, nil) }
func WarnCF(component, msg string, f map[string]any)      { log(WARN, component, msg, f) }
func ErrorC(component, msg string)                        { log(ERROR, component, msg, nil) }
func ErrorCF(component, msg string, f map[string]any)     { log(ERROR, component, msg, f) }
