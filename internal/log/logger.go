package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	logJSON bool
	logText bool
}

func New(logFilePath string, logJSON, logText bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		console: os.Stdout,
		file:    file,
		logJSON: logJSON,
		logText: logText,
	}, nil
}

// SetConsole redirects summary and progress output. nil discards it.
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = io.Discard
	}
	l.console = w
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Phase     string    `json:"phase,omitempty"`
	Current   string    `json:"current,omitempty"`
	Staging   string    `json:"staging,omitempty"`
	Final     string    `json:"final,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// LogOp records one filesystem move of a plan entry. phase is "stage",
// "commit" or "rollback".
func (l *Logger) LogOp(op types.RenamePlanEntry, phase string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   fmt.Sprintf("%s: %s -> %s", phase, filepath.Base(op.Current), filepath.Base(op.Final)),
		Phase:     phase,
		Current:   op.Current,
		Staging:   op.Staging,
		Final:     op.Final,
	}

	if err != nil {
		entry.Level = "ERROR"
		entry.Error = err.Error()
	}

	l.writeEntry(entry)
}

func (l *Logger) Info(msg string) {
	l.log("INFO", msg, nil)
}

func (l *Logger) Warn(msg string) {
	l.log("WARN", msg, nil)
}

func (l *Logger) Error(msg string, err error) {
	l.log("ERROR", msg, err)
}

func (l *Logger) log(level, msg string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	l.writeEntry(entry)
}

func (l *Logger) writeEntry(entry LogEntry) {
	if l.logJSON && l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}

	if l.logText && l.file != nil {
		line := fmt.Sprintf("[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Level,
			entry.Message,
		)
		if entry.Error != "" {
			line = fmt.Sprintf("[%s] %s %s - Error: %s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.Level,
				entry.Message,
				entry.Error,
			)
		}
		l.file.WriteString(line)
	}
}

func (l *Logger) Summary(summary types.RenameSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := "\n=== ShutterRename Summary ==="
	if summary.DryRun {
		header = "\n=== ShutterRename Summary (dry run) ==="
	}
	fmt.Fprintln(l.console, header)
	fmt.Fprintf(l.console, "Total files:    %d\n", summary.TotalFiles)
	fmt.Fprintf(l.console, "Planned:        %d\n", summary.Planned)
	fmt.Fprintf(l.console, "Renamed:        %d\n", summary.Renamed)
	fmt.Fprintf(l.console, "Skipped:        %d\n", summary.Skipped)
	fmt.Fprintf(l.console, "Failed:         %d\n", summary.Failed)
	fmt.Fprintf(l.console, "Rolled back:    %d\n", summary.RolledBack)
	fmt.Fprintf(l.console, "Warnings:       %d\n", summary.Warnings)
	fmt.Fprintf(l.console, "Errors:         %d\n", summary.Errors)
	fmt.Fprintf(l.console, "Duration:       %s\n", summary.Duration.Round(time.Millisecond))
	if summary.Bytes > 0 {
		fmt.Fprintf(l.console, "Data renamed:   %s\n", humanize.Bytes(uint64(summary.Bytes)))
	}
	fmt.Fprintln(l.console, "==============================")
}

func (l *Logger) Progress(current, total int, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filename)
}
