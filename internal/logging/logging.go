// Package logging provides the default sforce.Logger, backed by hclog.
package logging

import (
	"io"
	"os"
	"sort"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/hashicorp/go-hclog"
)

// Logger adapts an hclog.Logger to sforce.Logger.
type Logger struct {
	hclog hclog.Logger
}

var _ sforce.Logger = (*Logger)(nil)

// New creates a logger writing to output at the given level ("debug",
// "info", "warn", "error"). A nil output means stderr.
func New(name, level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}

	return &Logger{
		hclog: hclog.New(&hclog.LoggerOptions{
			Name:   name,
			Level:  hclog.LevelFromString(level),
			Output: output,
		}),
	}
}

// Wrap adapts an existing hclog.Logger.
func Wrap(logger hclog.Logger) *Logger {
	return &Logger{hclog: logger}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{hclog: hclog.NewNullLogger()}
}

// HCLog returns the underlying logger.
func (l *Logger) HCLog() hclog.Logger {
	return l.hclog
}

// Debug implements sforce.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.hclog.Debug(msg, args(fields)...)
}

// Info implements sforce.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.hclog.Info(msg, args(fields)...)
}

// Warn implements sforce.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.hclog.Warn(msg, args(fields)...)
}

// Error implements sforce.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.hclog.Error(msg, args(fields)...)
}

// args flattens fields into sorted key/value pairs.
func args(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		out = append(out, key, fields[key])
	}

	return out
}
