package dropengine

import (
	"log"
	"os"
)

// DefaultLogger writes every message through a standard library
// *log.Logger, the way the teacher's storage layer logs transaction
// events (pkg/storage/transaction.go) rather than reaching for a
// structured-logging framework the teacher never imports.
type DefaultLogger struct {
	*log.Logger
}

// NewDefaultLogger builds a DefaultLogger writing to stderr with
// standard timestamp flags, matching log.Default()'s configuration.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{log.New(os.Stderr, "", log.LstdFlags)}
}

// Log implements Logger.
func (d *DefaultLogger) Log(sev Severity, msg string) {
	d.Printf("[%s] %s", sev, msg)
}
