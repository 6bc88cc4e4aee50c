package dropengine

import "fmt"

// Severity tags the diagnostic level a message is logged at (spec §6).
// PerformDeletion and PerformMultipleDeletions always run the state
// machine with msglevel Notice; DeleteWhatDependsOn uses Notice when
// showNotices is set and Debug1 otherwise. Severity also covers the
// Debug2 level the state machine logs auto-cascades at.
type Severity int

const (
	SeverityDebug1 Severity = iota
	SeverityDebug2
	SeverityNotice
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug1:
		return "DEBUG1"
	case SeverityDebug2:
		return "DEBUG2"
	case SeverityNotice:
		return "NOTICE"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Logger receives diagnostic messages emitted during cascade traversal.
// Embedders supply their own to route messages into their own logging
// stack; DefaultLogger covers the common case of writing to a
// standard library *log.Logger.
type Logger interface {
	Log(sev Severity, msg string)
}

// LoggerFunc adapts a plain function to the Logger interface.
type LoggerFunc func(sev Severity, msg string)

// Log implements Logger.
func (f LoggerFunc) Log(sev Severity, msg string) { f(sev, msg) }

// NopLogger discards every message. Useful for tests that only care
// about the returned error/ok value, not the diagnostic trail.
var NopLogger Logger = LoggerFunc(func(Severity, string) {})
