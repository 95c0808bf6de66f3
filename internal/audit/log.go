// Package audit appends one tamper-evident record per authorization
// decision to a durable, append-only log file. Records are written before
// any delegation happens; a grant that cannot be recorded must not elevate.
package audit

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var ErrLogFailure = errors.New("audit log write failed")

// Record is one decision: who asked, whom they asked to become, what they
// asked to run, and what the gatekeeper decided.
type Record struct {
	Timestamp time.Time
	Caller    string
	Target    string
	Command   string
	Outcome   Outcome
}

// Log appends records to a single well-known file. The file is opened with
// O_APPEND for every write and never truncated; existing records are never
// touched. One-shot tool, so no cross-process lock is taken: small
// single-line appends are expected to land atomically.
type Log struct {
	Path   string
	Sealer *Sealer // nil means records carry no seal

	// now is stubbed in tests.
	now func() time.Time
}

func NewLog(path string, sealer *Sealer) *Log {
	return &Log{Path: path, Sealer: sealer, now: time.Now}
}

// Append writes one record line, creating the log if absent (mode 0600).
// Any failure wraps ErrLogFailure so the caller can fail closed on grants.
func (l *Log) Append(caller, target, command string, outcome Outcome) error {
	rec := Record{
		Timestamp: l.now().UTC(),
		Caller:    caller,
		Target:    target,
		Command:   command,
		Outcome:   outcome,
	}

	line := formatRecord(rec)
	if l.Sealer != nil {
		token, err := l.Sealer.Seal(rec)
		if err != nil {
			return fmt.Errorf("%w: seal record: %v", ErrLogFailure, err)
		}
		line += " seal=" + token
	}

	f, err := os.OpenFile(l.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	return nil
}

func formatRecord(r Record) string {
	return fmt.Sprintf("%s %s caller=%s target=%s cmd=%s",
		r.Timestamp.Format(time.RFC3339),
		r.Outcome,
		r.Caller,
		r.Target,
		strconv.Quote(r.Command))
}
