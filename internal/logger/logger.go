package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Package-level logger for operator diagnostics. Writes to stderr only;
// the audit trail is a separate, append-only file owned by internal/audit.
var log = logrus.New()

func init() {
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
}

// Init configures verbosity. Verbose lowers the threshold to Debug so the
// operator can trace a decision; the default stays at Warn to keep the
// one-line caller-facing output clean.
func Init(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
		return
	}
	log.SetLevel(logrus.WarnLevel)
}

// SetOutput redirects diagnostics, used by tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
