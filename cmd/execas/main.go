// execas runs a single command as another user when the administrator
// policy file permits it.
//
//	execas [-usr=<user>] [-pw-stdin] [-config=<path>] [-verbose] <command> [args...]
//	execas -verify-log [-config=<path>]
//
// Exit codes (distinct from the delegated command's own status, which
// passes through unchanged; termination by signal n reports 128+n):
//
//	64  usage error (no command, bad flags)
//	65  audit log failed verification (-verify-log)
//	74  audit log could not be written; a grant is never delegated unrecorded
//	76  credential missing or rejected
//	77  not permitted
//	78  configuration fault
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/hnrobert/execas/internal/app"
	"github.com/hnrobert/execas/internal/audit"
	"github.com/hnrobert/execas/internal/config"
	"github.com/hnrobert/execas/internal/credential"
	"github.com/hnrobert/execas/internal/delegate"
	"github.com/hnrobert/execas/internal/logger"
	"github.com/hnrobert/execas/internal/policy"
)

const (
	exitUsage      = 64
	exitBadLog     = 65
	exitLogFailure = 74
	exitCredential = 76
	exitNotAllowed = 77
	exitConfig     = 78
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("execas", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	usr := fs.String("usr", "root", "target user to run the command as")
	cfgPath := fs.String("config", config.DefaultConfigPath, "configuration file")
	pwStdin := fs.Bool("pw-stdin", false, "read the credential from standard input instead of prompting")
	verbose := fs.Bool("verbose", false, "enable diagnostic output")
	verifyLog := fs.Bool("verify-log", false, "verify the audit log seals and exit")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: execas [-usr=<user>] [-pw-stdin] [-config=<path>] [-verbose] <command> [args...]")
		fmt.Fprintln(os.Stderr, "       execas -verify-log [-config=<path>]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	logger.Init(*verbose)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "execas: %v\n", err)
		return exitConfig
	}

	if *verifyLog {
		return runVerify(cfg)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	a, err := app.New(app.Options{
		Config:              cfg,
		CredentialFromStdin: *pwStdin,
		Stdin:               os.Stdin,
		Stdout:              os.Stdout,
		Stderr:              os.Stderr,
		CallerUID:           -1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "execas: %v\n", err)
		return exitConfig
	}

	code, err := a.Run(*usr, fs.Args())
	if err != nil {
		return report(err, fs.Usage)
	}
	return code
}

// report prints the single caller-facing line for a failure and picks the
// exit code. Denials, unknown targets and configuration faults all read the
// same so the exit path leaks nothing beyond the documented code ranges.
func report(err error, usage func()) int {
	switch {
	case errors.Is(err, app.ErrNoCommand):
		usage()
		return exitUsage
	case errors.Is(err, audit.ErrLogFailure):
		fmt.Fprintln(os.Stderr, "execas: audit log unavailable, refusing to run")
		return exitLogFailure
	case errors.Is(err, credential.ErrNoCredential):
		fmt.Fprintln(os.Stderr, "execas: credential required")
		return exitCredential
	case errors.Is(err, delegate.ErrAuthFailed):
		fmt.Fprintln(os.Stderr, "execas: authentication failed")
		return exitCredential
	case errors.Is(err, app.ErrNotAllowed):
		fmt.Fprintln(os.Stderr, "execas: not permitted")
		return exitNotAllowed
	case errors.Is(err, policy.ErrConfigMissing),
		errors.Is(err, policy.ErrConfigInsecure),
		errors.Is(err, policy.ErrConfigParse):
		fmt.Fprintln(os.Stderr, "execas: not permitted")
		return exitConfig
	default:
		fmt.Fprintf(os.Stderr, "execas: %v\n", err)
		return exitConfig
	}
}

func runVerify(cfg config.Config) int {
	sealer, err := audit.LoadSealer(cfg.SealKeyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "execas: %v\n", err)
		return exitConfig
	}
	if sealer == nil {
		fmt.Fprintln(os.Stderr, "execas: no seal key configured, nothing to verify")
		return exitConfig
	}
	n, err := sealer.VerifyFile(cfg.AuditLogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "execas: audit log verification failed after %d records: %v\n", n, err)
		return exitBadLog
	}
	fmt.Printf("verified %d audit records\n", n)
	return 0
}
