// Package app drives one execas invocation end to end: resolve the caller,
// decide against the policy, record the decision, and only then acquire the
// credential and delegate. A denial short-circuits before any credential is
// touched; a grant that cannot be audited never runs (fail closed).
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hnrobert/execas/internal/audit"
	"github.com/hnrobert/execas/internal/config"
	"github.com/hnrobert/execas/internal/credential"
	"github.com/hnrobert/execas/internal/delegate"
	"github.com/hnrobert/execas/internal/identity"
	"github.com/hnrobert/execas/internal/logger"
	"github.com/hnrobert/execas/internal/policy"
)

var (
	ErrNoCommand  = errors.New("no command given")
	ErrNotAllowed = errors.New("not allowed")
)

// Options wires one invocation. Streams and the caller UID are injectable
// so tests can run the whole flow against fixtures.
type Options struct {
	Config config.Config

	// CredentialFromStdin reads the pre-supplied credential from Stdin
	// instead of prompting on the terminal.
	CredentialFromStdin bool

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// CallerUID overrides the real UID when >= 0. Production passes -1.
	CallerUID int
}

type App struct {
	cfg      config.Config
	opts     Options
	resolver *identity.Resolver
	store    *policy.Store
	log      *audit.Log
	runner   *delegate.Runner
}

// New builds an App from options. The audit sealer load is the only I/O.
func New(o Options) (*App, error) {
	sealer, err := audit.LoadSealer(o.Config.SealKeyPath)
	if err != nil {
		return nil, err
	}

	resolver := identity.NewResolver(o.Config.PasswdPath)
	if o.CallerUID >= 0 {
		resolver = identity.NewResolverForUID(o.Config.PasswdPath, o.CallerUID)
	}

	return &App{
		cfg:      o.Config,
		opts:     o,
		resolver: resolver,
		store:    policy.NewStore(o.Config.PolicyPath, o.Config.TrustedOwnerUID),
		log:      audit.NewLog(o.Config.AuditLogPath, sealer),
		runner: &delegate.Runner{
			SuPath:   o.Config.SuPath,
			Shell:    o.Config.Shell,
			SafePath: o.Config.SafePath,
			Term:     os.Getenv("TERM"),
			Stdout:   o.Stdout,
		},
	}, nil
}

// Run executes one request. The int is the delegated command's exit status
// when err is nil; on error the exit code is chosen by the caller from the
// error kind.
func (a *App) Run(targetName string, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, ErrNoCommand
	}
	command := strings.Join(argv, " ")

	caller, err := a.resolver.Caller()
	if err != nil {
		return 0, fmt.Errorf("resolve caller: %w", err)
	}
	logger.Debugf("caller resolved as %s (uid %d)", caller.Name, caller.UID)

	target, err := a.resolver.Lookup(targetName)
	if err != nil {
		// An unknown target reads exactly like a policy denial so the
		// caller cannot probe which accounts exist.
		logger.Debugf("target lookup: %v", err)
		a.audit(caller.Name, targetName, command, audit.OutcomeDenied)
		return 0, ErrNotAllowed
	}

	pol, err := a.store.Load()
	switch {
	case err == nil:
	case errors.Is(err, policy.ErrConfigMissing):
		// Absent policy means superuser-only. Root proceeds on axiomatic
		// trust; for anyone else this invocation is a configuration fault,
		// audited as such so the operator can tell it from a rule miss.
		if !caller.Root() {
			logger.Debugf("%v", err)
			a.audit(caller.Name, target.Name, command, audit.OutcomeConfigError)
			return 0, err
		}
		pol = policy.Empty()
	default:
		// Detail stays out of the caller-facing channel; the audit record
		// and -verbose diagnostics are the operator's view.
		logger.Debugf("%v", err)
		a.audit(caller.Name, target.Name, command, audit.OutcomeConfigError)
		return 0, err
	}

	if !pol.Allows(caller.Name, caller.Root(), target.Name) {
		a.audit(caller.Name, target.Name, command, audit.OutcomeDenied)
		return 0, ErrNotAllowed
	}

	// The grant must be on durable record before anything is elevated.
	if err := a.log.Append(caller.Name, target.Name, command, audit.OutcomeGranted); err != nil {
		logger.Errorf("refusing to delegate: %v", err)
		return 0, err
	}

	cred, err := a.acquire(caller, target)
	if err != nil {
		a.audit(caller.Name, target.Name, command, audit.OutcomeExecFailure)
		return 0, err
	}
	if cred != nil {
		defer cred.Close()

		if err := delegate.PreVerify(a.cfg.ShadowPath, target.Name, cred); err != nil {
			if errors.Is(err, delegate.ErrAuthFailed) {
				a.audit(caller.Name, target.Name, command, audit.OutcomeExecFailure)
				return 0, err
			}
			logger.Warnf("shadow pre-verification skipped: %v", err)
		}
	}

	code, err := a.runner.Run(target, cred, argv)
	if err != nil {
		if errors.Is(err, delegate.ErrAuthFailed) {
			a.audit(caller.Name, target.Name, command, audit.OutcomeExecFailure)
		}
		return 0, err
	}
	return code, nil
}

// acquire obtains the credential for the delegation. A root caller gets
// none: su does not prompt the superuser.
func (a *App) acquire(caller, target identity.Identity) (*credential.Buffer, error) {
	if caller.Root() {
		return nil, nil
	}
	if a.opts.CredentialFromStdin {
		return credential.FromReader(a.opts.Stdin)
	}
	return credential.Prompt(a.opts.Stdin, a.opts.Stderr, target.Name)
}

// audit records a non-granted outcome. Denials and configuration faults
// must still reach the caller even when the log is unwritable, so failures
// here surface only as diagnostics.
func (a *App) audit(caller, target, command string, outcome audit.Outcome) {
	if err := a.log.Append(caller, target, command, outcome); err != nil {
		logger.Errorf("%v", err)
	}
}
