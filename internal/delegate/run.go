// Package delegate invokes the OS privilege primitive (su) for the actual
// UID switch. The child runs with a sanitized environment and receives the
// credential over the pty it prompts on, never via argv and never via an
// environment variable.
package delegate

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"syscall"

	"github.com/creack/pty"

	"github.com/hnrobert/execas/internal/credential"
	"github.com/hnrobert/execas/internal/identity"
)

// promptWindow bounds how much initial child output is held back while
// waiting for a password prompt. If no prompt shows up inside the window
// the held output is flushed and relaying begins; su prompts within the
// first few bytes in practice.
const promptWindow = 4096

// tailWindow is how much trailing output is retained for the
// authentication-failure check after the child exits.
const tailWindow = 512

var (
	promptRe = regexp.MustCompile(`(?i)password`)
	// authFailRe matches su's own rejection diagnostic, which su prints at
	// the start of a line under its program name. Output the delegated
	// command produces never has that shape, so an apologetic command that
	// exits non-zero keeps its own exit status.
	authFailRe = regexp.MustCompile(`(?im)^su: (sorry|incorrect password|authentication fail)`)
)

// Runner executes one delegated command. All knobs are injected; there is
// no package state.
type Runner struct {
	SuPath   string
	Shell    string
	SafePath []string
	// Term, when non-empty, is passed through as TERM.
	Term string
	// Stdout receives the delegated command's output.
	Stdout io.Writer
}

// Run starts `su -s <shell> -c <command> <target>` behind a pty, feeds the
// credential at the password prompt, relays the command's output, and
// reports the child's exit status. A credential of nil means the calling
// process is already privileged and su will not prompt.
//
// The child's own non-zero exit is not a security fault and is returned as
// a plain status. A rejected credential is ErrAuthFailed.
func (r *Runner) Run(target identity.Identity, cred *credential.Buffer, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command")
	}

	cmd := exec.Command(r.SuPath, "-s", r.Shell, "-c", shellJoin(argv), target.Name)
	cmd.Env = BuildEnv(r.SafePath, target, r.Term)

	f, err := pty.Start(cmd)
	if err != nil {
		return 0, fmt.Errorf("start %s: %w", r.SuPath, err)
	}
	defer func() { _ = f.Close() }()

	prompted := false
	var tail bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		prompted = r.relay(f, cred, &tail)
	}()

	waitErr := cmd.Wait()
	<-done

	if waitErr == nil {
		return 0, nil
	}
	ee, ok := waitErr.(*exec.ExitError)
	if !ok {
		return 0, fmt.Errorf("wait for %s: %w", r.SuPath, waitErr)
	}
	if cred != nil && prompted && authFailRe.Match(tail.Bytes()) {
		return 0, fmt.Errorf("%w: %s rejected the credential", ErrAuthFailed, r.SuPath)
	}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return ee.ExitCode(), nil
}

// relay pumps the pty. With a credential it holds back output until the
// password prompt, answers it exactly once, drops the rest of the prompt
// line, then streams everything to Stdout. Without a credential it streams
// from the first byte. Reports whether a prompt was answered.
func (r *Runner) relay(f io.ReadWriter, cred *credential.Buffer, tail *bytes.Buffer) bool {
	var (
		held      bytes.Buffer
		fed       bool
		swallowNL bool
	)
	waiting := cred != nil

	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]

			if waiting {
				held.Write(chunk)
				if promptRe.Match(held.Bytes()) {
					_, _ = f.Write(cred.Bytes())
					_, _ = io.WriteString(f, "\n")
					fed = true
					waiting = false
					swallowNL = true
					held.Reset()
					chunk = nil
				} else if held.Len() >= promptWindow {
					// No prompt is coming; the command is already running.
					waiting = false
					chunk = held.Bytes()
					held.Reset()
				} else {
					chunk = nil
				}
			}

			if len(chunk) > 0 && swallowNL {
				if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
					chunk = chunk[i+1:]
					swallowNL = false
				} else {
					chunk = nil
				}
			}

			if len(chunk) > 0 {
				_, _ = r.Stdout.Write(chunk)
				appendTail(tail, chunk)
			}
		}
		if err != nil {
			// EOF or EIO once the child side of the pty is gone. Anything
			// still held belongs to the caller.
			if held.Len() > 0 {
				_, _ = r.Stdout.Write(held.Bytes())
				appendTail(tail, held.Bytes())
			}
			return fed
		}
	}
}

func appendTail(tail *bytes.Buffer, b []byte) {
	tail.Write(b)
	if tail.Len() > tailWindow {
		trimmed := tail.Bytes()[tail.Len()-tailWindow:]
		rest := make([]byte, len(trimmed))
		copy(rest, trimmed)
		tail.Reset()
		tail.Write(rest)
	}
}
