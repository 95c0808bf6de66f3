package credential

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Prompt asks for the target user's secret on the given terminal with echo
// disabled. The terminal state is captured first and restored on every way
// out of this function, including read errors and interrupts, and the
// trailing newline is always emitted so the hidden input line is visually
// terminated. The prompt names the target user so the human knows whose
// credential is being requested.
func Prompt(in *os.File, out io.Writer, targetUser string) (*Buffer, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("standard input is not a terminal (use -pw-stdin to supply the credential)")
	}

	saved, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("save terminal state: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, saved)
		fmt.Fprintln(out)
	}()

	fmt.Fprintf(out, "Password for %s: ", targetUser)
	line, err := term.ReadPassword(fd)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("read credential: %w", err)
	}
	if len(line) == 0 {
		return nil, ErrNoCredential
	}
	return NewFromBytes(line)
}

// FromReader reads one pre-supplied credential line, for callers that
// already hold the secret from a prior step. This is the only out-of-band
// channel: a command-line credential would be visible in the process table.
func FromReader(r io.Reader) (*Buffer, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		Zero(line)
		return nil, fmt.Errorf("read credential: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, ErrNoCredential
	}
	return NewFromBytes(line)
}
