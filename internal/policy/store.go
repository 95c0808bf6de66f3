package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// writableByOthers covers the group- and world-write bits.
const writableByOthers = 0o022

// Store loads the policy file from an explicit path with an explicit
// trusted owner, so tests can point it at fixtures owned by the test user.
type Store struct {
	Path string
	// TrustedOwnerUID is the only UID allowed to own the policy file.
	// Production wiring sets 0 (root).
	TrustedOwnerUID int
}

func NewStore(path string, trustedOwnerUID int) *Store {
	return &Store{Path: path, TrustedOwnerUID: trustedOwnerUID}
}

// Load reads, verifies and parses the policy file.
//
// The security check runs before a single rule is read: the file must be a
// regular file, owned by the trusted owner, and not writable by group or
// world. Any violation is ErrConfigInsecure: a partially trusted policy
// file does not exist. An absent file is ErrConfigMissing, which callers
// treat as the empty (superuser-only) policy.
func (s *Store) Load() (*Policy, error) {
	var st unix.Stat_t
	if err := unix.Stat(s.Path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, s.Path)
		}
		return nil, fmt.Errorf("stat policy file: %w", err)
	}

	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrConfigInsecure, s.Path)
	}
	if int(st.Uid) != s.TrustedOwnerUID {
		return nil, fmt.Errorf("%w: %s owned by uid %d, expected %d",
			ErrConfigInsecure, s.Path, st.Uid, s.TrustedOwnerUID)
	}
	if st.Mode&writableByOthers != 0 {
		return nil, fmt.Errorf("%w: %s has mode %04o (group or world writable)",
			ErrConfigInsecure, s.Path, st.Mode&0o7777)
	}

	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, s.Path)
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(string(b))
}
