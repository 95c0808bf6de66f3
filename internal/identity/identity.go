// Package identity resolves the calling user from the process's real UID
// and answers whether a requested target account exists. The caller name is
// never taken from the command line: the OS assigned the real UID and that
// is the only identity the policy check trusts.
package identity

import (
	"errors"
	"fmt"
	"os"

	"github.com/hnrobert/execas/internal/userdb"
)

var ErrUnknownTarget = errors.New("unknown target user")

// Identity is a resolved account. Immutable after resolution. Home and
// Shell ride along because the delegated process's environment is built
// from the target account, never from the caller's environment.
type Identity struct {
	Name  string
	UID   int
	Home  string
	Shell string
}

// Root reports whether this identity is the superuser.
func (id Identity) Root() bool {
	return id.UID == 0
}

// Resolver looks up accounts in an explicit passwd database.
type Resolver struct {
	passwdPath string
	// realUID overrides os.Getuid in tests; -1 means use the real value.
	realUID int
}

func NewResolver(passwdPath string) *Resolver {
	return &Resolver{passwdPath: passwdPath, realUID: -1}
}

// NewResolverForUID pins the caller UID, used by tests that cannot change
// the process credential.
func NewResolverForUID(passwdPath string, uid int) *Resolver {
	return &Resolver{passwdPath: passwdPath, realUID: uid}
}

// Caller resolves the invoking user from the real UID.
func (r *Resolver) Caller() (Identity, error) {
	uid := r.realUID
	if uid < 0 {
		uid = os.Getuid()
	}
	pw, err := userdb.LoadPasswd(r.passwdPath)
	if err != nil {
		return Identity{}, fmt.Errorf("load user database: %w", err)
	}
	e := pw.FindUID(uid)
	if e == nil {
		return Identity{}, fmt.Errorf("uid %d not present in user database", uid)
	}
	return Identity{Name: e.Name, UID: e.UID, Home: e.Home, Shell: e.Shell}, nil
}

// Lookup resolves a named account, failing with ErrUnknownTarget when the
// account does not exist. Checked before policy evaluation so later
// messages need not reveal whether an account exists.
func (r *Resolver) Lookup(name string) (Identity, error) {
	pw, err := userdb.LoadPasswd(r.passwdPath)
	if err != nil {
		return Identity{}, fmt.Errorf("load user database: %w", err)
	}
	e := pw.Find(name)
	if e == nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return Identity{Name: e.Name, UID: e.UID, Home: e.Home, Shell: e.Shell}, nil
}

// TargetExists reports whether the named account resolves.
func (r *Resolver) TargetExists(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}
