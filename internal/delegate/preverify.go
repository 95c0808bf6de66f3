package delegate

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/execas/internal/credential"
	"github.com/hnrobert/execas/internal/userdb"
)

var ErrAuthFailed = errors.New("authentication failed")

// PreVerify checks the credential against the target's shadow hash before
// any child process is spawned. It is best-effort hardening: when the
// shadow file is unreadable, the entry is absent, or the hash format is
// one the crypt package cannot handle (yescrypt on current Ubuntu, for
// example), it reports nothing and the su prompt remains the authority.
// A definite mismatch or a locked account fails with ErrAuthFailed.
func PreVerify(shadowPath, target string, cred *credential.Buffer) error {
	sh, err := userdb.LoadShadow(shadowPath)
	if err != nil {
		if os.IsPermission(err) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load shadow database: %w", err)
	}
	se := sh.Find(target)
	if se == nil {
		return nil
	}
	if se.Hash == "" || strings.HasPrefix(se.Hash, "!") || strings.HasPrefix(se.Hash, "*") {
		return fmt.Errorf("%w: account %s is locked", ErrAuthFailed, target)
	}

	ok, known := verifyCrypt(se.Hash, cred.Bytes())
	if !known {
		return nil
	}
	if !ok {
		return ErrAuthFailed
	}
	return nil
}

// verifyCrypt tries the crypt formats the GehirnInc package supports:
// $1$ (md5-crypt), $5$ (sha256-crypt), $6$ (sha512-crypt). The second
// return value is false when the hash is in some other format and no
// verdict is possible.
func verifyCrypt(hash string, password []byte) (ok, known bool) {
	var crypters []crypt.Crypter
	switch {
	case strings.HasPrefix(hash, "$6$"):
		crypters = append(crypters, sha512_crypt.New())
	case strings.HasPrefix(hash, "$5$"):
		crypters = append(crypters, sha256_crypt.New())
	case strings.HasPrefix(hash, "$1$"):
		crypters = append(crypters, md5_crypt.New())
	default:
		return false, false
	}
	for _, c := range crypters {
		if err := c.Verify(hash, password); err == nil {
			return true, true
		}
	}
	return false, true
}
