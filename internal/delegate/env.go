package delegate

import (
	"fmt"
	"strings"

	"github.com/hnrobert/execas/internal/identity"
)

// BuildEnv constructs the complete environment of the delegated process.
// Nothing is inherited from the caller except TERM: a minimal explicit
// environment keeps LD_PRELOAD, PATH hijacks and similar variables from
// riding along into the elevated process.
func BuildEnv(safePath []string, target identity.Identity, term string) []string {
	env := []string{
		"PATH=" + strings.Join(safePath, ":"),
		"HOME=" + target.Home,
		"USER=" + target.Name,
		"LOGNAME=" + target.Name,
		"SHELL=" + target.Shell,
	}
	if term != "" {
		env = append(env, "TERM="+term)
	}
	return env
}

// shellJoin renders argv as a single shell command word sequence for
// su -c, single-quoting every argument so the shell cannot reinterpret it.
func shellJoin(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		quoted = append(quoted, shellQuote(a))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$`!*?[](){}<>|&;~#") {
		return s
	}
	return fmt.Sprintf("'%s'", strings.ReplaceAll(s, "'", `'\''`))
}
