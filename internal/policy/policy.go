// Package policy loads, validates and evaluates the execas authorization
// file. The file is trusted only after its ownership and permission bits
// pass the safety check; a file anyone but its owner could edit is a
// configuration fault, not a source of rules.
package policy

import "errors"

var (
	ErrConfigMissing  = errors.New("policy file missing")
	ErrConfigInsecure = errors.New("policy file insecure")
	ErrConfigParse    = errors.New("policy file syntax error")
)

// Rule grants one caller the right to become some set of targets.
// Rules are kept in file order; evaluation stops at the first match.
type Rule struct {
	Grantor  string
	Grantees map[string]struct{}
	Wildcard bool
}

// Policy is the parsed authorization file.
type Policy struct {
	Rules []Rule
}

// Empty returns the policy an absent file stands for: no rules, so only
// the axiomatically trusted superuser passes evaluation.
func Empty() *Policy {
	return &Policy{}
}

// Allows reports whether caller may become target. The superuser is always
// allowed without consulting any rule. Otherwise rules are scanned in file
// order and the first rule whose grantor matches decides only if it also
// grants the target; lines are independent, any one matching line suffices.
func (p *Policy) Allows(caller string, callerIsRoot bool, target string) bool {
	if callerIsRoot {
		return true
	}
	for _, r := range p.Rules {
		if r.Grantor != caller {
			continue
		}
		if r.Wildcard {
			return true
		}
		if _, ok := r.Grantees[target]; ok {
			return true
		}
	}
	return false
}
