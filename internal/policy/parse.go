package policy

import (
	"fmt"
	"strings"
)

// Grammar, line oriented:
//
//	# comment                 ignored
//	(blank)                   ignored
//	* opening line            block comment until a line that is exactly "*";
//	                          a line both starting and ending with "*" is a
//	                          self-contained one-line block
//	!caller(tgt1, tgt2)       rule; the literal target "all" is a wildcard
//
// Anything else is a syntax error. The legacy whitespace-token rule form is
// deliberately rejected: an ambiguous line must never grant access.

const wildcardToken = "all"

// Parse parses policy file content. Errors wrap ErrConfigParse and carry
// the offending line number.
func Parse(content string) (*Policy, error) {
	p := &Policy{}
	inBlock := false

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trim := strings.TrimSpace(line)

		if inBlock {
			if trim == "*" {
				inBlock = false
			}
			continue
		}
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		if strings.HasPrefix(trim, "*") {
			// One-line block closes itself; anything longer opens a block.
			if len(trim) > 1 && strings.HasSuffix(trim, "*") {
				continue
			}
			inBlock = true
			continue
		}

		rule, err := parseRule(trim)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrConfigParse, i+1, err)
		}
		p.Rules = append(p.Rules, rule)
	}

	if inBlock {
		return nil, fmt.Errorf("%w: unterminated comment block", ErrConfigParse)
	}
	return p, nil
}

// parseRule handles the canonical form !caller(a, b, c) with insignificant
// whitespace around every token.
func parseRule(line string) (Rule, error) {
	if !strings.HasPrefix(line, "!") {
		return Rule{}, fmt.Errorf("rule must start with '!'")
	}
	rest := line[1:]

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return Rule{}, fmt.Errorf("missing '(' in rule")
	}
	if !strings.HasSuffix(rest, ")") {
		return Rule{}, fmt.Errorf("missing ')' at end of rule")
	}

	grantor := strings.TrimSpace(rest[:open])
	if grantor == "" {
		return Rule{}, fmt.Errorf("empty grantor")
	}
	if strings.ContainsAny(grantor, " \t") {
		return Rule{}, fmt.Errorf("grantor %q contains whitespace", grantor)
	}

	inner := rest[open+1 : len(rest)-1]
	if strings.ContainsAny(inner, "()") {
		return Rule{}, fmt.Errorf("nested parentheses")
	}

	rule := Rule{Grantor: grantor, Grantees: map[string]struct{}{}}
	for _, tok := range strings.Split(inner, ",") {
		name := strings.TrimSpace(tok)
		if name == "" {
			return Rule{}, fmt.Errorf("empty target in list")
		}
		if strings.ContainsAny(name, " \t") {
			return Rule{}, fmt.Errorf("target %q contains whitespace", name)
		}
		if name == wildcardToken {
			rule.Wildcard = true
			continue
		}
		rule.Grantees[name] = struct{}{}
	}
	if !rule.Wildcard && len(rule.Grantees) == 0 {
		return Rule{}, fmt.Errorf("rule grants nothing")
	}
	return rule, nil
}
