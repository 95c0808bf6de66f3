package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sealIssuer = "execas"

// Sealer signs audit records with an HS256 key so the log is tamper
// evident: editing the human-readable fields, or the seal, or dropping the
// seal entirely is detectable by anyone holding the key.
type Sealer struct {
	key []byte
}

// NewSealer wraps the raw key bytes, conventionally read from a root-owned
// key file.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return nil, errors.New("empty seal key")
	}
	return &Sealer{key: key}, nil
}

// LoadSealer reads the key file. An absent file means sealing is simply
// not configured, reported as (nil, nil).
func LoadSealer(path string) (*Sealer, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read seal key: %w", err)
	}
	return NewSealer([]byte(strings.TrimSpace(string(b))))
}

type sealClaims struct {
	Caller  string `json:"caller"`
	Target  string `json:"target"`
	Command string `json:"cmd"`
	Outcome string `json:"outcome"`
	jwt.RegisteredClaims
}

// Seal signs one record.
func (s *Sealer) Seal(r Record) (string, error) {
	claims := sealClaims{
		Caller:  r.Caller,
		Target:  r.Target,
		Command: r.Command,
		Outcome: r.Outcome.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   sealIssuer,
			IssuedAt: jwt.NewNumericDate(r.Timestamp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.key)
}

// check validates one seal against the plain-text record it rode in with.
// Both sides must agree: a forged plain text with the old seal and a forged
// seal over the old text are equally invalid.
func (s *Sealer) check(r Record, token string) error {
	parsed, err := jwt.ParseWithClaims(token, &sealClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithIssuer(sealIssuer))
	if err != nil {
		return err
	}
	claims, ok := parsed.Claims.(*sealClaims)
	if !ok || !parsed.Valid {
		return errors.New("invalid seal")
	}
	if claims.Caller != r.Caller || claims.Target != r.Target ||
		claims.Command != r.Command || claims.Outcome != r.Outcome.String() {
		return errors.New("seal does not match record fields")
	}
	if !claims.IssuedAt.Time.Equal(r.Timestamp) {
		return errors.New("seal does not match record timestamp")
	}
	return nil
}

var recordRe = regexp.MustCompile(
	`^(\S+) (\S+) caller=(\S+) target=(\S+) cmd=("(?:[^"\\]|\\.)*")(?: seal=(\S+))?$`)

// parseLine parses one log line back into a Record plus its seal token
// (empty when unsealed).
func parseLine(line string) (Record, string, error) {
	m := recordRe.FindStringSubmatch(line)
	if m == nil {
		return Record{}, "", fmt.Errorf("unrecognized record shape")
	}
	ts, err := time.Parse(time.RFC3339, m[1])
	if err != nil {
		return Record{}, "", fmt.Errorf("bad timestamp: %w", err)
	}
	outcome, err := ParseOutcome(m[2])
	if err != nil {
		return Record{}, "", err
	}
	command, err := strconv.Unquote(m[5])
	if err != nil {
		return Record{}, "", fmt.Errorf("bad command quoting: %w", err)
	}
	return Record{
		Timestamp: ts,
		Caller:    m[3],
		Target:    m[4],
		Command:   command,
		Outcome:   outcome,
	}, m[6], nil
}

// VerifyFile re-validates every line of a sealed log. It fails on the
// first line that is malformed, carries no seal, or carries a seal that
// does not verify against the plain-text fields.
func (s *Sealer) VerifyFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	checked := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, token, err := parseLine(line)
		if err != nil {
			return checked, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if token == "" {
			return checked, fmt.Errorf("line %d: record is not sealed", lineNo)
		}
		if err := s.check(rec, token); err != nil {
			return checked, fmt.Errorf("line %d: %w", lineNo, err)
		}
		checked++
	}
	if err := scanner.Err(); err != nil {
		return checked, err
	}
	return checked, nil
}
