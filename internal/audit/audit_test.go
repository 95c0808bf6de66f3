package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
}

func newTestLog(t *testing.T, sealer *Sealer) *Log {
	t.Helper()
	l := NewLog(filepath.Join(t.TempDir(), "execas.log"), sealer)
	l.now = fixedNow
	return l
}

func readLog(t *testing.T, l *Log) []string {
	t.Helper()
	b, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestAppend_Format(t *testing.T) {
	l := newTestLog(t, nil)
	require.NoError(t, l.Append("bob", "root", "ls /root", OutcomeGranted))

	lines := readLog(t, l)
	require.Len(t, lines, 1)
	assert.Equal(t, `2026-08-26T10:30:00Z granted caller=bob target=root cmd="ls /root"`, lines[0])
}

func TestAppend_NeverTruncates(t *testing.T) {
	l := newTestLog(t, nil)
	require.NoError(t, l.Append("bob", "root", "ls", OutcomeGranted))
	require.NoError(t, l.Append("carol", "root", "ls", OutcomeDenied))

	lines := readLog(t, l)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "caller=bob")
	assert.Contains(t, lines[1], "caller=carol")
	assert.Contains(t, lines[1], " denied ")
}

func TestAppend_CreatesWithTightMode(t *testing.T) {
	l := newTestLog(t, nil)
	require.NoError(t, l.Append("bob", "root", "ls", OutcomeConfigError))
	st, err := os.Stat(l.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestAppend_FailureIsLogFailure(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "missing-dir", "execas.log"), nil)
	l.now = fixedNow
	err := l.Append("bob", "root", "ls", OutcomeGranted)
	assert.ErrorIs(t, err, ErrLogFailure)
}

func TestOutcome_RoundTrip(t *testing.T) {
	for _, o := range []Outcome{OutcomeGranted, OutcomeDenied, OutcomeConfigError, OutcomeExecFailure} {
		parsed, err := ParseOutcome(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}
	_, err := ParseOutcome("banana")
	assert.Error(t, err)
}

func TestSeal_VerifyFile(t *testing.T) {
	sealer, err := NewSealer([]byte("test-key"))
	require.NoError(t, err)

	l := newTestLog(t, sealer)
	require.NoError(t, l.Append("bob", "root", "ls /root", OutcomeGranted))
	require.NoError(t, l.Append("carol", "root", "ls /root", OutcomeDenied))

	n, err := sealer.VerifyFile(l.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSeal_DetectsEditedField(t *testing.T) {
	sealer, err := NewSealer([]byte("test-key"))
	require.NoError(t, err)

	l := newTestLog(t, sealer)
	require.NoError(t, l.Append("bob", "root", "ls /root", OutcomeDenied))

	// The attacker flips the recorded decision but cannot re-sign it.
	b, err := os.ReadFile(l.Path)
	require.NoError(t, err)
	tampered := strings.Replace(string(b), " denied ", " granted ", 1)
	require.NotEqual(t, string(b), tampered)
	require.NoError(t, os.WriteFile(l.Path, []byte(tampered), 0o600))

	_, err = sealer.VerifyFile(l.Path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestSeal_DetectsMissingSeal(t *testing.T) {
	sealer, err := NewSealer([]byte("test-key"))
	require.NoError(t, err)

	l := newTestLog(t, nil) // unsealed writer, sealed verifier
	require.NoError(t, l.Append("bob", "root", "ls", OutcomeGranted))

	_, err = sealer.VerifyFile(l.Path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not sealed")
}

func TestSeal_DetectsWrongKey(t *testing.T) {
	signer, err := NewSealer([]byte("key-one"))
	require.NoError(t, err)
	verifier, err := NewSealer([]byte("key-two"))
	require.NoError(t, err)

	l := newTestLog(t, signer)
	require.NoError(t, l.Append("bob", "root", "ls", OutcomeGranted))

	_, err = verifier.VerifyFile(l.Path)
	assert.Error(t, err)
}

func TestLoadSealer(t *testing.T) {
	s, err := LoadSealer("")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = LoadSealer(filepath.Join(t.TempDir(), "absent.key"))
	require.NoError(t, err)
	assert.Nil(t, s)

	path := filepath.Join(t.TempDir(), "seal.key")
	require.NoError(t, os.WriteFile(path, []byte("some-key-material\n"), 0o600))
	s, err = LoadSealer(path)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestParseLine_CommandWithQuotes(t *testing.T) {
	l := newTestLog(t, nil)
	require.NoError(t, l.Append("bob", "root", `sh -c "echo hi"`, OutcomeGranted))

	lines := readLog(t, l)
	rec, token, err := parseLine(lines[0])
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, `sh -c "echo hi"`, rec.Command)
	assert.Equal(t, OutcomeGranted, rec.Outcome)
	assert.Equal(t, fixedNow(), rec.Timestamp)
}
