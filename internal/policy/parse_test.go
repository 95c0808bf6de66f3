package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Rules(t *testing.T) {
	p, err := Parse("!alice(bob,carol)\n!bob(root)\n")
	require.NoError(t, err)
	require.Len(t, p.Rules, 2)

	assert.Equal(t, "alice", p.Rules[0].Grantor)
	assert.False(t, p.Rules[0].Wildcard)
	assert.Contains(t, p.Rules[0].Grantees, "bob")
	assert.Contains(t, p.Rules[0].Grantees, "carol")

	assert.Equal(t, "bob", p.Rules[1].Grantor)
	assert.Contains(t, p.Rules[1].Grantees, "root")
}

func TestParse_Wildcard(t *testing.T) {
	p, err := Parse("!alice(all)")
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.True(t, p.Rules[0].Wildcard)
}

func TestParse_WhitespaceInsignificant(t *testing.T) {
	p, err := Parse("  ! alice ( bob , carol )  ")
	// Leading whitespace is trimmed, but "! alice" has whitespace inside
	// the grantor position; the grantor itself is trimmed, so this parses.
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.Equal(t, "alice", p.Rules[0].Grantor)
	assert.Contains(t, p.Rules[0].Grantees, "bob")
	assert.Contains(t, p.Rules[0].Grantees, "carol")
}

func TestParse_CommentsAndBlanks(t *testing.T) {
	content := `
# grants for the admin team

!alice(bob)

# trailing comment
`
	p, err := Parse(content)
	require.NoError(t, err)
	assert.Len(t, p.Rules, 1)
}

func TestParse_BlockComment(t *testing.T) {
	content := `* this documentation block
spans several lines
and even holds things that look like rules:
!mallory(all)
*
!alice(bob)
`
	p, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.Equal(t, "alice", p.Rules[0].Grantor)
}

func TestParse_OneLineBlockComment(t *testing.T) {
	p, err := Parse("* one line note *\n!alice(bob)\n")
	require.NoError(t, err)
	assert.Len(t, p.Rules, 1)
}

func TestParse_UnterminatedBlock(t *testing.T) {
	_, err := Parse("* never closed\n!alice(bob)\n")
	assert.ErrorIs(t, err, ErrConfigParse)
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"legacy token form", "!alice bob carol"},
		{"missing open paren", "!alice bob)"},
		{"missing close paren", "!alice(bob"},
		{"no bang", "alice(bob)"},
		{"empty grantor", "!(bob)"},
		{"empty list", "!alice()"},
		{"empty element", "!alice(bob,,carol)"},
		{"nested parens", "!alice((bob))"},
		{"target with space", "!alice(bob carol)"},
		{"trailing garbage", "!alice(bob) extra"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.content)
			assert.ErrorIs(t, err, ErrConfigParse, "content %q must be rejected", tc.content)
		})
	}
}

func TestParse_ErrorNamesLine(t *testing.T) {
	_, err := Parse("!alice(bob)\n!broken\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
