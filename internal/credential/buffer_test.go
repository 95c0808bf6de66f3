package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromBytes_ZeroesSource(t *testing.T) {
	source := []byte("hunter2")
	b, err := NewFromBytes(source)
	require.NoError(t, err)
	defer b.Close()

	// The caller's slice no longer holds the secret.
	for i, v := range source {
		assert.Zerof(t, v, "source byte %d not wiped", i)
	}
	assert.Equal(t, []byte("hunter2"), b.Bytes())
	assert.Equal(t, 7, b.Len())
}

func TestNewFromBytes_Empty(t *testing.T) {
	_, err := NewFromBytes(nil)
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestClose_Idempotent(t *testing.T) {
	b, err := NewFromBytes([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}

func TestBytes_PanicsAfterClose(t *testing.T) {
	b, err := NewFromBytes([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	assert.Panics(t, func() { _ = b.Bytes() })
}

func TestZero(t *testing.T) {
	data := []byte{1, 2, 3}
	Zero(data)
	assert.Equal(t, []byte{0, 0, 0}, data)
}
