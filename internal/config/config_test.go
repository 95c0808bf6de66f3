package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicyPath, cfg.PolicyPath)
	assert.Equal(t, DefaultAuditPath, cfg.AuditLogPath)
	assert.Equal(t, "/bin/su", cfg.SuPath)
	assert.Equal(t, 0, cfg.TrustedOwnerUID)
	assert.NotEmpty(t, cfg.SafePath)
}

func TestLoad_OverridesMergeWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execas.yaml")
	content := `
policy_path: /tmp/test-policy
seal_key_file: /tmp/seal.key
safe_path: ["/bin"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-policy", cfg.PolicyPath)
	assert.Equal(t, "/tmp/seal.key", cfg.SealKeyPath)
	assert.Equal(t, []string{"/bin"}, cfg.SafePath)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultAuditPath, cfg.AuditLogPath)
	assert.Equal(t, "/bin/sh", cfg.Shell)
}

func TestLoad_RejectsEmptiedRequiredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`policy_path: ""`), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy_path: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
