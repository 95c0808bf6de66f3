// Package config carries the runtime configuration of execas. Every path
// and constant a component needs is injected from here at construction
// time; nothing in the tool reads ambient package globals, so tests run
// entirely against temporary files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/execas.yaml"
	DefaultPolicyPath = "/etc/execasers"
	DefaultAuditPath  = "/var/log/execas.log"
)

type Config struct {
	// PolicyPath is the administrator-maintained authorization file.
	PolicyPath string `yaml:"policy_path"`
	// AuditLogPath receives one append-only record per decision.
	AuditLogPath string `yaml:"audit_log"`
	// SealKeyPath, when present, holds the HS256 key that seals audit
	// records. Empty or absent disables sealing.
	SealKeyPath string `yaml:"seal_key_file"`

	PasswdPath string `yaml:"passwd_path"`
	ShadowPath string `yaml:"shadow_path"`

	// SuPath is the OS privilege primitive invoked for the actual UID
	// switch.
	SuPath string `yaml:"su_path"`
	// Shell runs the delegated command string under su -s.
	Shell string `yaml:"shell"`
	// SafePath is the PATH handed to the delegated process. The caller's
	// own environment never rides along.
	SafePath []string `yaml:"safe_path"`

	// TrustedOwnerUID is the only account allowed to own the policy file.
	TrustedOwnerUID int `yaml:"trusted_owner_uid"`
}

func Default() Config {
	return Config{
		PolicyPath:   DefaultPolicyPath,
		AuditLogPath: DefaultAuditPath,
		PasswdPath:   "/etc/passwd",
		ShadowPath:   "/etc/shadow",
		SuPath:       "/bin/su",
		Shell:        "/bin/sh",
		SafePath: []string{
			"/usr/local/sbin",
			"/usr/local/bin",
			"/usr/sbin",
			"/usr/bin",
			"/sbin",
			"/bin",
		},
		TrustedOwnerUID: 0,
	}
}

// Load reads the YAML config at path on top of the defaults. A missing
// file is not an error: the defaults describe a stock installation.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PolicyPath == "" {
		return errors.New("policy_path must not be empty")
	}
	if c.AuditLogPath == "" {
		return errors.New("audit_log must not be empty")
	}
	if c.SuPath == "" {
		return errors.New("su_path must not be empty")
	}
	if len(c.SafePath) == 0 {
		return errors.New("safe_path must not be empty")
	}
	return nil
}
