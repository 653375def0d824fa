package crypt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	kerrors "github.com/fernvale/daybook/internal/errors"
)

// sopsFile is the structural shape of a .sops.yaml config. Only presence of
// sections is validated; the tool owns the semantics.
type sopsFile struct {
	CreationRules []creationRule `yaml:"creation_rules"`
}

// creationRule maps a path pattern to one or more key-backend declarations.
// Backend fields accept scalars or lists, so they are held loosely.
type creationRule struct {
	PathRegex     string `yaml:"path_regex"`
	Age           any    `yaml:"age"`
	PGP           any    `yaml:"pgp"`
	KMS           any    `yaml:"kms"`
	GCPKMS        any    `yaml:"gcp_kms"`
	AzureKeyvault any    `yaml:"azure_keyvault"`
	HCVault       any    `yaml:"hc_vault_transit_uri"`
	KeyGroups     []any  `yaml:"key_groups"`
}

func (r creationRule) hasKeyBackend() bool {
	for _, backend := range []any{r.Age, r.PGP, r.KMS, r.GCPKMS, r.AzureKeyvault, r.HCVault} {
		if backend != nil && backend != "" {
			return true
		}
	}
	return len(r.KeyGroups) > 0
}

// ValidateConfig checks the encryption config structurally: it must parse as
// YAML, contain at least one creation rule, and at least one rule must
// declare a recognized key backend. It does not validate that keys are
// usable; the round-trip test is the authoritative signal for that.
func ValidateConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrConfigNotFound, path, err)
	}

	var cfg sopsFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrConfigInvalid, path, err)
	}

	if len(cfg.CreationRules) == 0 {
		return fmt.Errorf("%w: %s: no creation rules", kerrors.ErrConfigInvalid, path)
	}

	for _, rule := range cfg.CreationRules {
		if rule.hasKeyBackend() {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: no creation rule declares a key backend", kerrors.ErrConfigInvalid, path)
}
