// Package tapconfig loads and validates the tap configuration file,
// which declares the formulas of a tap and how to locate their release
// assets upstream.
package tapconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/brewtap-tools/tapsync/pkg/ghrelease"
	"github.com/brewtap-tools/tapsync/pkg/platform"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

const (
	// Default config file paths, tried in order.
	DefaultConfigPathYML  = ".config/tapsync.yml"
	DefaultConfigPathYAML = ".config/tapsync.yaml"
)

// Config is the on-disk tap configuration.
type Config struct {
	// Tap is the tap repository name, e.g. "acme/homebrew-tools".
	// Informational; used in commit messages and logs.
	Tap string `yaml:"tap,omitempty"`

	Formulas []Formula `yaml:"formulas"`
}

// Formula declares one formula of the tap and its upstream repository.
type Formula struct {
	// Name is the formula name, e.g. "packr".
	Name string `yaml:"name"`

	// Repo is the upstream GitHub repository, "owner/name".
	Repo string `yaml:"repo"`

	// FormulaFile is the path to the formula definition, relative to
	// the tap root. Defaults to Formula/<name>.rb.
	FormulaFile string `yaml:"formula,omitempty"`

	// AssetTemplate names the release asset exactly, with ${NAME},
	// ${VERSION}, ${TAG}, ${OS} and ${ARCH} interpolation. When set it
	// takes precedence over Platforms token scanning.
	AssetTemplate string `yaml:"asset_template,omitempty"`

	// Platforms is the (os, arch) token priority used to scan asset
	// names when no AssetTemplate is given.
	Platforms []platform.Pair `yaml:"platforms,omitempty"`
}

// Path returns the formula file path, applying the default layout.
func (f Formula) Path() string {
	if f.FormulaFile != "" {
		return f.FormulaFile
	}
	return filepath.Join("Formula", f.Name+".rb")
}

// Validate checks the formula declaration without touching the network.
func (f Formula) Validate() error {
	if f.Name == "" {
		return errors.New("formula name must not be empty")
	}
	if _, _, err := ghrelease.SplitRepo(f.Repo); err != nil {
		return errors.Wrapf(err, "formula %s", f.Name)
	}
	// AssetTemplate and Platforms may both be empty, in which case the
	// synchronizer falls back to host-platform token scanning.
	return nil
}

// Validate checks the whole config.
func (c *Config) Validate() error {
	if len(c.Formulas) == 0 {
		return errors.New("config declares no formulas")
	}
	seen := make(map[string]bool, len(c.Formulas))
	for _, f := range c.Formulas {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate formula name: %s", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// FormulaByName returns the named formula declaration.
func (c *Config) FormulaByName(name string) (Formula, error) {
	for _, f := range c.Formulas {
		if f.Name == name {
			return f, nil
		}
	}
	return Formula{}, fmt.Errorf("formula %s not declared in config", name)
}

// ResolveConfigFile determines the config file path to use. If path is
// not empty it is returned as-is; otherwise the default locations are
// tried in order.
func ResolveConfigFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	for _, candidate := range []string{DefaultConfigPathYML, DefaultConfigPathYAML} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("config file not specified via --config and default (%s or %s) not found",
		DefaultConfigPathYML, DefaultConfigPathYAML)
}

// Load reads and validates a tap config file.
func Load(path string) (*Config, error) {
	log.Debugf("reading tap config from: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return &cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}
