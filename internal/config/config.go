package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/schaermu/spackup/internal/pkgrepo"
)

// Defaults for the canonical upstream repository
const (
	DefaultUpstreamURLSuffix = "spack/spack.git"
	DefaultUpstreamBranch    = "develop"
	DefaultGitBinary         = "git"
)

// Config represents the complete spackup configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Packages PackagesConfig `yaml:"packages"`
	Git      GitConfig      `yaml:"git"`
}

// PathsConfig configures local filesystem paths
type PathsConfig struct {
	Prefix string `yaml:"prefix"`
}

// UpstreamConfig identifies the canonical upstream branch
type UpstreamConfig struct {
	URLSuffix string `yaml:"url_suffix"`
	Branch    string `yaml:"branch"`
}

// PackagesConfig describes where package definitions live in the checkout
type PackagesConfig struct {
	Root     string `yaml:"root"`
	Filename string `yaml:"filename"`
}

// GitConfig configures the git client
type GitConfig struct {
	Binary string   `yaml:"binary"`
	Config []string `yaml:"config"`
}

// Default returns a configuration with every field set to its default
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Expand environment variables in string fields
	cfg.expandEnv()

	// Apply defaults
	cfg.applyDefaults()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Paths.Prefix = os.ExpandEnv(c.Paths.Prefix)
	c.Upstream.URLSuffix = os.ExpandEnv(c.Upstream.URLSuffix)
	c.Upstream.Branch = os.ExpandEnv(c.Upstream.Branch)
	c.Packages.Root = os.ExpandEnv(c.Packages.Root)
	c.Packages.Filename = os.ExpandEnv(c.Packages.Filename)
	c.Git.Binary = os.ExpandEnv(c.Git.Binary)
	for i, kv := range c.Git.Config {
		c.Git.Config[i] = os.ExpandEnv(kv)
	}
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Upstream.URLSuffix == "" {
		c.Upstream.URLSuffix = DefaultUpstreamURLSuffix
	}
	if c.Upstream.Branch == "" {
		c.Upstream.Branch = DefaultUpstreamBranch
	}
	if c.Packages.Root == "" {
		c.Packages.Root = pkgrepo.DefaultRoot
	}
	if c.Packages.Filename == "" {
		c.Packages.Filename = pkgrepo.DefaultFilename
	}
	if c.Git.Binary == "" {
		c.Git.Binary = DefaultGitBinary
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Paths.Prefix != "" && !filepath.IsAbs(c.Paths.Prefix) {
		return fmt.Errorf("paths.prefix must be an absolute path: %s", c.Paths.Prefix)
	}

	if strings.Contains(c.Packages.Filename, "/") {
		return fmt.Errorf("packages.filename must be a file name, not a path: %s", c.Packages.Filename)
	}
	if filepath.IsAbs(c.Packages.Root) {
		return fmt.Errorf("packages.root must be relative to the prefix: %s", c.Packages.Root)
	}

	for _, kv := range c.Git.Config {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("invalid git.config entry %q (must be key=value)", kv)
		}
	}

	return nil
}

// ResolvePrefix fills in paths.prefix from the location of the running
// executable when it is not configured: <prefix>/bin/<binary>.
func (c *Config) ResolvePrefix() error {
	if c.Paths.Prefix != "" {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	c.Paths.Prefix = filepath.Dir(filepath.Dir(exe))
	return nil
}

// Layout returns the package repository layout
func (c *Config) Layout() pkgrepo.Layout {
	return pkgrepo.Layout{
		Root:     c.Packages.Root,
		Filename: c.Packages.Filename,
	}
}
