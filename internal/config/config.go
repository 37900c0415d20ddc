package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/adrg/xdg"
	"github.com/drone/envsubst"
	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"runcurry/internal/core"
)

// RelPath locates the config file below the XDG config directories.
const RelPath = "runcurry/config.yaml"

// Environment variables consulted by Load.
const (
	EnvConfig   = "RUNCURRY_CONFIG"
	EnvOptions  = "RUNCURRY_OPTIONS"
	EnvLogLevel = "RUNCURRY_LOG_LEVEL"
)

// Identity sources for temporary program names.
const (
	IdentityPID  = "pid"
	IdentityUUID = "uuid"
)

type Config struct {
	Toolchain    Toolchain
	Options      string
	Suffixes     []string
	JITDirective string `yaml:"jit_directive"`
	TempPrefix   string `yaml:"temp_prefix"`
	Identity     string
	Prompt       *string
	LogLevel     string `yaml:"log_level"`
	Telemetry    Telemetry
}

type Toolchain struct {
	REPL     string `yaml:"repl"`
	Cleaner  string
	Baseline []string
	Entry    string
}

type Telemetry struct {
	// TraceFile receives spans, metrics and log events. Empty disables
	// telemetry.
	TraceFile string `yaml:"trace_file"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	tc := core.DefaultToolchainConfig()
	return &Config{
		Toolchain: Toolchain{
			REPL:     tc.REPL,
			Cleaner:  tc.Cleaner,
			Baseline: tc.Baseline,
			Entry:    tc.Entry,
		},
		Suffixes:     slices.Clone(core.DefaultSuffixes),
		JITDirective: core.DefaultJITDirective,
		TempPrefix:   core.DefaultTempPrefix,
		Identity:     IdentityPID,
	}
}

// ParseConfig decodes b over the defaults and expands ${VAR} references in
// path-like and option fields using getenv. A nil getenv reads the process
// environment.
func ParseConfig(b []byte, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	for _, field := range []*string{
		&c.Toolchain.REPL,
		&c.Toolchain.Cleaner,
		&c.Options,
		&c.Telemetry.TraceFile,
	} {
		v, err := envsubst.Eval(*field, getenv)
		if err != nil {
			return nil, err
		}
		*field = v
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func FromFile(f string, getenv func(string) string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b, getenv)
}

// Load reads the file named by RUNCURRY_CONFIG, or else the first
// runcurry/config.yaml in the XDG config directories, falling back to
// Default. Environment overrides are applied last. Every variable, including
// the XDG ones, is read through getenv.
func Load(getenv func(string) string) (*Config, error) {
	path := getenv(EnvConfig)
	if path == "" {
		path = searchConfigFile(getenv)
	}

	c := Default()
	if path != "" {
		var err error
		if c, err = FromFile(path, getenv); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	if opts := getenv(EnvOptions); opts != "" {
		c.Options = strings.TrimSpace(c.Options + " " + opts)
	}
	if lvl := getenv(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
	}
	return c, nil
}

// configDirs lists the XDG config directories in search order. Unset
// variables fall back to the platform defaults resolved by xdg.
func configDirs(getenv func(string) string) []string {
	home := getenv("XDG_CONFIG_HOME")
	if home == "" {
		home = xdg.ConfigHome
	}
	dirs := []string{home}
	if list := getenv("XDG_CONFIG_DIRS"); list != "" {
		return append(dirs, filepath.SplitList(list)...)
	}
	return append(dirs, xdg.ConfigDirs...)
}

func searchConfigFile(getenv func(string) string) string {
	for _, dir := range configDirs(getenv) {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, RelPath)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// Validate checks the values a run cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Toolchain.REPL == "" {
		errs = append(errs, errors.New("toolchain.repl must not be empty"))
	}
	if c.Toolchain.Cleaner == "" {
		errs = append(errs, errors.New("toolchain.cleaner must not be empty"))
	}
	if len(c.Suffixes) == 0 {
		errs = append(errs, errors.New("suffixes must not be empty"))
	}
	for _, s := range c.Suffixes {
		if !strings.HasPrefix(s, ".") || len(s) < 2 {
			errs = append(errs, fmt.Errorf("suffix %q must start with a dot", s))
		}
	}
	if strings.TrimSpace(c.JITDirective) == "" {
		errs = append(errs, errors.New("jit_directive must not be empty"))
	}
	if c.TempPrefix == "" || !unicode.IsUpper(rune(c.TempPrefix[0])) {
		errs = append(errs, fmt.Errorf("temp_prefix %q must start with an upper-case letter", c.TempPrefix))
	}
	switch c.Identity {
	case IdentityPID, IdentityUUID:
	default:
		errs = append(errs, fmt.Errorf("identity %q must be %q or %q", c.Identity, IdentityPID, IdentityUUID))
	}
	return errors.Join(errs...)
}

// ToolchainOptions splits Options with shell quoting rules.
func (c *Config) ToolchainOptions() ([]string, error) {
	opts, err := shlex.Split(c.Options)
	if err != nil {
		return nil, fmt.Errorf("parsing options: %w", err)
	}
	return opts, nil
}

// ToolchainConfig converts the toolchain section for core.
func (c *Config) ToolchainConfig() core.ToolchainConfig {
	return core.ToolchainConfig{
		REPL:     c.Toolchain.REPL,
		Cleaner:  c.Toolchain.Cleaner,
		Baseline: slices.Clone(c.Toolchain.Baseline),
		Entry:    c.Toolchain.Entry,
	}
}

// IdentitySource returns the configured identity for temp names.
func (c *Config) IdentitySource() core.IdentitySource {
	if c.Identity == IdentityUUID {
		return core.UUIDIdentity{}
	}
	return core.ProcessIdentity{}
}

// PromptText returns the stdin prompt. An explicit empty prompt disables it.
func (c *Config) PromptText() string {
	if c.Prompt == nil {
		return core.DefaultPrompt
	}
	return *c.Prompt
}
