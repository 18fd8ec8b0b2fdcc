package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FCMCP"

// Config carries every path and endpoint the installer touches. All well-known
// locations are explicit values threaded into components at construction, so
// tests can point the whole pipeline at temporary roots.
type Config struct {
	Owner        string `mapstructure:"owner"`
	Repo         string `mapstructure:"repo"`
	APIBase      string `mapstructure:"api_base"`
	DownloadBase string `mapstructure:"download_base"`
	RawBase      string `mapstructure:"raw_base"`
	Branch       string `mapstructure:"branch"`

	// PackageName is the payload directory the extracted archive must contain.
	PackageName string `mapstructure:"package_name"`
	// ModDir is the host application's plugin directory. Empty means the
	// per-OS default (see DefaultModDir).
	ModDir string `mapstructure:"mod_dir"`
	// StateDir holds the installed-version file and the bridge artifact.
	// Empty means <user config dir>/fcmcp.
	StateDir string `mapstructure:"state_dir"`

	BridgeFile string `mapstructure:"bridge_file"`

	// HostCheck selects what happens when the host application is not found:
	// "advisory" warns and continues, "required" aborts.
	HostCheck string `mapstructure:"host_check"`

	LocateDepth int `mapstructure:"locate_depth"`

	HTTPTimeoutSeconds int `mapstructure:"http_timeout_seconds"`

	Registrar RegistrarConfig `mapstructure:"registrar"`
	Verify    VerifyConfig    `mapstructure:"verify"`
}

// RegistrarConfig describes the external CLI the bridge is registered with.
type RegistrarConfig struct {
	Bin        string   `mapstructure:"bin"`
	AddArgs    []string `mapstructure:"add_args"`
	ServerName string   `mapstructure:"server_name"`
}

// VerifyConfig controls optional archive verification.
type VerifyConfig struct {
	// MinisignKey is the path to a minisign public key file. When set and the
	// release carries a matching .minisig asset, the archive signature is
	// verified before extraction.
	MinisignKey string `mapstructure:"minisign_key"`
}

type loadSettings struct {
	configFile string
	stateDir   string
	modDir     string
	skipEnv    bool
}

// Option adjusts Load behaviour. Primarily for tests to inject paths.
type Option func(*loadSettings)

// WithConfigFile sets an explicit config file instead of the default lookup.
func WithConfigFile(path string) Option {
	return func(s *loadSettings) { s.configFile = path }
}

// WithStateDir overrides the per-user state directory.
func WithStateDir(dir string) Option {
	return func(s *loadSettings) { s.stateDir = dir }
}

// WithModDir overrides the host plugin directory.
func WithModDir(dir string) Option {
	return func(s *loadSettings) { s.modDir = dir }
}

// WithoutEnv disables environment variable overrides, keeping tests hermetic.
func WithoutEnv() Option {
	return func(s *loadSettings) { s.skipEnv = true }
}

// Load assembles configuration with precedence
// defaults < config file < environment < options.
// A config file, when present, must validate against the embedded schema
// before viper reads it.
func Load(opts ...Option) (*Config, error) {
	var settings loadSettings
	for _, opt := range opts {
		opt(&settings)
	}

	v := viper.New()
	setDefaults(v)

	if !settings.skipEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	path := settings.configFile
	if path == "" {
		path = defaultConfigFile()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := ValidateFile(path); err != nil {
				return nil, err
			}
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if settings.configFile != "" {
			// An explicitly requested file must exist.
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if settings.stateDir != "" {
		cfg.StateDir = settings.stateDir
	}
	if settings.modDir != "" {
		cfg.ModDir = settings.modDir
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	if cfg.ModDir == "" {
		cfg.ModDir = DefaultModDir()
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("owner", "contextform")
	v.SetDefault("repo", "freecad-mcp")
	v.SetDefault("api_base", "https://api.github.com")
	v.SetDefault("download_base", "https://github.com")
	v.SetDefault("raw_base", "https://raw.githubusercontent.com")
	v.SetDefault("branch", "main")
	v.SetDefault("package_name", "AICopilot")
	v.SetDefault("bridge_file", "working_bridge.py")
	v.SetDefault("host_check", HostCheckAdvisory)
	v.SetDefault("locate_depth", 3)
	v.SetDefault("http_timeout_seconds", 60)
	v.SetDefault("registrar.bin", "claude")
	v.SetDefault("registrar.add_args", []string{"mcp", "add"})
	v.SetDefault("registrar.server_name", "freecad")
}

// Host-check policies.
const (
	HostCheckAdvisory = "advisory"
	HostCheckRequired = "required"
)

func (c *Config) check() error {
	var problems []string
	if strings.TrimSpace(c.Owner) == "" {
		problems = append(problems, "owner: missing")
	}
	if strings.TrimSpace(c.Repo) == "" {
		problems = append(problems, "repo: missing")
	}
	if strings.TrimSpace(c.PackageName) == "" {
		problems = append(problems, "package_name: missing")
	}
	if c.HostCheck != HostCheckAdvisory && c.HostCheck != HostCheckRequired {
		problems = append(problems, fmt.Sprintf("host_check: unsupported %q (supported: advisory, required)", c.HostCheck))
	}
	if c.LocateDepth < 1 {
		problems = append(problems, fmt.Sprintf("locate_depth: must be >= 1 (got %d)", c.LocateDepth))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// TargetDir is the live install directory for the payload.
func (c *Config) TargetDir() string {
	return filepath.Join(c.ModDir, c.PackageName)
}

// VersionFile is the path of the persisted installed-version identifier.
func (c *Config) VersionFile() string {
	return filepath.Join(c.StateDir, "installed_version")
}

// BridgePath is the local path of the companion bridge artifact.
func (c *Config) BridgePath() string {
	return filepath.Join(c.StateDir, c.BridgeFile)
}

// BridgeURL is the raw-file URL the bridge artifact is fetched from.
func (c *Config) BridgeURL() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.TrimRight(c.RawBase, "/"), c.Owner, c.Repo, c.Branch, c.BridgeFile)
}

// HTTPTimeout returns the configured transport timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// DefaultModDir returns the host application's plugin directory for this OS.
func DefaultModDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "FreeCAD", "Mod")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", "FreeCAD", "Mod")
		}
	default:
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".FreeCAD", "Mod")
		}
	}
	return filepath.Join(".", "FreeCAD", "Mod")
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "fcmcp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fcmcp")
}

func defaultConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "fcmcp", "config.json")
	}
	return ""
}
