// Package config provides configuration management for fardiff.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Locator   LocatorConfig   `mapstructure:"locator"`
	Treemap   TreemapConfig   `mapstructure:"treemap"`
	Report    ReportConfig    `mapstructure:"report"`
	Storage   StorageConfig   `mapstructure:"storage"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

// WorkspaceConfig holds scratch and asset locations.
type WorkspaceConfig struct {
	ScratchDir  string `mapstructure:"scratch_dir"`
	AssetsDir   string `mapstructure:"assets_dir"` // empty means embedded assets
	KeepScratch bool   `mapstructure:"keep_scratch"`
}

// ToolsConfig describes the external inspection tools.
type ToolsConfig struct {
	NM          string        `mapstructure:"nm"`
	NMArgs      []string      `mapstructure:"nm_args"`
	Objdump     string        `mapstructure:"objdump"`
	ObjdumpArgs []string      `mapstructure:"objdump_args"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrent  bool          `mapstructure:"concurrent"`
}

// LocatorConfig controls candidate discovery.
type LocatorConfig struct {
	LibrarySuffix     string   `mapstructure:"library_suffix"`
	ArchiveExtensions []string `mapstructure:"archive_extensions"`
	Hints             []string `mapstructure:"hints"`
}

// TreemapConfig controls tree construction.
type TreemapConfig struct {
	Grouping   string `mapstructure:"grouping"` // namespace or source
	Sort       string `mapstructure:"sort"`     // insertion, size or name
	ExcludeBSS bool   `mapstructure:"exclude_bss"`
}

// ReportConfig controls the generated document.
type ReportConfig struct {
	Output string `mapstructure:"output"`
	Title  string `mapstructure:"title"`
}

// StorageConfig holds object storage configuration for publishing reports.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // cos or local
	Prefix    string `mapstructure:"prefix"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// HistoryConfig holds the run-history database configuration.
type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, mysql or postgres
	Path     string `mapstructure:"path"` // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the specified file path. A missing file is
// not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("fardiff")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "fardiff"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return unmarshal(v)
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	cfg, err := unmarshal(newViper())
	if err != nil {
		// Defaults are static and always valid.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FARDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("workspace.scratch_dir", filepath.Join(os.TempDir(), "fardiff"))
	v.SetDefault("workspace.assets_dir", "")
	v.SetDefault("workspace.keep_scratch", true)

	v.SetDefault("tools.nm", "nm")
	v.SetDefault("tools.nm_args", []string{"-C", "-S", "-l"})
	v.SetDefault("tools.objdump", "objdump")
	v.SetDefault("tools.objdump_args", []string{"-h"})
	v.SetDefault("tools.timeout", 10*time.Minute)
	v.SetDefault("tools.concurrent", true)

	v.SetDefault("locator.library_suffix", ".so")
	v.SetDefault("locator.archive_extensions", []string{".zip", ".aar", ".apk"})
	v.SetDefault("locator.hints", []string{"renderer", "libfilament-jni"})

	v.SetDefault("treemap.grouping", "namespace")
	v.SetDefault("treemap.sort", "insertion")
	v.SetDefault("treemap.exclude_bss", false)

	v.SetDefault("report.output", "index.html")
	v.SetDefault("report.title", "")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.prefix", "fardiff")
	v.SetDefault("storage.local_path", "./reports")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.type", "sqlite")
	v.SetDefault("history.path", "./fardiff.db")
	v.SetDefault("history.max_conns", 4)

	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Tools.NM == "" || c.Tools.Objdump == "" {
		return fmt.Errorf("tool paths for nm and objdump are required")
	}
	if c.Tools.Timeout < 0 {
		return fmt.Errorf("tools timeout must not be negative")
	}
	if c.Locator.LibrarySuffix == "" {
		return fmt.Errorf("library suffix is required")
	}

	switch c.Treemap.Grouping {
	case "namespace", "source":
	default:
		return fmt.Errorf("unsupported treemap grouping: %s", c.Treemap.Grouping)
	}
	switch c.Treemap.Sort {
	case "insertion", "size", "name":
	default:
		return fmt.Errorf("unsupported treemap sort: %s", c.Treemap.Sort)
	}

	if c.Report.Output == "" {
		return fmt.Errorf("report output path is required")
	}

	// Storage details are validated by the storage package when publishing is enabled.

	if c.History.Enabled {
		switch c.History.Type {
		case "sqlite":
			if c.History.Path == "" {
				return fmt.Errorf("history path is required for sqlite")
			}
		case "mysql", "postgres":
			if c.History.Host == "" {
				return fmt.Errorf("history host is required for %s", c.History.Type)
			}
		default:
			return fmt.Errorf("unsupported history database type: %s", c.History.Type)
		}
	}

	return nil
}

// EnsureScratchDir creates the scratch directory if it doesn't exist.
func (c *Config) EnsureScratchDir() error {
	return os.MkdirAll(c.Workspace.ScratchDir, 0755)
}
