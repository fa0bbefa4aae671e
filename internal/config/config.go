package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
)

const (
	envPrefix = "SCHEMALOCK"
	dirName   = ".schemalock"
)

// Global configuration structure.
type Global struct {
	// Metadata file written by sanitize and read by schema commands.
	MetadataPath string `mapstructure:"metadata_path" yaml:"metadata_path"`
	Persist      bool   `mapstructure:"persist" yaml:"persist"`

	// Feature resolution
	DropPart     bool     `mapstructure:"drop_part" yaml:"drop_part"`
	TargetColumn string   `mapstructure:"target_column" yaml:"target_column"`
	PartColumn   string   `mapstructure:"part_column" yaml:"part_column"`
	Blocklist    []string `mapstructure:"blocklist" yaml:"blocklist"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Dataset profiling
	SampleRows int `mapstructure:"sample_rows" yaml:"sample_rows"`
	MaxRows    int `mapstructure:"max_rows" yaml:"max_rows"`

	WatchSettleMs int `mapstructure:"watch_settle_ms" yaml:"watch_settle_ms"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"metadata_path", "persist", "drop_part", "target_column", "part_column", "blocklist",
	"log_level", "log_format", "sample_rows", "max_rows", "watch_settle_ms",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("metadata_path", "feature_metadata.json")
	v.SetDefault("persist", true)
	v.SetDefault("drop_part", false)
	v.SetDefault("target_column", "price")
	v.SetDefault("part_column", "part")
	v.SetDefault("blocklist", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("sample_rows", 5)
	v.SetDefault("max_rows", 100000)
	v.SetDefault("watch_settle_ms", 250)
}

// DefaultPath returns ~/.schemalock/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.schemalock/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an
// error; a malformed one is.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !apperr.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Blocklist == nil {
		c.Blocklist = []string{}
	}
	return &c, nil
}

// Set assigns key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "metadata_path":
		if strings.TrimSpace(val) == "" {
			return apperr.InvalidValue("metadata_path must not be empty")
		}
		c.MetadataPath = val
	case "persist":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return apperr.InvalidValue("invalid bool for persist: %v", val)
		}
		c.Persist = b
	case "drop_part":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return apperr.InvalidValue("invalid bool for drop_part: %v", val)
		}
		c.DropPart = b
	case "target_column":
		c.TargetColumn = val
	case "part_column":
		c.PartColumn = val
	case "blocklist":
		c.Blocklist = splitList(val)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return apperr.InvalidValue("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return apperr.InvalidValue("invalid log_format: %s (use text or json)", val)
		}
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return apperr.InvalidValue("invalid int for sample_rows: %v", val)
		}
		c.SampleRows = i
	case "max_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return apperr.InvalidValue("invalid int for max_rows: %v", val)
		}
		c.MaxRows = i
	case "watch_settle_ms":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return apperr.InvalidValue("invalid int for watch_settle_ms: %v", val)
		}
		c.WatchSettleMs = i
	default:
		return apperr.InvalidValue("unknown key: %s", key)
	}
	return nil
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "metadata_path":
		return c.MetadataPath, nil
	case "persist":
		return strconv.FormatBool(c.Persist), nil
	case "drop_part":
		return strconv.FormatBool(c.DropPart), nil
	case "target_column":
		return c.TargetColumn, nil
	case "part_column":
		return c.PartColumn, nil
	case "blocklist":
		return strings.Join(c.Blocklist, ","), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "watch_settle_ms":
		return strconv.Itoa(c.WatchSettleMs), nil
	}
	return "", apperr.InvalidValue("unknown key: %s", key)
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(val string) []string {
	out := []string{}
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
