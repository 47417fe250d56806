// Package config loads packagery settings from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/packagery/internal/render"
)

// configName is the config file name without extension.
const configName = ".packagery"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for packagery settings.
const envPrefix = "PACKAGERY"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Defaults applied when neither the config file nor the environment sets a
// value.
const (
	DefaultRoot             = "."
	DefaultRequirementsFile = "requirements.txt"
	DefaultModuleMapFile    = "module_to_requirement.tsv"
	DefaultFormat           = render.FormatVerbose
)

// ErrBadFormat is returned when the configured output format is not
// recognized.
var ErrBadFormat = errors.New("unknown output format")

// Config is the top-level configuration struct for packagery.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Root         string `mapstructure:"root"`
	Requirements string `mapstructure:"requirements"`
	ModuleMap    string `mapstructure:"module_map"`
	Format       string `mapstructure:"format"`
	StdlibList   string `mapstructure:"stdlib_list"`
}

// Validate checks the configuration for values that would fail later anyway.
func (c *Config) Validate() error {
	if !slices.Contains(render.Formats, c.Format) {
		return fmt.Errorf("%w: %q (choose one of %s)", ErrBadFormat, c.Format, strings.Join(render.Formats, ", "))
	}

	return nil
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("root", DefaultRoot)
	viperCfg.SetDefault("requirements", DefaultRequirementsFile)
	viperCfg.SetDefault("module_map", DefaultModuleMapFile)
	viperCfg.SetDefault("format", DefaultFormat)
	viperCfg.SetDefault("stdlib_list", "")
}
