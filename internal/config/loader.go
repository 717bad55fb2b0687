package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".vcspilot"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix, e.g. VCSPILOT_MODEL.
const envPrefix = "VCSPILOT"

// Load reads configuration from file, environment, and defaults. When
// configPath is empty the file is searched in the CWD and $HOME; a missing
// file is not an error, defaults apply.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
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

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{Option: "config file", Reason: err.Error()}
		}
	}

	var cfg Config
	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Option: "config file", Reason: err.Error()}
	}

	// Missing files in the override directory fall back to the embedded
	// templates, so pointing at a nonexistent default is harmless.
	if cfg.TemplateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.TemplateDir = filepath.Join(home, ".config", "vcspilot", "templates")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("model", DefaultModel)
	viperCfg.SetDefault("language", DefaultLanguage)
	viperCfg.SetDefault("max_tokens", DefaultMaxTokens)
	viperCfg.SetDefault("temperature", DefaultTemperature)
	viperCfg.SetDefault("timeouts.command", DefaultCommandWait)
	viperCfg.SetDefault("organize.limit", DefaultOrganizeLimit)
	viperCfg.SetDefault("organize.tiny_threshold", DefaultTinyThreshold)
	viperCfg.SetDefault("template_dir", "")
}
