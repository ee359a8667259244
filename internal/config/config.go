package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
)

const DefaultPath = "~/.san/config.toml"

type Config struct {
	API    APIConfig    `toml:"api"`
	Git    GitConfig    `toml:"git"`
	CLI    CLIConfig    `toml:"cli"`
	Stages StagesConfig `toml:"stages"`
	Log    LogConfig    `toml:"log"`
}

type APIConfig struct {
	Endpoint       string `toml:"endpoint"`
	Key            string `toml:"api_key"`
	RateLimit      int    `toml:"rate_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type GitConfig struct {
	Host   string `toml:"host"`
	Branch string `toml:"branch"`
}

type CLIConfig struct {
	Bin string `toml:"bin"`
}

type StagesConfig struct {
	File   string `toml:"file"`
	Deploy string `toml:"deploy"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// environment is the snapshot of process variables taken once by Load.
// Nothing downstream reads the environment again.
type environment struct {
	APIKey     string `envconfig:"HEROKU_API_KEY"`
	LogLevel   string `envconfig:"SAN_LOG_LEVEL"`
	StagesFile string `envconfig:"SAN_STAGES_FILE"`
}

func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint:       "https://api.heroku.com",
			RateLimit:      10,
			TimeoutSeconds: 30,
		},
		Git: GitConfig{
			Host:   "heroku.com",
			Branch: "master",
		},
		CLI: CLIConfig{
			Bin: "heroku",
		},
		Stages: StagesConfig{
			File:   filepath.Join("config", "heroku.yml"),
			Deploy: "rails",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load returns the defaults overlaid by the TOML file at path (a missing file
// is not an error) and then by the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("config: expand %s: %w", path, err)
		}
		if _, err := os.Stat(expanded); err == nil {
			if _, err := toml.DecodeFile(expanded, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", expanded, err)
			}
		}
	}

	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if env.APIKey != "" {
		cfg.API.Key = env.APIKey
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.StagesFile != "" {
		cfg.Stages.File = env.StagesFile
	}

	return cfg, nil
}
