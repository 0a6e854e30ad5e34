package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/CIDgravity/snakelet"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// config structure
type Config struct {
	API     APIConfig     `mapstructure:"API"`
	Github  GithubConfig  `mapstructure:"GITHUB"`
	Tasks   TasksConfig   `mapstructure:"TASKS"`
	Storage StorageConfig `mapstructure:"STORAGE"`
	Logs    LogsConfig    `mapstructure:"LOGS"`
}

type APIConfig struct {
	ListenPort string `mapstructure:"ListenPort"`
}

type GithubConfig struct {
	Token          string `mapstructure:"Token"` // can be overridden using GITHUB_TOKEN env variable
	CommitsPerPage int    `mapstructure:"CommitsPerPage"`
}

type TasksConfig struct {
	MaxParallelTasksAllowed int `mapstructure:"MaxParallelTasksAllowed"`
}

type StorageConfig struct {
	Backend string `mapstructure:"Backend"` // file | bolt | memory
	Path    string `mapstructure:"Path"`    // directory for file backend, database file for bolt
}

type LogsConfig struct {
	Level            string `mapstructure:"Level"` // error | warn | info | debug - case insensitive
	OutputLogsAsJSON bool   `mapstructure:"OutputLogsAsJson"`
}

const GithubTokenEnv = "GITHUB_TOKEN"

// Load
func Load() (*Config, error) {
	dir, err := filepath.Abs(filepath.Dir(os.Args[0]))

	if err != nil {
		return nil, err
	}

	// check config file exists
	configFilePath := dir + "/config/config.toml"

	if _, err := os.Stat(dir + "/config/config.toml"); errors.Is(err, os.ErrNotExist) {
		if _, err := os.Stat("config/config.toml"); errors.Is(err, os.ErrNotExist) {
			return nil, err
		} else {
			configFilePath = "config/config.toml"
		}
	}

	// load default and config file content
	cfg := GetDefault()
	_, err = snakelet.InitAndLoad(cfg, configFilePath)

	if err != nil {
		return nil, err
	}

	// .env file is optional, only used to provide the github token without writing it in config file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// ApplyEnv override config values with the ones found in environment
func ApplyEnv(cfg *Config) {
	if token := os.Getenv(GithubTokenEnv); token != "" {
		cfg.Github.Token = token
	}
}

// GetDefault
func GetDefault() *Config {
	return &Config{
		API: APIConfig{
			ListenPort: "5000",
		},
		Github: GithubConfig{
			Token:          "",
			CommitsPerPage: 10,
		},
		Tasks: TasksConfig{
			MaxParallelTasksAllowed: 8,
		},
		Storage: StorageConfig{
			Backend: "file",
			Path:    "data",
		},
		Logs: LogsConfig{
			Level:            "debug",
			OutputLogsAsJSON: false,
		},
	}
}
