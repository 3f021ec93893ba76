package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	ClientConfig
	ProxyConfig
	CorsConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}

// Load reads the optional .env files into the process environment and, when
// path is not empty, overlays the values of a YAML file keyed by environment
// variable name. Environment variables always win over file values.
func Load(path string, dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) > 0 {
		if err := godotenv.Load(dotenvFiles...); err != nil {
			return nil, fmt.Errorf("[config Load] failed to load env files: %w", err)
		}
	}

	if path == "" {
		return New(), nil
	}

	values, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return mainConfig{EnvVars{values: values}}, nil
}

func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config readFile] failed to read %s: %w", path, err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("[config readFile] failed to parse %s: %w", path, err)
	}
	return values, nil
}
