package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
)

// EnvVars resolves configuration from the environment, falling back to values
// loaded from a config file and then to the built-in defaults.
type EnvVars struct {
	values map[string]string
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Libreria Books")
}

func (e EnvVars) GetEnv() string {
	return e.get(envVar, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

func (e EnvVars) get(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	if value, ok := e.values[name]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (e EnvVars) getInt(name string, defaultValue int) int {
	value := e.get(name, "")
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func (e EnvVars) getBool(name string, defaultValue bool) bool {
	value := e.get(name, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func (e EnvVars) getList(name string, defaultValue []string, sep string) []string {
	value := e.get(name, "")
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
