package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix starts the name of every environment variable that overrides a
// setting.
const EnvPrefix = "CKTEXT_"

// envMapping maps variable names, without the prefix, to setting paths.
var envMapping = map[string]string{
	"LOG_LEVEL": "log.level",
	"TAB_WIDTH": "text.tab_width",
	"WRAP":      "text.wrap",
	"STATE":     "text.state",
	"UNDO":      "history.undo",
}

// LookupFunc looks up an environment variable. os.LookupEnv is one.
type LookupFunc func(key string) (string, bool)

// EnvLoader reads overrides from environment variables.
type EnvLoader struct {
	prefix string
	lookup LookupFunc
}

// NewEnvLoader creates an env loader. A nil lookup means os.LookupEnv.
func NewEnvLoader(lookup LookupFunc) *EnvLoader {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &EnvLoader{prefix: EnvPrefix, lookup: lookup}
}

// Load returns the overrides that are set, as a nested map.
func (l *EnvLoader) Load() map[string]any {
	result := make(map[string]any)
	for name, path := range envMapping {
		val, ok := l.lookup(l.prefix + name)
		if !ok {
			continue
		}
		setPath(result, path, parseValue(val))
	}
	return result
}

func setPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// parseValue converts a string into a bool or int when it looks like one.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return s
}
