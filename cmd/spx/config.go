package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/npillmayer/schuko"
)

// tomlConfig is a configuration read from a TOML file. Nested tables are
// flattened to dotted keys:
//
//    path = "lib"
//    dump-macro-expansions = true
//
//    [tracing]
//    adapter = "go"
//    level = "Debug"
//
// results in keys "path", "dump-macro-expansions", "tracing.adapter" and
// "tracing.level".
type tomlConfig map[string]interface{}

var _ schuko.Configuration = tomlConfig{}

// loadConfig reads a configuration file. A missing file results in the
// default configuration.
func loadConfig(path string) (tomlConfig, error) {
	conf := tomlConfig{}
	defer conf.InitDefaults()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			tracer().Debugf("no configuration file %s", path)
			return conf, nil
		}
		return nil, err
	}
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	conf.flatten("", raw)
	return conf, nil
}

func (c tomlConfig) flatten(prefix string, m map[string]interface{}) {
	for k, v := range m {
		if sub, ok := v.(map[string]interface{}); ok {
			c.flatten(prefix+k+".", sub)
			continue
		}
		c[prefix+k] = v
	}
}

var defaults = map[string]interface{}{
	"path":                  ".",
	"dump-macro-expansions": false,
	"tracing.adapter":       "go",
	"tracing.level":         "Info",
}

// InitDefaults sets default values for keys not present. It is called by
// gconf.Initialize as well, after the file has been read.
func (c tomlConfig) InitDefaults() {
	for k, v := range defaults {
		if _, ok := c[k]; !ok {
			c[k] = v
		}
	}
}

// IsSet is part of interface schuko.Configuration.
func (c tomlConfig) IsSet(key string) bool {
	_, ok := c[key]
	return ok
}

// GetString is part of interface schuko.Configuration.
func (c tomlConfig) GetString(key string) string {
	v, ok := c[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetInt is part of interface schuko.Configuration.
func (c tomlConfig) GetInt(key string) int {
	switch x := c[key].(type) {
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	}
	return 0
}

// GetBool is part of interface schuko.Configuration.
func (c tomlConfig) GetBool(key string) bool {
	switch x := c[key].(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(x, "true")
	}
	return false
}

// IsInteractive is part of interface schuko.Configuration.
func (c tomlConfig) IsInteractive() bool {
	return false
}
