// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leoil/nequip/internal/optim"
)

// Loader handles configuration loading with precedence ENV > file >
// defaults. It enforces strict validated order: parse file (strict) ->
// apply env -> validate.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader. version is the toolchain
// version stamped into snapshots.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Version returns the toolchain version the loader was built with.
func (l *Loader) Version() string {
	return l.version
}

// Load loads the configuration with precedence: ENV > File > Defaults.
func (l *Loader) Load() (Config, error) {
	cfg := Config{
		OptimizerKwargs: optim.Kwargs{},
		SchedulerKwargs: optim.Kwargs{},
		LayerOverrides:  LayerOverrides{},
	}

	// 1. Set defaults from the registry
	if err := l.setDefaults(&cfg); err != nil {
		return cfg, fmt.Errorf("set defaults: %w", err)
	}

	// 2. Load from file (if provided)
	if l.configPath != "" {
		if err := l.mergeFile(&cfg, l.configPath); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	// 3. Override with environment variables (highest priority)
	if err := l.mergeEnvConfig(&cfg); err != nil {
		return cfg, fmt.Errorf("merge env config: %w", err)
	}

	// Expand ${VAR} references in path-like values
	cfg.Root = expandEnv(cfg.Root)
	cfg.DatasetFileName = expandEnv(cfg.DatasetFileName)

	// 4. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (l *Loader) setDefaults(cfg *Config) error {
	registry, err := GetRegistry()
	if err != nil {
		return fmt.Errorf("get registry: %w", err)
	}
	if err := registry.ApplyDefaults(cfg); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return nil
}

// mergeFile strictly parses the YAML file at path and merges it over cfg.
// Only YAML files are accepted.
func (l *Loader) mergeFile(cfg *Config, path string) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	return l.mergeBytes(cfg, data)
}

func (l *Loader) mergeBytes(cfg *Config, data []byte) error {
	static, overrides, optKwargs, schedKwargs, err := parseDocument(data)
	if err != nil {
		return err
	}

	if len(static.Content) > 0 {
		if err := static.Decode(cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	}

	for idx, params := range overrides {
		if cfg.LayerOverrides[idx] == nil {
			cfg.LayerOverrides[idx] = map[string]yaml.Node{}
		}
		for name, node := range params {
			cfg.LayerOverrides[idx][name] = node
		}
	}
	for k, v := range optKwargs {
		cfg.OptimizerKwargs[k] = v
	}
	for k, v := range schedKwargs {
		cfg.SchedulerKwargs[k] = v
	}

	return nil
}

// mergeEnvConfig applies NEQUIP_* environment overrides for every registered
// key that carries an env binding, typed by the target field.
func (l *Loader) mergeEnvConfig(cfg *Config) error {
	registry, err := GetRegistry()
	if err != nil {
		return fmt.Errorf("get registry: %w", err)
	}

	v := reflect.ValueOf(cfg).Elem()
	for env, entry := range registry.ByEnv {
		l.ConsumedEnvKeys[env] = struct{}{}

		f := v.FieldByName(entry.FieldPath)
		if !f.IsValid() {
			return fmt.Errorf("env %s bound to unknown field %s", env, entry.FieldPath)
		}

		switch f.Kind() {
		case reflect.String:
			f.SetString(ParseString(env, f.String()))
		case reflect.Int:
			f.SetInt(int64(ParseInt(env, int(f.Int()))))
		case reflect.Float64:
			f.SetFloat(ParseFloat(env, f.Float()))
		case reflect.Bool:
			f.SetBool(ParseBool(env, f.Bool()))
		default:
			return fmt.Errorf("env %s bound to unsupported field kind %s", env, f.Kind())
		}
	}

	return nil
}

// LoadFile loads and strictly parses a YAML config file over registry
// defaults without applying env overrides or validation. Used by diffing
// and the watch loop's first parse stage.
func LoadFile(path string) (Config, error) {
	l := NewLoader("", "")
	cfg := Config{
		OptimizerKwargs: optim.Kwargs{},
		SchedulerKwargs: optim.Kwargs{},
		LayerOverrides:  LayerOverrides{},
	}
	if err := l.setDefaults(&cfg); err != nil {
		return cfg, err
	}
	if err := l.mergeFile(&cfg, path); err != nil {
		return cfg, err
	}
	return cfg, nil
}
