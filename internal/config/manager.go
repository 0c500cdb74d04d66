// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/leoil/nequip/internal/log"
	"github.com/leoil/nequip/internal/optim"
)

// EffectiveFileName is the name of the fully-resolved configuration written
// into each run directory.
const EffectiveFileName = "config_final.yaml"

// Manager persists run artifacts derived from a validated configuration.
type Manager struct {
	logger zerolog.Logger
}

// NewManager creates a manager.
func NewManager() *Manager {
	return &Manager{logger: log.WithComponent("config.manager")}
}

// EffectivePath returns the location of the effective config inside dir.
func EffectivePath(dir string) string {
	return filepath.Join(dir, EffectiveFileName)
}

// SaveEffective writes the fully-resolved configuration of a run into its
// run directory. The write is atomic so a crash never leaves a truncated
// config behind. Returns the path written.
func (m *Manager) SaveEffective(snap Snapshot) (string, error) {
	if err := os.MkdirAll(snap.Run.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	data, err := MarshalEffective(snap.Config)
	if err != nil {
		return "", fmt.Errorf("marshal effective config: %w", err)
	}

	path := EffectivePath(snap.Run.Dir)
	if err := renameio.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write effective config: %w", err)
	}

	m.logger.Info().
		Str("path", path).
		Str("run_id", snap.Run.ID).
		Msg("effective config saved")
	return path, nil
}

// LoadEffective reads a previously saved effective configuration from a run
// directory. A missing file is reported with os.ErrNotExist so restart
// handling can distinguish "fresh run" from a broken one.
func (m *Manager) LoadEffective(dir string) (Config, error) {
	path := EffectivePath(dir)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("no effective config in %s: %w", dir, os.ErrNotExist)
		}
		return Config{}, fmt.Errorf("stat effective config: %w", err)
	}
	return LoadFile(path)
}

// MarshalEffective serializes a configuration to YAML including the dynamic
// key families, so the output round-trips through the loader.
func MarshalEffective(cfg Config) ([]byte, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("encoded config is not a mapping")
	}

	appendKV := func(key string, value interface{}) error {
		var k, v yaml.Node
		if err := k.Encode(key); err != nil {
			return err
		}
		if err := v.Encode(value); err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		root.Content = append(root.Content, &k, &v)
		return nil
	}

	for _, kw := range cfg.OptimizerKwargs.Keys() {
		if err := appendKV(optim.OptimizerPrefix+kw, cfg.OptimizerKwargs[kw]); err != nil {
			return nil, err
		}
	}
	for _, kw := range cfg.SchedulerKwargs.Keys() {
		if err := appendKV(optim.SchedulerPrefix+kw, cfg.SchedulerKwargs[kw]); err != nil {
			return nil, err
		}
	}

	indices := make([]int, 0, len(cfg.LayerOverrides))
	for idx := range cfg.LayerOverrides {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		params := make([]string, 0, len(cfg.LayerOverrides[idx]))
		for p := range cfg.LayerOverrides[idx] {
			params = append(params, p)
		}
		sort.Strings(params)
		for _, p := range params {
			node := cfg.LayerOverrides[idx][p]
			var k yaml.Node
			if err := k.Encode(fmt.Sprintf("layer%d_%s", idx, p)); err != nil {
				return nil, err
			}
			root.Content = append(root.Content, &k, &node)
		}
	}

	return yaml.Marshal(&root)
}
