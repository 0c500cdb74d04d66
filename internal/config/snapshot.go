// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunInfo is the derived identity of a training run: everything the trainer
// needs beyond the raw configuration keys.
type RunInfo struct {
	ID          string        `yaml:"id"`
	Dir         string        `yaml:"dir"`
	Version     string        `yaml:"version"`
	Layers      []LayerParams `yaml:"layers"`
	MetricNames []string      `yaml:"metric_names"`
	CreatedAt   time.Time     `yaml:"created_at"`
}

// Snapshot pairs a validated configuration with its resolved run identity.
// Snapshots are what gets persisted to the run directory and compared on
// restart.
type Snapshot struct {
	Config Config  `yaml:"config"`
	Run    RunInfo `yaml:"run"`
}

// BuildSnapshot resolves a validated configuration into a snapshot. The
// configuration must have passed Validate; resolution errors here indicate a
// caller skipping validation.
func BuildSnapshot(cfg Config, version string) (Snapshot, error) {
	layers, err := cfg.ResolveLayers()
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve layers: %w", err)
	}

	return Snapshot{
		Config: cfg,
		Run: RunInfo{
			ID:          uuid.NewString(),
			Dir:         cfg.RunDir(),
			Version:     version,
			Layers:      layers,
			MetricNames: MetricNames(cfg),
			CreatedAt:   time.Now().UTC(),
		},
	}, nil
}
