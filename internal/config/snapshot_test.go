// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshot(t *testing.T) {
	cfg := loadConfig(t, minimalConfig)

	snap, err := BuildSnapshot(cfg, "0.5.6")
	require.NoError(t, err)

	assert.NotEmpty(t, snap.Run.ID)
	assert.Equal(t, "results/benzene/baseline", snap.Run.Dir)
	assert.Equal(t, "0.5.6", snap.Run.Version)
	assert.Len(t, snap.Run.Layers, cfg.NumLayers)
	assert.False(t, snap.Run.CreatedAt.IsZero())

	assert.Contains(t, snap.Run.MetricNames, "loss")
	assert.Contains(t, snap.Run.MetricNames, "loss_f")
	assert.Contains(t, snap.Run.MetricNames, "loss_e")
	assert.Contains(t, snap.Run.MetricNames, "f_mae")
	assert.Contains(t, snap.Run.MetricNames, "e/N_rmse")
}

func TestBuildSnapshotUniqueIDs(t *testing.T) {
	cfg := loadConfig(t, minimalConfig)

	a, err := BuildSnapshot(cfg, "test")
	require.NoError(t, err)
	b, err := BuildSnapshot(cfg, "test")
	require.NoError(t, err)

	assert.NotEqual(t, a.Run.ID, b.Run.ID)
}

func TestBuildSnapshotBrokenOverrides(t *testing.T) {
	cfg := loadConfig(t, minimalConfig)
	cfg.LayerOverrides = LayerOverrides{
		99: {"use_sc": overrideNode(t, "false")},
	}

	_, err := BuildSnapshot(cfg, "test")
	require.Error(t, err)
}
