// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiffIdentical(t *testing.T) {
	a := loadConfig(t, minimalConfig)
	b := loadConfig(t, minimalConfig)

	if summary := Diff(a, b); !summary.Empty() {
		t.Errorf("Diff() of identical configs = %v, want empty", summary.Keys())
	}
}

func TestDiffStaticKeys(t *testing.T) {
	a := loadConfig(t, minimalConfig)
	b := a
	b.LearningRate = 0.002
	b.MaxEpochs = 500

	summary := Diff(a, b)
	keys := summary.Keys()
	if len(keys) != 2 || keys[0] != "learning_rate" || keys[1] != "max_epochs" {
		t.Errorf("Diff().Keys() = %v, want [learning_rate max_epochs]", keys)
	}
	if !strings.Contains(summary.String(), "learning_rate: 0.01 -> 0.002") {
		t.Errorf("String() = %q, missing value transition", summary.String())
	}
}

func TestDiffKwargs(t *testing.T) {
	a := loadConfig(t, minimalConfig+"optimizer_weight_decay: 0.001\n")
	b := loadConfig(t, minimalConfig+"optimizer_amsgrad: true\n")

	summary := Diff(a, b)
	keys := summary.Keys()
	if len(keys) != 2 {
		t.Fatalf("Diff().Keys() = %v, want removed and added kwarg", keys)
	}
	if keys[0] != "optimizer_amsgrad" || keys[1] != "optimizer_weight_decay" {
		t.Errorf("Diff().Keys() = %v", keys)
	}
}

func TestDiffEquivalentLayerSpellings(t *testing.T) {
	// An override that restates the top-level value is not a change.
	a := loadConfig(t, minimalConfig)
	b := a
	b.LayerOverrides = LayerOverrides{
		1: {"invariant_neurons": overrideNode(t, "8")},
	}

	if summary := Diff(a, b); !summary.Empty() {
		t.Errorf("Diff() = %v, want empty for equivalent spelling", summary.Keys())
	}
}

func TestDiffLayerOverrideChange(t *testing.T) {
	a := loadConfig(t, minimalConfig)
	b := a
	b.LayerOverrides = LayerOverrides{
		1: {"invariant_neurons": overrideNode(t, "32")},
	}

	summary := Diff(a, b)
	if keys := summary.Keys(); len(keys) != 1 || keys[0] != "layer1" {
		t.Errorf("Diff().Keys() = %v, want [layer1]", keys)
	}
}

func TestDiffEffectiveRoundTripWithOmittedListKeys(t *testing.T) {
	// Optional list keys left out of the source file come back from the
	// persisted effective config as empty sequences. That spelling must
	// not read as a change, or an unchanged run cannot restart.
	content := strings.Replace(minimalConfig, "npz_fixed_field_keys: [atomic_numbers]\n", "", 1)
	content = strings.Replace(content,
		"metrics_components:\n  - [forces, mae]\n  - [total_energy, rmse, {PerAtom: true}]\n", "", 1)
	cfg := loadConfig(t, content)
	if cfg.NpzFixedFieldKeys != nil {
		t.Fatalf("fixture still sets npz_fixed_field_keys: %v", cfg.NpzFixedFieldKeys)
	}

	data, err := MarshalEffective(cfg)
	if err != nil {
		t.Fatalf("MarshalEffective() failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config_final.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("reload effective config: %v", err)
	}

	if summary := Diff(cfg, reloaded); !summary.Empty() {
		t.Errorf("Diff() after round trip = %v, want empty", summary.Keys())
	}
	if err := RestartCompatible(cfg, reloaded); err != nil {
		t.Errorf("RestartCompatible() after round trip = %v, want nil", err)
	}
}

func TestRestartCompatibleTrainingLoopChange(t *testing.T) {
	a := loadConfig(t, minimalConfig)
	b := a
	b.LearningRate = 0.001
	b.MaxEpochs = 20000
	b.LogBatchFreq = 10

	if err := RestartCompatible(a, b); err != nil {
		t.Errorf("RestartCompatible() = %v, want nil for training-loop changes", err)
	}
}

func TestRestartIncompatibleArchitectureChange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"r_max", func(c *Config) { c.RMax = 5.0 }},
		{"num_layers", func(c *Config) { c.NumLayers = 4 }},
		{"feature_irreps_hidden", func(c *Config) { c.FeatureIrrepsHidden = "64x0e" }},
		{"seed", func(c *Config) { c.Seed = 7 }},
		{"n_train", func(c *Config) { c.NTrain = 200 }},
		{"key_mapping", func(c *Config) { c.KeyMapping["U"] = "atomic_energy" }},
		{"layer override", func(c *Config) {
			c.LayerOverrides = LayerOverrides{0: {"use_sc": overrideNode(t, "false")}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := loadConfig(t, minimalConfig)
			b := loadConfig(t, minimalConfig)
			tt.mutate(&b)
			if err := RestartCompatible(a, b); err == nil {
				t.Error("RestartCompatible() = nil, want error")
			}
		})
	}
}
