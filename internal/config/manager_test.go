// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveEffectiveRoundTrip(t *testing.T) {
	cfg := loadConfig(t, minimalConfig+`optimizer_amsgrad: true
lr_scheduler_name: ReduceLROnPlateau
lr_scheduler_patience: 50
layer1_invariant_neurons: 32
`)
	cfg.Root = t.TempDir()

	snap, err := BuildSnapshot(cfg, "test")
	if err != nil {
		t.Fatalf("BuildSnapshot() failed: %v", err)
	}

	path, err := NewManager().SaveEffective(snap)
	if err != nil {
		t.Fatalf("SaveEffective() failed: %v", err)
	}
	if filepath.Base(path) != EffectiveFileName {
		t.Errorf("saved as %q, want %q", filepath.Base(path), EffectiveFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read effective config: %v", err)
	}
	for _, key := range []string{"optimizer_amsgrad:", "lr_scheduler_patience:", "layer1_invariant_neurons:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("effective config missing %q", key)
		}
	}

	// The written file must load through the strict loader unchanged.
	reloaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("reload effective config: %v", err)
	}
	if summary := Diff(cfg, reloaded); !summary.Empty() {
		t.Errorf("round trip changed config: %s", summary)
	}
}

func TestLoadEffectiveMissing(t *testing.T) {
	_, err := NewManager().LoadEffective(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadEffectiveRestartCheck(t *testing.T) {
	cfg := loadConfig(t, minimalConfig)
	cfg.Root = t.TempDir()

	snap, err := BuildSnapshot(cfg, "test")
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager()
	if _, err := m.SaveEffective(snap); err != nil {
		t.Fatal(err)
	}

	prev, err := m.LoadEffective(snap.Run.Dir)
	if err != nil {
		t.Fatalf("LoadEffective() failed: %v", err)
	}

	resumed := cfg
	resumed.MaxEpochs = 20000
	if err := RestartCompatible(prev, resumed); err != nil {
		t.Errorf("RestartCompatible() = %v, want nil", err)
	}

	resumed.RMax = 6.0
	if err := RestartCompatible(prev, resumed); err == nil {
		t.Error("RestartCompatible() = nil, want error after r_max change")
	}
}
