// SPDX-License-Identifier: MIT

package config

import (
	"testing"
)

func TestGetRegistry(t *testing.T) {
	r, err := GetRegistry()
	if err != nil {
		t.Fatalf("GetRegistry() failed: %v", err)
	}
	if len(r.ByPath) == 0 {
		t.Fatal("registry is empty")
	}
}

func TestRegistryCoversEveryConfigField(t *testing.T) {
	r, err := GetRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ValidateFieldCoverage(Config{}); err != nil {
		t.Errorf("ValidateFieldCoverage() = %v", err)
	}
}

func TestRegistryRequiredEntriesHaveNoDefault(t *testing.T) {
	r, err := GetRegistry()
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range r.Entries() {
		if entry.Required && entry.Default != nil {
			t.Errorf("entry %q is required but carries default %v", entry.Path, entry.Default)
		}
	}
}

func TestRegistryApplyDefaults(t *testing.T) {
	r, err := GetRegistry()
	if err != nil {
		t.Fatal(err)
	}

	var cfg Config
	if err := r.ApplyDefaults(&cfg); err != nil {
		t.Fatalf("ApplyDefaults() failed: %v", err)
	}

	if cfg.NumBasis != 8 {
		t.Errorf("NumBasis = %d, want 8", cfg.NumBasis)
	}
	if cfg.EMADecay != 0.999 {
		t.Errorf("EMADecay = %v, want 0.999", cfg.EMADecay)
	}
	if cfg.DefaultDtype != DtypeFloat32 {
		t.Errorf("DefaultDtype = %q, want float32", cfg.DefaultDtype)
	}
	if !cfg.UseSC {
		t.Error("UseSC = false, want true")
	}
	// Required keys stay zero so validation can catch their absence.
	if cfg.RMax != 0 || cfg.Root != "" {
		t.Errorf("required keys got defaults: r_max=%v root=%q", cfg.RMax, cfg.Root)
	}
}

func TestRegistryEnvBindingsAreScalar(t *testing.T) {
	r, err := GetRegistry()
	if err != nil {
		t.Fatal(err)
	}
	// Env overrides are parsed with the scalar Parse* helpers; composite
	// fields must not carry env bindings.
	for env, entry := range r.ByEnv {
		switch entry.FieldPath {
		case "KeyMapping", "LossCoeffs", "MetricsComponents", "NpzFixedFieldKeys":
			t.Errorf("composite field %s bound to env %s", entry.FieldPath, env)
		}
	}
}
