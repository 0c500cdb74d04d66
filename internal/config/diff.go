// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Change records a single configuration key whose value differs between two
// configurations.
type Change struct {
	Key string
	Old interface{}
	New interface{}
}

// ChangeSummary is the set of differing keys between two configurations,
// sorted by key.
type ChangeSummary struct {
	Changes []Change
}

// Empty reports whether the two configurations were identical.
func (s ChangeSummary) Empty() bool {
	return len(s.Changes) == 0
}

// Keys returns the differing key names.
func (s ChangeSummary) Keys() []string {
	keys := make([]string, len(s.Changes))
	for i, c := range s.Changes {
		keys[i] = c.Key
	}
	return keys
}

func (s ChangeSummary) String() string {
	if s.Empty() {
		return "no changes"
	}
	parts := make([]string, len(s.Changes))
	for i, c := range s.Changes {
		parts[i] = fmt.Sprintf("%s: %v -> %v", c.Key, c.Old, c.New)
	}
	return strings.Join(parts, "; ")
}

// Diff compares two configurations key by key. Static keys are compared by
// their YAML names; the dynamic families are compared as resolved values so
// that equivalent spellings (override vs. top-level default) compare equal.
func Diff(oldCfg, newCfg Config) ChangeSummary {
	var changes []Change

	t := reflect.TypeOf(oldCfg)
	ov := reflect.ValueOf(oldCfg)
	nv := reflect.ValueOf(newCfg)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		oldVal := ov.Field(i).Interface()
		newVal := nv.Field(i).Interface()
		if !equalValue(oldVal, newVal) {
			changes = append(changes, Change{Key: tag, Old: oldVal, New: newVal})
		}
	}

	changes = append(changes, diffKwargs("optimizer_", oldCfg.OptimizerKwargs, newCfg.OptimizerKwargs)...)
	changes = append(changes, diffKwargs("lr_scheduler_", oldCfg.SchedulerKwargs, newCfg.SchedulerKwargs)...)
	changes = append(changes, diffLayers(oldCfg, newCfg)...)

	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return ChangeSummary{Changes: changes}
}

// equalValue compares two key values, treating an absent collection and an
// empty one as the same. The effective-config writer spells omitted list
// keys as empty sequences; reloading must not diff against the original.
func equalValue(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if !av.IsValid() || !bv.IsValid() || av.Kind() != bv.Kind() {
		return false
	}
	switch av.Kind() {
	case reflect.Slice, reflect.Map:
		return av.Len() == 0 && bv.Len() == 0
	default:
		return false
	}
}

func diffKwargs(prefix string, oldKw, newKw map[string]interface{}) []Change {
	var changes []Change
	seen := map[string]struct{}{}
	for k, ov := range oldKw {
		seen[k] = struct{}{}
		nv, ok := newKw[k]
		if !ok {
			changes = append(changes, Change{Key: prefix + k, Old: ov, New: nil})
			continue
		}
		if !reflect.DeepEqual(ov, nv) {
			changes = append(changes, Change{Key: prefix + k, Old: ov, New: nv})
		}
	}
	for k, nv := range newKw {
		if _, ok := seen[k]; !ok {
			changes = append(changes, Change{Key: prefix + k, Old: nil, New: nv})
		}
	}
	return changes
}

// diffLayers compares the resolved per-layer parameters. Resolution errors
// surface as a single change on the layer key so the diff never hides a
// broken override.
func diffLayers(oldCfg, newCfg Config) []Change {
	oldLayers, oldErr := oldCfg.ResolveLayers()
	newLayers, newErr := newCfg.ResolveLayers()
	if oldErr != nil || newErr != nil {
		if oldErr == nil && newErr == nil {
			return nil
		}
		return []Change{{Key: "layers", Old: oldErr, New: newErr}}
	}

	var changes []Change
	n := len(oldLayers)
	if len(newLayers) > n {
		n = len(newLayers)
	}
	for i := 0; i < n; i++ {
		var ov, nv interface{}
		if i < len(oldLayers) {
			ov = oldLayers[i]
		}
		if i < len(newLayers) {
			nv = newLayers[i]
		}
		if !reflect.DeepEqual(ov, nv) {
			changes = append(changes, Change{Key: fmt.Sprintf("layer%d", i), Old: ov, New: nv})
		}
	}
	return changes
}

// architectureKeys are the configuration keys that shape the model or the
// data split. A restarted run must keep them identical to the run it
// resumes, or the saved weights no longer fit.
var architectureKeys = map[string]struct{}{
	"seed":                             {},
	"default_dtype":                    {},
	"r_max":                            {},
	"num_layers":                       {},
	"chemical_embedding_irreps_out":    {},
	"feature_irreps_hidden":            {},
	"irreps_edge_sh":                   {},
	"conv_to_output_hidden_irreps_out": {},
	"nonlinearity_type":                {},
	"resnet":                           {},
	"num_basis":                        {},
	"invariant_layers":                 {},
	"invariant_neurons":                {},
	"avg_num_neighbors":                {},
	"use_sc":                           {},
	"dataset":                          {},
	"dataset_file_name":                {},
	"key_mapping":                      {},
	"npz_fixed_field_keys":             {},
	"n_train":                          {},
	"n_val":                            {},
}

// RestartCompatible reports whether newCfg may resume the run that produced
// oldCfg. Training-loop keys (learning rate, epochs, logging) may change
// freely; architecture and data-split keys may not.
func RestartCompatible(oldCfg, newCfg Config) error {
	summary := Diff(oldCfg, newCfg)
	var blocked []string
	for _, c := range summary.Changes {
		if _, arch := architectureKeys[c.Key]; arch || strings.HasPrefix(c.Key, "layer") {
			blocked = append(blocked, c.Key)
		}
	}
	if len(blocked) > 0 {
		return fmt.Errorf("restart incompatible: architecture keys changed: %s",
			strings.Join(blocked, ", "))
	}
	return nil
}
