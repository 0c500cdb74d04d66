// SPDX-License-Identifier: MIT

// Package dataset validates the dataset binding of a training configuration:
// the source kind, the key_mapping from raw dataset field names to the
// canonical vocabulary, and the set of fixed (frame-independent) fields.
package dataset

import (
	"fmt"
	"sort"

	"github.com/leoil/nequip/internal/fields"
	"github.com/leoil/nequip/internal/validate"
)

// Source kinds the trainer can ingest.
const (
	KindNpz = "npz"
	KindASE = "ase"
)

var knownKinds = []string{KindNpz, KindASE}

// KeyMapping renames raw dataset field names to canonical names.
type KeyMapping map[string]string

// Targets returns the canonical names produced by the mapping, sorted.
func (m KeyMapping) Targets() []string {
	out := make([]string, 0, len(m))
	for _, target := range m {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

// RawFor returns the raw dataset name mapped to the given canonical name.
func (m KeyMapping) RawFor(canonical string) (string, bool) {
	for raw, target := range m {
		if target == canonical {
			return raw, true
		}
	}
	return "", false
}

// Validate checks the mapping: targets must be distinct canonical names and
// the mapping must cover atomic numbers, positions, and at least one target
// label (forces, total energy, atomic energy, or stress).
func (m KeyMapping) Validate(v *validate.Validator) {
	if len(m) == 0 {
		v.AddError("key_mapping", "mapping is required and cannot be empty", nil)
		return
	}

	seen := map[string]string{}
	for raw, target := range m {
		if target == "" {
			v.AddError("key_mapping."+raw, "canonical name cannot be empty", target)
			continue
		}
		if !fields.IsCanonical(target) {
			v.AddError("key_mapping."+raw,
				fmt.Sprintf("unknown canonical field %q (known: %v)", target, fields.Canonical()),
				target)
			continue
		}
		if prev, dup := seen[target]; dup {
			v.AddError("key_mapping."+raw,
				fmt.Sprintf("canonical field %q already mapped from %q", target, prev),
				target)
			continue
		}
		seen[target] = raw
	}

	for _, required := range []string{fields.AtomicNumbers, fields.Pos} {
		if _, ok := seen[required]; !ok {
			v.AddError("key_mapping", fmt.Sprintf("must map a raw field to %q", required), nil)
		}
	}

	hasLabel := false
	for _, q := range fields.Quantities() {
		if _, ok := seen[q]; ok {
			hasLabel = true
			break
		}
	}
	if !hasLabel {
		v.AddError("key_mapping",
			fmt.Sprintf("must map at least one target label (%v)", fields.Quantities()), nil)
	}
}

// ValidateKind checks the dataset source kind.
func ValidateKind(v *validate.Validator, kind string) {
	v.OneOf("dataset", kind, knownKinds)
}

// ValidateFixedFields checks that every npz_fixed_field_keys entry names a
// canonical field produced by the mapping.
func ValidateFixedFields(v *validate.Validator, fixed []string, m KeyMapping) {
	produced := map[string]struct{}{}
	for _, target := range m {
		produced[target] = struct{}{}
	}
	seen := map[string]struct{}{}
	for _, name := range fixed {
		if _, dup := seen[name]; dup {
			v.AddError("npz_fixed_field_keys", fmt.Sprintf("duplicate entry %q", name), name)
			continue
		}
		seen[name] = struct{}{}
		if _, ok := produced[name]; !ok {
			v.AddError("npz_fixed_field_keys",
				fmt.Sprintf("field %q is not produced by key_mapping", name), name)
		}
	}
}
