// SPDX-License-Identifier: MIT

// Package fields defines the canonical field vocabulary the trainer expects
// from a dataset, and the short names used when flattening metric names.
package fields

// Canonical per-frame and per-atom field names. key_mapping entries in the
// training configuration must resolve raw dataset names to these.
const (
	Pos           = "pos"
	AtomicNumbers = "atomic_numbers"
	Forces        = "forces"
	TotalEnergy   = "total_energy"
	AtomicEnergy  = "atomic_energy"
	Stress        = "stress"
	Cell          = "cell"
	PBC           = "pbc"
)

var canonical = []string{
	Pos,
	AtomicNumbers,
	Forces,
	TotalEnergy,
	AtomicEnergy,
	Stress,
	Cell,
	PBC,
}

// Canonical returns the full canonical vocabulary in stable order.
func Canonical() []string {
	out := make([]string, len(canonical))
	copy(out, canonical)
	return out
}

// IsCanonical reports whether name is part of the canonical vocabulary.
func IsCanonical(name string) bool {
	for _, c := range canonical {
		if c == name {
			return true
		}
	}
	return false
}

// Quantities that can carry a loss coefficient or a metrics component.
var quantities = []string{
	Forces,
	TotalEnergy,
	AtomicEnergy,
	Stress,
}

// Quantities returns the physical quantities recognized by loss_coeffs and
// metrics_components.
func Quantities() []string {
	out := make([]string, len(quantities))
	copy(out, quantities)
	return out
}

// IsQuantity reports whether name is a recognized physical quantity.
func IsQuantity(name string) bool {
	for _, q := range quantities {
		if q == name {
			return true
		}
	}
	return false
}

var abbrev = map[string]string{
	TotalEnergy: "e",
	Forces:      "f",
}

// Abbrev returns the short name used in flattened metric names ("f" for
// forces, "e" for total_energy); other keys abbreviate to themselves.
func Abbrev(name string) string {
	if short, ok := abbrev[name]; ok {
		return short
	}
	return name
}
