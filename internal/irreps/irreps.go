// SPDX-License-Identifier: MIT

// Package irreps parses and formats irreducible-representation strings such
// as "32x0o + 32x0e + 16x1o + 16x1e". These strings describe how a tensor
// feature space transforms under rotation and parity and appear throughout
// the training configuration (chemical embedding, hidden features, edge
// spherical harmonics, output head).
package irreps

import (
	"fmt"
	"strconv"
	"strings"
)

// Parity is the behaviour of an irrep under inversion.
type Parity int8

const (
	Even Parity = 1
	Odd  Parity = -1
)

// String returns the single-letter parity suffix used in irreps notation.
func (p Parity) String() string {
	if p == Odd {
		return "o"
	}
	return "e"
}

// Irrep is a single irreducible representation of O(3): a rotation order l
// and a parity.
type Irrep struct {
	L int
	P Parity
}

// Dim returns the dimension 2l+1 of the irrep.
func (ir Irrep) Dim() int {
	return 2*ir.L + 1
}

// String formats the irrep as "0e", "1o", etc.
func (ir Irrep) String() string {
	return fmt.Sprintf("%d%s", ir.L, ir.P)
}

// ParseIrrep parses a bare irrep like "0e" or "2o".
func ParseIrrep(s string) (Irrep, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Irrep{}, fmt.Errorf("invalid irrep %q", s)
	}

	var p Parity
	switch s[len(s)-1] {
	case 'e':
		p = Even
	case 'o':
		p = Odd
	default:
		return Irrep{}, fmt.Errorf("invalid irrep %q: parity must be 'e' or 'o'", s)
	}

	l, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Irrep{}, fmt.Errorf("invalid irrep %q: %w", s, err)
	}
	if l < 0 {
		return Irrep{}, fmt.Errorf("invalid irrep %q: rotation order must be >= 0", s)
	}

	return Irrep{L: l, P: p}, nil
}

// MulIrrep is an irrep with a multiplicity, e.g. "32x0e".
type MulIrrep struct {
	Mul int
	Ir  Irrep
}

// Dim returns mul * (2l+1).
func (mi MulIrrep) Dim() int {
	return mi.Mul * mi.Ir.Dim()
}

// String formats the term as "32x0e". A multiplicity of one is kept explicit
// only when it was explicit in the source; formatting always writes "1x".
func (mi MulIrrep) String() string {
	return fmt.Sprintf("%dx%s", mi.Mul, mi.Ir)
}

// Irreps is a direct sum of multiplicities of irreps.
type Irreps []MulIrrep

// Parse parses an irreps string. Terms are separated by "+"; each term is
// either a bare irrep ("0e", multiplicity one) or "MULxIRREP" ("16x1o").
// The empty string parses to an empty direct sum.
func Parse(s string) (Irreps, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Irreps{}, nil
	}

	var out Irreps
	for _, term := range strings.Split(s, "+") {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("invalid irreps %q: empty term", s)
		}

		mul := 1
		irStr := term
		if idx := strings.IndexAny(term, "xX"); idx >= 0 {
			m, err := strconv.Atoi(strings.TrimSpace(term[:idx]))
			if err != nil {
				return nil, fmt.Errorf("invalid multiplicity in term %q: %w", term, err)
			}
			if m < 0 {
				return nil, fmt.Errorf("invalid multiplicity in term %q: must be >= 0", term)
			}
			mul = m
			irStr = term[idx+1:]
		}

		ir, err := ParseIrrep(irStr)
		if err != nil {
			return nil, fmt.Errorf("invalid irreps %q: %w", s, err)
		}

		out = append(out, MulIrrep{Mul: mul, Ir: ir})
	}

	return out, nil
}

// MustParse is Parse, panicking on error. For fixed strings in tests and
// registry defaults.
func MustParse(s string) Irreps {
	ir, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ir
}

// String formats the direct sum as "32x0o + 32x0e + 16x1o".
func (irs Irreps) String() string {
	if len(irs) == 0 {
		return ""
	}
	parts := make([]string, len(irs))
	for i, mi := range irs {
		parts[i] = mi.String()
	}
	return strings.Join(parts, " + ")
}

// Dim returns the total dimension of the feature space.
func (irs Irreps) Dim() int {
	d := 0
	for _, mi := range irs {
		d += mi.Dim()
	}
	return d
}

// NumIrreps returns the total multiplicity across all terms.
func (irs Irreps) NumIrreps() int {
	n := 0
	for _, mi := range irs {
		n += mi.Mul
	}
	return n
}

// LMax returns the highest rotation order present. It is zero for an empty
// direct sum.
func (irs Irreps) LMax() int {
	l := 0
	for _, mi := range irs {
		if mi.Ir.L > l {
			l = mi.Ir.L
		}
	}
	return l
}

// CountScalars returns the multiplicity of even scalars (0e) in the sum.
// Gate nonlinearities need at least one scalar channel to gate with.
func (irs Irreps) CountScalars() int {
	n := 0
	for _, mi := range irs {
		if mi.Ir.L == 0 && mi.Ir.P == Even {
			n += mi.Mul
		}
	}
	return n
}

// Equal reports term-by-term equality.
func (irs Irreps) Equal(other Irreps) bool {
	if len(irs) != len(other) {
		return false
	}
	for i := range irs {
		if irs[i] != other[i] {
			return false
		}
	}
	return true
}

// SphericalHarmonics returns the irreps of the spherical harmonics up to
// lmax: 0e + 1o + 2e + ...; the parity of order l is (-1)^l.
func SphericalHarmonics(lmax int) Irreps {
	out := make(Irreps, 0, lmax+1)
	for l := 0; l <= lmax; l++ {
		p := Even
		if l%2 == 1 {
			p = Odd
		}
		out = append(out, MulIrrep{Mul: 1, Ir: Irrep{L: l, P: p}})
	}
	return out
}

// CheckEdgeSH verifies that the direct sum is a valid set of edge spherical
// harmonics: multiplicity one per term, parity (-1)^l, and strictly
// increasing rotation orders.
func CheckEdgeSH(irs Irreps) error {
	if len(irs) == 0 {
		return fmt.Errorf("edge spherical harmonics cannot be empty")
	}
	prevL := -1
	for _, mi := range irs {
		if mi.Mul != 1 {
			return fmt.Errorf("spherical harmonic %s must have multiplicity 1", mi.Ir)
		}
		want := Even
		if mi.Ir.L%2 == 1 {
			want = Odd
		}
		if mi.Ir.P != want {
			return fmt.Errorf("spherical harmonic of order %d must have parity %s, got %s",
				mi.Ir.L, want, mi.Ir.P)
		}
		if mi.Ir.L <= prevL {
			return fmt.Errorf("spherical harmonic orders must be strictly increasing, got %s after %d",
				mi.Ir, prevL)
		}
		prevL = mi.Ir.L
	}
	return nil
}
