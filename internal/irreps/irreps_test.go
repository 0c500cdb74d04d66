// SPDX-License-Identifier: MIT
package irreps

import (
	"testing"
)

func TestParseIrrep(t *testing.T) {
	tests := []struct {
		in      string
		want    Irrep
		wantErr bool
	}{
		{"0e", Irrep{L: 0, P: Even}, false},
		{"1o", Irrep{L: 1, P: Odd}, false},
		{"2e", Irrep{L: 2, P: Even}, false},
		{" 3o ", Irrep{L: 3, P: Odd}, false},
		{"", Irrep{}, true},
		{"e", Irrep{}, true},
		{"1x", Irrep{}, true},
		{"-1e", Irrep{}, true},
		{"1q", Irrep{}, true},
	}

	for _, tt := range tests {
		got, err := ParseIrrep(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseIrrep(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIrrep(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIrrep(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFeatureIrreps(t *testing.T) {
	irs, err := Parse("32x0o + 32x0e + 16x1o + 16x1e")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(irs) != 4 {
		t.Fatalf("expected 4 terms, got %d", len(irs))
	}
	if irs[0] != (MulIrrep{Mul: 32, Ir: Irrep{L: 0, P: Odd}}) {
		t.Errorf("unexpected first term: %v", irs[0])
	}
	// 32*1 + 32*1 + 16*3 + 16*3
	if got := irs.Dim(); got != 160 {
		t.Errorf("Dim() = %d, want 160", got)
	}
	if got := irs.NumIrreps(); got != 96 {
		t.Errorf("NumIrreps() = %d, want 96", got)
	}
	if got := irs.LMax(); got != 1 {
		t.Errorf("LMax() = %d, want 1", got)
	}
	if got := irs.CountScalars(); got != 32 {
		t.Errorf("CountScalars() = %d, want 32", got)
	}
}

func TestParseBareIrreps(t *testing.T) {
	irs, err := Parse("0e + 1o + 2e")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	for i, mi := range irs {
		if mi.Mul != 1 {
			t.Errorf("term %d: expected multiplicity 1, got %d", i, mi.Mul)
		}
	}
	if got := irs.Dim(); got != 9 {
		t.Errorf("Dim() = %d, want 9", got)
	}
}

func TestParseEmpty(t *testing.T) {
	irs, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") failed: %v", err)
	}
	if len(irs) != 0 || irs.Dim() != 0 {
		t.Errorf("expected empty direct sum, got %v", irs)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"+", "32x", "x0e", "ax0e", "-2x0e", "16x1o +", "16 1o"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"32x0o + 32x0e + 16x1o + 16x1e",
		"1x0e + 1x1o + 1x2e",
		"64x0e",
	} {
		irs, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		again, err := Parse(irs.String())
		if err != nil {
			t.Fatalf("Parse(String()) of %q: %v", s, err)
		}
		if !irs.Equal(again) {
			t.Errorf("round trip of %q changed: %v vs %v", s, irs, again)
		}
	}
}

func TestSphericalHarmonics(t *testing.T) {
	irs := SphericalHarmonics(2)
	if irs.String() != "1x0e + 1x1o + 1x2e" {
		t.Errorf("unexpected sh irreps: %s", irs)
	}
	if err := CheckEdgeSH(irs); err != nil {
		t.Errorf("sh irreps should be valid edge sh: %v", err)
	}
}

func TestCheckEdgeSH(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
	}{
		{"canonical", "0e + 1o + 2e", true},
		{"lmax 1", "0e + 1o", true},
		{"wrong parity", "0e + 1e", false},
		{"non-unit multiplicity", "0e + 2x1o", false},
		{"non-increasing", "1o + 0e", false},
		{"duplicate order", "0e + 1o + 1o", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			irs := MustParse(tt.in)
			err := CheckEdgeSH(irs)
			if tt.valid && err != nil {
				t.Errorf("CheckEdgeSH(%q): unexpected error %v", tt.in, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("CheckEdgeSH(%q): expected error", tt.in)
			}
		})
	}
}
