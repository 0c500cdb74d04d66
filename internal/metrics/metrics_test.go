// SPDX-License-Identifier: MIT
package metrics

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/leoil/nequip/internal/validate"
)

func decode(t *testing.T, src string) Components {
	t.Helper()
	var cs Components
	if err := yaml.Unmarshal([]byte(src), &cs); err != nil {
		t.Fatalf("unmarshal %q: %v", src, err)
	}
	return cs
}

const fullComponents = `
- - forces
  - mae
- - forces
  - rmse
- - forces
  - mae
  - PerSpecies: true
    report_per_component: false
- - total_energy
  - mae
- - total_energy
  - mae
  - PerAtom: true
`

func TestUnmarshalFull(t *testing.T) {
	cs := decode(t, fullComponents)

	if len(cs) != 5 {
		t.Fatalf("expected 5 components, got %d", len(cs))
	}
	if cs[0].Quantity != "forces" || cs[0].Statistic != MAE {
		t.Errorf("component 0 = %+v", cs[0])
	}
	if cs[1].Statistic != RMSE {
		t.Errorf("component 1 statistic = %q", cs[1].Statistic)
	}
	if !cs[2].PerSpecies || cs[2].ReportPerComponent {
		t.Errorf("component 2 options = %+v", cs[2])
	}
	if !cs[4].PerAtom {
		t.Errorf("component 4 should be per atom: %+v", cs[4])
	}
}

func TestUnmarshalBareQuantity(t *testing.T) {
	cs := decode(t, "- forces\n")
	if cs[0].Quantity != "forces" || cs[0].Statistic != MAE {
		t.Errorf("bare quantity should default to mae: %+v", cs[0])
	}
	if cs[0].Functional != DefaultFunctional {
		t.Errorf("functional should default to %s: %+v", DefaultFunctional, cs[0])
	}
}

func TestUnmarshalSingleElementList(t *testing.T) {
	cs := decode(t, "- [forces]\n")
	if cs[0].Quantity != "forces" || cs[0].Statistic != MAE {
		t.Errorf("single-element component = %+v", cs[0])
	}
}

func TestUnmarshalTooManyElements(t *testing.T) {
	var cs Components
	err := yaml.Unmarshal([]byte("- [forces, mae, {PerSpecies: true}, extra]\n"), &cs)
	if err == nil {
		t.Error("four-element component should be rejected")
	}
}

func TestFlatNames(t *testing.T) {
	tests := []struct {
		comp Component
		want string
	}{
		{Component{Quantity: "forces", Statistic: MAE}, "f_mae"},
		{Component{Quantity: "forces", Statistic: RMSE}, "f_rmse"},
		{Component{Quantity: "total_energy", Statistic: MAE}, "e_mae"},
		{Component{Quantity: "total_energy", Statistic: RMSE, PerAtom: true}, "e/N_rmse"},
		{Component{Quantity: "stress", Statistic: MAE}, "stress_mae"},
	}
	for _, tt := range tests {
		if got := tt.comp.FlatName(); got != tt.want {
			t.Errorf("FlatName(%+v) = %q, want %q", tt.comp, got, tt.want)
		}
	}
}

func TestPerSpeciesNames(t *testing.T) {
	c := Component{Quantity: "forces", Statistic: MAE, PerSpecies: true}
	names := c.Names()
	if len(names) != 2 || names[0] != "f_mae" || names[1] != "all_f_mae" {
		t.Errorf("per-species names = %v", names)
	}
}

func TestComponentsNamesDeduplicated(t *testing.T) {
	cs := decode(t, fullComponents)
	names := cs.Names()
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	for n, count := range seen {
		if count > 1 {
			t.Errorf("metric name %q reported %d times", n, count)
		}
	}
	want := []string{"f_mae", "f_rmse", "all_f_mae", "e_mae", "e/N_mae"}
	for _, w := range want {
		if _, ok := seen[w]; !ok {
			t.Errorf("expected metric name %q in %v", w, names)
		}
	}
}

func TestValidate(t *testing.T) {
	cs := decode(t, fullComponents)
	v := validate.New()
	cs.Validate(v)
	if !v.IsValid() {
		t.Errorf("expected valid components: %v", v.Err())
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown quantity", "- [velocity, mae]\n"},
		{"unknown statistic", "- [forces, mse]\n"},
		{"unknown functional", "- [forces, mae, {functional: HuberLoss}]\n"},
		{"per-atom forces", "- [forces, mae, {PerAtom: true}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := decode(t, tt.src)
			v := validate.New()
			cs.Validate(v)
			if v.IsValid() {
				t.Errorf("expected validation failure for %s", tt.src)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cs := decode(t, fullComponents)
	out, err := yaml.Marshal(cs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again := decode(t, string(out))
	if len(again) != len(cs) {
		t.Fatalf("round trip changed component count: %d vs %d", len(again), len(cs))
	}
	for i := range cs {
		if again[i].Quantity != cs[i].Quantity ||
			again[i].Statistic != cs[i].Statistic ||
			again[i].PerSpecies != cs[i].PerSpecies ||
			again[i].PerAtom != cs[i].PerAtom {
			t.Errorf("component %d changed: %+v vs %+v", i, cs[i], again[i])
		}
	}
}
