// SPDX-License-Identifier: MIT

// Package metrics parses the metrics_components section of a training
// configuration: an ordered list of (quantity, statistic[, options]) entries
// describing which errors are accumulated and reported each epoch.
package metrics

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leoil/nequip/internal/fields"
	"github.com/leoil/nequip/internal/validate"
)

// Statistics recognized for a metrics component.
const (
	MAE  = "mae"
	RMSE = "rmse"
)

// DefaultFunctional is the error functional applied when the options name
// none.
const DefaultFunctional = "L1Loss"

var knownStatistics = []string{MAE, RMSE}

var knownFunctionals = []string{
	"L1Loss",
	"MSELoss",
}

// Component is one entry of metrics_components.
type Component struct {
	Quantity  string
	Statistic string

	// Options mapping, all optional.
	PerSpecies         bool
	PerAtom            bool
	ReportPerComponent bool
	Functional         string
	Dim                int
}

// FlatName returns the flattened metric name used in logs and as a
// metrics_key value: the quantity abbreviation ("f", "e"), "/N" when the
// statistic is accumulated per atom, then the statistic. Examples: "f_mae",
// "e_rmse", "e/N_rmse".
func (c Component) FlatName() string {
	name := fields.Abbrev(c.Quantity)
	if c.PerAtom {
		name += "/N"
	}
	return name + "_" + c.Statistic
}

// Names returns every metric name this component can report. Per-species
// components additionally report an "all_" aggregate.
func (c Component) Names() []string {
	base := c.FlatName()
	if c.PerSpecies {
		return []string{base, "all_" + base}
	}
	return []string{base}
}

// UnmarshalYAML accepts a bare quantity string or a sequence of one to three
// elements: quantity, statistic, options mapping. The statistic defaults to
// mae.
func (c *Component) UnmarshalYAML(node *yaml.Node) error {
	*c = Component{Statistic: MAE, Functional: DefaultFunctional}

	if node.Kind == yaml.ScalarNode {
		return node.Decode(&c.Quantity)
	}
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("metrics component: expected quantity or [quantity, statistic, options]")
	}

	n := len(node.Content)
	if n == 0 || n > 3 {
		return fmt.Errorf("metrics component: expected 1 to 3 elements, got %d", n)
	}

	if err := node.Content[0].Decode(&c.Quantity); err != nil {
		return fmt.Errorf("metrics component: quantity must be a string: %w", err)
	}
	if n >= 2 {
		if err := node.Content[1].Decode(&c.Statistic); err != nil {
			return fmt.Errorf("metrics component %s: statistic must be a string: %w", c.Quantity, err)
		}
	}
	if n == 3 {
		if err := c.decodeOptions(node.Content[2]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Component) decodeOptions(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("metrics component %s: options must be a mapping", c.Quantity)
	}

	var opts struct {
		PerSpecies         *bool   `yaml:"PerSpecies"`
		PerAtom            *bool   `yaml:"PerAtom"`
		ReportPerComponent *bool   `yaml:"report_per_component"`
		Functional         *string `yaml:"functional"`
		Dim                *int    `yaml:"dim"`
	}
	if err := node.Decode(&opts); err != nil {
		return fmt.Errorf("metrics component %s: invalid options: %w", c.Quantity, err)
	}

	if opts.PerSpecies != nil {
		c.PerSpecies = *opts.PerSpecies
	}
	if opts.PerAtom != nil {
		c.PerAtom = *opts.PerAtom
	}
	if opts.ReportPerComponent != nil {
		c.ReportPerComponent = *opts.ReportPerComponent
	}
	if opts.Functional != nil {
		c.Functional = *opts.Functional
	}
	if opts.Dim != nil {
		c.Dim = *opts.Dim
	}
	return nil
}

// MarshalYAML renders the sequence form, omitting options at defaults.
func (c Component) MarshalYAML() (interface{}, error) {
	out := []interface{}{c.Quantity, c.Statistic}
	opts := map[string]interface{}{}
	if c.PerSpecies {
		opts["PerSpecies"] = true
	}
	if c.PerAtom {
		opts["PerAtom"] = true
	}
	if c.ReportPerComponent {
		opts["report_per_component"] = true
	}
	if c.Functional != "" && c.Functional != DefaultFunctional {
		opts["functional"] = c.Functional
	}
	if c.Dim != 0 {
		opts["dim"] = c.Dim
	}
	if len(opts) > 0 {
		out = append(out, opts)
	}
	return out, nil
}

// Components is the ordered metrics_components list.
type Components []Component

// Validate checks each component's quantity, statistic, functional, and dim.
func (cs Components) Validate(v *validate.Validator) {
	for i, c := range cs {
		field := fmt.Sprintf("metrics_components[%d]", i)
		if !fields.IsQuantity(c.Quantity) {
			v.AddError(field, fmt.Sprintf("unknown quantity %q (known: %v)", c.Quantity, fields.Quantities()), c.Quantity)
		}
		if !contains(knownStatistics, c.Statistic) {
			v.AddError(field, fmt.Sprintf("unknown statistic %q (known: %v)", c.Statistic, knownStatistics), c.Statistic)
		}
		if c.Functional != "" && !contains(knownFunctionals, c.Functional) {
			v.AddError(field, fmt.Sprintf("unknown functional %q (known: %v)", c.Functional, knownFunctionals), c.Functional)
		}
		if c.Dim < 0 {
			v.AddError(field, "dim cannot be negative", c.Dim)
		}
		if c.PerAtom && c.Quantity == fields.Forces {
			v.AddError(field, "forces are already per atom; PerAtom only applies to per-frame quantities", c.Quantity)
		}
	}
}

// Names returns every flattened metric name the components can report, in
// order, without duplicates.
func (cs Components) Names() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range cs {
		for _, name := range c.Names() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
