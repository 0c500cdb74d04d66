// SPDX-License-Identifier: MIT

// Package loss parses the loss_coeffs section of a training configuration:
// a mapping from physical quantity to a scalar weight, optionally paired
// with the name of the loss functional to apply.
package loss

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leoil/nequip/internal/fields"
	"github.com/leoil/nequip/internal/validate"
)

// DefaultFunctional is applied when a coefficient names no functional.
const DefaultFunctional = "MSELoss"

// Functionals recognized by the trainer.
var knownFunctionals = []string{
	"MSELoss",
	"L1Loss",
	"PerAtomMSELoss",
	"PerSpeciesMSELoss",
	"PerSpeciesL1Loss",
}

// Coeff is the weight and functional attached to one physical quantity.
type Coeff struct {
	Weight     float64
	Functional string
}

// Coeffs maps quantity name to its coefficient, preserving declaration order
// for deterministic reporting.
type Coeffs struct {
	Order   []string
	ByKey   map[string]Coeff
	present bool
}

// IsZero reports whether the section was absent from the configuration.
func (c Coeffs) IsZero() bool {
	return !c.present
}

// UnmarshalYAML accepts the forms the trainer accepts:
//
//	loss_coeffs: forces
//	loss_coeffs: [forces, total_energy]
//	loss_coeffs:
//	  forces: 100
//	  total_energy: [1, PerAtomMSELoss]
//
// A bare quantity gets weight 1 and the default functional.
func (c *Coeffs) UnmarshalYAML(node *yaml.Node) error {
	c.Order = nil
	c.ByKey = make(map[string]Coeff)
	c.present = true

	add := func(key string, coeff Coeff) error {
		if _, dup := c.ByKey[key]; dup {
			return fmt.Errorf("loss_coeffs: duplicate quantity %q", key)
		}
		c.Order = append(c.Order, key)
		c.ByKey[key] = coeff
		return nil
	}

	switch node.Kind {
	case yaml.ScalarNode:
		var key string
		if err := node.Decode(&key); err != nil {
			return fmt.Errorf("loss_coeffs: %w", err)
		}
		return add(key, Coeff{Weight: 1, Functional: DefaultFunctional})

	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return fmt.Errorf("loss_coeffs: %w", err)
		}
		for _, key := range keys {
			if err := add(key, Coeff{Weight: 1, Functional: DefaultFunctional}); err != nil {
				return err
			}
		}
		return nil

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key string
			if err := node.Content[i].Decode(&key); err != nil {
				return fmt.Errorf("loss_coeffs: %w", err)
			}
			coeff, err := decodeCoeff(key, node.Content[i+1])
			if err != nil {
				return err
			}
			if err := add(key, coeff); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("loss_coeffs: expected scalar, list, or mapping")
	}
}

func decodeCoeff(key string, node *yaml.Node) (Coeff, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var w float64
		if err := node.Decode(&w); err != nil {
			return Coeff{}, fmt.Errorf("loss_coeffs.%s: weight must be a number: %w", key, err)
		}
		return Coeff{Weight: w, Functional: DefaultFunctional}, nil

	case yaml.SequenceNode:
		if n := len(node.Content); n < 1 || n > 2 {
			return Coeff{}, fmt.Errorf("loss_coeffs.%s: expected [weight] or [weight, functional], got %d elements", key, n)
		}
		var w float64
		if err := node.Content[0].Decode(&w); err != nil {
			return Coeff{}, fmt.Errorf("loss_coeffs.%s: weight must be a number: %w", key, err)
		}
		functional := DefaultFunctional
		if len(node.Content) == 2 {
			if err := node.Content[1].Decode(&functional); err != nil {
				return Coeff{}, fmt.Errorf("loss_coeffs.%s: functional must be a string: %w", key, err)
			}
		}
		return Coeff{Weight: w, Functional: functional}, nil

	default:
		return Coeff{}, fmt.Errorf("loss_coeffs.%s: expected number or [weight, functional]", key)
	}
}

// MarshalYAML renders the canonical mapping form.
func (c Coeffs) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range c.Order {
		coeff := c.ByKey[key]
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
		var valNode yaml.Node
		if coeff.Functional == DefaultFunctional {
			if err := valNode.Encode(coeff.Weight); err != nil {
				return nil, err
			}
		} else {
			if err := valNode.Encode([]interface{}{coeff.Weight, coeff.Functional}); err != nil {
				return nil, err
			}
		}
		node.Content = append(node.Content, keyNode, &valNode)
	}
	return node, nil
}

// Validate checks that every quantity is recognized, every weight is
// non-negative, and every functional is known.
func (c Coeffs) Validate(v *validate.Validator) {
	if !c.present || len(c.Order) == 0 {
		v.AddError("loss_coeffs", "at least one loss coefficient is required", nil)
		return
	}
	for _, key := range c.Order {
		coeff := c.ByKey[key]
		if !fields.IsQuantity(key) {
			v.AddError("loss_coeffs", fmt.Sprintf("unknown quantity %q (known: %v)", key, fields.Quantities()), key)
		}
		if coeff.Weight < 0 {
			v.AddError("loss_coeffs."+key, "weight cannot be negative", coeff.Weight)
		}
		if !knownFunctional(coeff.Functional) {
			v.AddError("loss_coeffs."+key, fmt.Sprintf("unknown functional %q (known: %v)", coeff.Functional, knownFunctionals), coeff.Functional)
		}
	}
}

func knownFunctional(name string) bool {
	for _, f := range knownFunctionals {
		if f == name {
			return true
		}
	}
	return false
}

// KeyFor returns the per-quantity loss metric name, e.g. "loss_f" for
// forces. These names are legal values for metrics_key alongside "loss".
func KeyFor(quantity string) string {
	return "loss_" + fields.Abbrev(quantity)
}
