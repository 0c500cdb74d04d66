// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"sort"
)

// LayerParams are the per-layer tunable parameters of the interaction
// blocks. Each layer starts from the top-level values and applies its
// layer{i}_ overrides on top.
type LayerParams struct {
	InvariantLayers  int  `yaml:"invariant_layers"`
	InvariantNeurons int  `yaml:"invariant_neurons"`
	UseSC            bool `yaml:"use_sc"`
	Resnet           bool `yaml:"resnet"`
}

// ResolveLayers materializes the parameter set of every interaction layer.
// Override indices must fall in [0, num_layers); override values must decode
// to the parameter's type.
func (c Config) ResolveLayers() ([]LayerParams, error) {
	base := LayerParams{
		InvariantLayers:  c.InvariantLayers,
		InvariantNeurons: c.InvariantNeurons,
		UseSC:            c.UseSC,
		Resnet:           c.Resnet,
	}

	layers := make([]LayerParams, c.NumLayers)
	for i := range layers {
		layers[i] = base
	}

	// Deterministic error order when several overrides are bad.
	indices := make([]int, 0, len(c.LayerOverrides))
	for idx := range c.LayerOverrides {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		if idx < 0 || idx >= c.NumLayers {
			return nil, fmt.Errorf("%w: layer index %d out of range [0, %d)",
				ErrLayerOverride, idx, c.NumLayers)
		}
		for param, node := range c.LayerOverrides[idx] {
			var err error
			switch param {
			case "invariant_layers":
				err = node.Decode(&layers[idx].InvariantLayers)
			case "invariant_neurons":
				err = node.Decode(&layers[idx].InvariantNeurons)
			case "use_sc":
				err = node.Decode(&layers[idx].UseSC)
			case "resnet":
				err = node.Decode(&layers[idx].Resnet)
			default:
				err = fmt.Errorf("not an overridable parameter")
			}
			if err != nil {
				return nil, fmt.Errorf("%w: layer%d_%s: %v", ErrLayerOverride, idx, param, err)
			}
		}
	}

	for i := range layers {
		if layers[i].InvariantLayers <= 0 {
			return nil, fmt.Errorf("%w: layer %d: invariant_layers must be positive, got %d",
				ErrLayerOverride, i, layers[i].InvariantLayers)
		}
		if layers[i].InvariantNeurons <= 0 {
			return nil, fmt.Errorf("%w: layer %d: invariant_neurons must be positive, got %d",
				ErrLayerOverride, i, layers[i].InvariantNeurons)
		}
	}

	return layers, nil
}
