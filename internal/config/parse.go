// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leoil/nequip/internal/optim"
)

// layerKeyRe matches the per-layer override convention layer{i}_<param>.
var layerKeyRe = regexp.MustCompile(`^layer([0-9]+)_([a-z][a-z0-9_]*)$`)

// layerOverrideParams is the allow-list of parameters that may be overridden
// per layer.
var layerOverrideParams = map[string]struct{}{
	"invariant_layers":  {},
	"invariant_neurons": {},
	"use_sc":            {},
	"resnet":            {},
}

// LayerOverrides holds the raw per-layer override values keyed by layer
// index and parameter name. Values stay as YAML nodes until resolution so
// that type errors can point at the offending key.
type LayerOverrides map[int]map[string]yaml.Node

// parseDocument splits a raw YAML configuration into its static mapping and
// the three dynamic key families. Unknown static keys are rejected with
// ErrUnknownConfigField; duplicate keys and trailing documents are errors.
func parseDocument(data []byte) (*yaml.Node, LayerOverrides, optim.Kwargs, optim.Kwargs, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &yaml.Node{Kind: yaml.MappingNode}, LayerOverrides{}, optim.Kwargs{}, optim.Kwargs{}, nil
		}
		return nil, nil, nil, nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, nil, nil, nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, nil, nil, nil, fmt.Errorf("config must be a YAML mapping at the top level")
	}

	registry, err := GetRegistry()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("get registry: %w", err)
	}

	static := &yaml.Node{Kind: yaml.MappingNode}
	overrides := LayerOverrides{}
	optKwargs := optim.Kwargs{}
	schedKwargs := optim.Kwargs{}
	seen := map[string]struct{}{}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]
		key := keyNode.Value

		if m := layerKeyRe.FindStringSubmatch(key); m != nil {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("line %d: %w: %q", keyNode.Line, ErrLayerOverride, key)
			}
			param := m[2]
			if _, ok := layerOverrideParams[param]; !ok {
				return nil, nil, nil, nil, fmt.Errorf("line %d: %w: %q is not an overridable parameter",
					keyNode.Line, ErrLayerOverride, param)
			}
			// Dedup on the canonical spelling so layer01_use_sc cannot
			// slip past layer1_use_sc.
			canon := fmt.Sprintf("layer%d_%s", idx, param)
			if _, dup := seen[canon]; dup {
				return nil, nil, nil, nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
			}
			seen[canon] = struct{}{}
			if overrides[idx] == nil {
				overrides[idx] = map[string]yaml.Node{}
			}
			overrides[idx][param] = *valNode
			continue
		}

		if _, dup := seen[key]; dup {
			return nil, nil, nil, nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
		}
		seen[key] = struct{}{}

		if kw, ok := prefixedKwarg(key, optim.OptimizerPrefix); ok {
			var value interface{}
			if err := valNode.Decode(&value); err != nil {
				return nil, nil, nil, nil, fmt.Errorf("line %d: invalid value for %q: %w", keyNode.Line, key, err)
			}
			optKwargs[kw] = value
			continue
		}
		if kw, ok := prefixedKwarg(key, optim.SchedulerPrefix); ok {
			var value interface{}
			if err := valNode.Decode(&value); err != nil {
				return nil, nil, nil, nil, fmt.Errorf("line %d: invalid value for %q: %w", keyNode.Line, key, err)
			}
			schedKwargs[kw] = value
			continue
		}

		if !registry.KnownPath(key) {
			return nil, nil, nil, nil, fmt.Errorf("line %d: %w: %q", keyNode.Line, ErrUnknownConfigField, key)
		}
		static.Content = append(static.Content, keyNode, valNode)
	}

	return static, overrides, optKwargs, schedKwargs, nil
}

// prefixedKwarg reports whether key belongs to the given dynamic family and
// returns the kwarg name with the prefix stripped. The *_name keys are typed
// fields, not kwargs.
func prefixedKwarg(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	suffix := strings.TrimPrefix(key, prefix)
	if suffix == "" || suffix == "name" {
		return "", false
	}
	return suffix, true
}
