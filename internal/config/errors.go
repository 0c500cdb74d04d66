// SPDX-License-Identifier: MIT

package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict parse failures caused by
	// unknown top-level keys. Use errors.Is(err, ErrUnknownConfigField)
	// instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrLayerOverride classifies malformed layer{i}_ override keys:
	// out-of-range layer index or a parameter outside the override
	// allow-list.
	ErrLayerOverride = errors.New("invalid layer override")
)
