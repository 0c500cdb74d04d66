// SPDX-License-Identifier: MIT

// configgen emits example nequip training configurations from the config
// registry, so the documented starting points can never drift from the code.
//
// Usage:
//
//	configgen                 # minimal config (required keys) to stdout
//	configgen -full           # every key, defaults spelled out
//	configgen -o config.yaml  # write atomically instead of stdout
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/leoil/nequip/internal/config"
	"github.com/leoil/nequip/internal/version"
)

var Version = version.Version

// exampleValues supplies a starting value for every required key, plus
// richer spellings for keys whose zero default would not make a runnable
// config. Values are rendered as-is, so composite keys carry their own
// indentation.
var exampleValues = map[string]string{
	"root":                             "results/benzene",
	"run_name":                         "example-run",
	"r_max":                            "4.0",
	"num_layers":                       "3",
	"chemical_embedding_irreps_out":    "32x0e",
	"feature_irreps_hidden":            "32x0o + 32x0e + 16x1o + 16x1e",
	"irreps_edge_sh":                   "0e + 1o + 2e",
	"conv_to_output_hidden_irreps_out": "16x0e",
	"dataset":                          "npz",
	"dataset_file_name":                "benzene.npz",
	"key_mapping":                      "\n  z: atomic_numbers\n  R: pos\n  E: total_energy\n  F: forces",
	"npz_fixed_field_keys":             "[atomic_numbers]",
	"n_train":                          "100",
	"n_val":                            "50",
	"loss_coeffs":                      "\n  forces: 100\n  total_energy: 1",
	"metrics_components":               "\n  - [forces, mae]\n  - [total_energy, mae]\n  - [total_energy, mae, {PerAtom: true}]",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("configgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		full        bool
		output      string
		showVersion bool
	)
	fs.BoolVar(&full, "full", false, "emit every key with its default, not just the required ones")
	fs.StringVar(&output, "o", "", "write to this file (atomic) instead of stdout")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Fprintln(stdout, Version)
		return 0
	}

	doc, err := render(full)
	if err != nil {
		fmt.Fprintf(stderr, "configgen: %v\n", err)
		return 1
	}

	if output == "" {
		fmt.Fprint(stdout, doc)
		return 0
	}
	if err := renameio.WriteFile(output, []byte(doc), 0o644); err != nil {
		fmt.Fprintf(stderr, "configgen: write %s: %v\n", output, err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", output)
	return 0
}

// render builds the example document in registry declaration order.
func render(full bool) (string, error) {
	registry, err := config.GetRegistry()
	if err != nil {
		return "", fmt.Errorf("get registry: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Generated example configuration. Adjust before training.\n")

	for _, entry := range registry.Entries() {
		if entry.Status == config.StatusInternal {
			continue
		}

		value, hasExample := exampleValues[entry.Path]
		switch {
		case entry.Required:
			if !hasExample {
				return "", fmt.Errorf("no example value for required key %q", entry.Path)
			}
		case full:
			if !hasExample {
				if entry.Default == nil {
					continue
				}
				value = formatDefault(entry.Default)
			}
		default:
			continue
		}

		if strings.HasPrefix(value, "\n") {
			b.WriteString(fmt.Sprintf("%s:%s\n", entry.Path, value))
		} else {
			b.WriteString(fmt.Sprintf("%s: %s\n", entry.Path, value))
		}
	}

	return b.String(), nil
}

func formatDefault(v any) string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return `""`
		}
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
