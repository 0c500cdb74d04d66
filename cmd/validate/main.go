// SPDX-License-Identifier: MIT

// validate is a CLI tool to validate nequip YAML training configurations.
//
// Usage:
//
//	validate -f config.yaml
//	validate --file config.yaml --data benzene.npz
//	validate -f config.yaml --watch
//
// Exit codes:
//   - 0: Configuration is valid
//   - 1: Configuration is invalid (parse, validation, or dataset error)
//   - 2: Usage error (missing required flag)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/leoil/nequip/internal/config"
	"github.com/leoil/nequip/internal/dataset"
	"github.com/leoil/nequip/internal/log"
	"github.com/leoil/nequip/internal/version"
)

var Version = version.Version

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		file        string
		dataPath    string
		watch       bool
		printConfig bool
		showVersion bool
	)
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&dataPath, "data", "", "path to the npz dataset archive to check against the config")
	fs.BoolVar(&watch, "watch", false, "keep running and revalidate on file changes")
	fs.BoolVar(&printConfig, "print", false, "print the fully-resolved configuration on success")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Fprintln(stdout, Version)
		return 0
	}

	if file == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  validate -f config.yaml")
		fmt.Fprintln(stderr, "  validate --file config.yaml --data dataset.npz")
		return 2
	}

	// Load configuration (strict YAML parse, env overrides, validation)
	loader := config.NewLoader(file, Version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n", file)
		fmt.Fprintf(stderr, "  %v\n", err)
		return 1
	}

	if dataPath != "" {
		if err := checkDataset(cfg, dataPath); err != nil {
			fmt.Fprintf(stderr, "Dataset error in %s:\n", dataPath)
			fmt.Fprintf(stderr, "  %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "✓ %s matches the configured key_mapping and splits\n", dataPath)
	}

	if printConfig {
		out, err := config.MarshalEffective(cfg)
		if err != nil {
			fmt.Fprintf(stderr, "Error rendering effective config: %v\n", err)
			return 1
		}
		if _, err := stdout.Write(out); err != nil {
			return 1
		}
	}

	fmt.Fprintf(stdout, "✓ %s is valid\n", file)

	if watch {
		return watchConfig(cfg, loader, file, dataPath, stdout)
	}
	return 0
}

// checkDataset verifies the npz archive against the configuration: every
// raw source of key_mapping present, frame counts consistent, and the
// n_train/n_val split within the data.
func checkDataset(cfg config.Config, path string) error {
	if cfg.Dataset != dataset.KindNpz {
		return fmt.Errorf("--data requires dataset: npz (config uses %q)", cfg.Dataset)
	}
	return dataset.CheckArchive(path, cfg.KeyMapping, cfg.NpzFixedFieldKeys, cfg.NTrain, cfg.NVal)
}

// watchConfig blocks, revalidating the config on every change until
// interrupted.
func watchConfig(cfg config.Config, loader *config.Loader, file, dataPath string, stdout io.Writer) int {
	log.Configure(log.Config{Level: cfg.Verbose})
	logger := log.WithComponent("validate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	holder := config.NewConfigHolder(cfg, loader, file)
	updates := make(chan config.Config, 1)
	holder.RegisterListener(updates)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to start watcher")
		return 1
	}
	defer holder.Stop()

	fmt.Fprintf(stdout, "watching %s (Ctrl-C to stop)\n", file)
	for {
		select {
		case <-ctx.Done():
			return 0
		case next := <-updates:
			if dataPath != "" {
				if err := checkDataset(next, dataPath); err != nil {
					logger.Error().Err(err).Str("data", dataPath).Msg("dataset check failed")
					continue
				}
			}
			fmt.Fprintf(stdout, "✓ %s is valid\n", file)
		}
	}
}
