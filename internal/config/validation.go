// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/leoil/nequip/internal/dataset"
	"github.com/leoil/nequip/internal/irreps"
	"github.com/leoil/nequip/internal/loss"
	"github.com/leoil/nequip/internal/optim"
	"github.com/leoil/nequip/internal/validate"
)

// Verbosity levels accepted for the verbose key.
var verboseLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the full configuration and returns a ValidationError
// listing every problem found, or nil when the configuration is usable.
func Validate(cfg Config) error {
	v := validate.New()

	// Run identity
	v.NotEmpty("root", cfg.Root)
	v.NotEmpty("run_name", cfg.RunName)
	v.OneOf("default_dtype", cfg.DefaultDtype, []string{DtypeFloat32, DtypeFloat64})

	// Network topology
	v.PositiveFloat("r_max", cfg.RMax)
	v.Positive("num_layers", cfg.NumLayers)
	v.Positive("num_basis", cfg.NumBasis)
	v.OneOf("nonlinearity_type", cfg.NonlinearityType, []string{NonlinearityGate, NonlinearityNorm})

	hidden := validateIrreps(v, "feature_irreps_hidden", cfg.FeatureIrrepsHidden)
	validateIrreps(v, "chemical_embedding_irreps_out", cfg.ChemicalEmbeddingIrrepsOut)
	validateIrreps(v, "conv_to_output_hidden_irreps_out", cfg.ConvToOutputHiddenIrrepsOut)
	if edge := validateIrreps(v, "irreps_edge_sh", cfg.IrrepsEdgeSH); edge != nil {
		if err := irreps.CheckEdgeSH(edge); err != nil {
			v.AddError("irreps_edge_sh", err.Error(), cfg.IrrepsEdgeSH)
		}
	}
	if cfg.NonlinearityType == NonlinearityGate && hidden != nil && hidden.CountScalars() == 0 {
		v.AddError("feature_irreps_hidden",
			"gate nonlinearity requires at least one even scalar (0e) channel", cfg.FeatureIrrepsHidden)
	}

	// Radial sub-network
	v.Positive("invariant_layers", cfg.InvariantLayers)
	v.Positive("invariant_neurons", cfg.InvariantNeurons)
	if cfg.AvgNumNeighbors < 0 {
		v.AddError("avg_num_neighbors", "must be non-negative (0 selects computation from data)", cfg.AvgNumNeighbors)
	}

	// Dataset binding
	dataset.ValidateKind(v, cfg.Dataset)
	if cfg.DatasetURL != "" {
		v.URL("dataset_url", cfg.DatasetURL, []string{"http", "https"})
	}
	v.NotEmpty("dataset_file_name", cfg.DatasetFileName)
	cfg.KeyMapping.Validate(v)
	dataset.ValidateFixedFields(v, cfg.NpzFixedFieldKeys, cfg.KeyMapping)

	// Logging
	v.OneOf("verbose", cfg.Verbose, verboseLevels)
	v.Positive("log_batch_freq", cfg.LogBatchFreq)
	v.Positive("log_epoch_freq", cfg.LogEpochFreq)
	if cfg.Wandb {
		v.NotEmpty("wandb_project", cfg.WandbProject)
	}

	// Training loop
	v.Positive("n_train", cfg.NTrain)
	v.Positive("n_val", cfg.NVal)
	v.PositiveFloat("learning_rate", cfg.LearningRate)
	v.Positive("batch_size", cfg.BatchSize)
	v.Positive("max_epochs", cfg.MaxEpochs)
	if cfg.UseEMA {
		v.UnitInterval("ema_decay", cfg.EMADecay)
	}

	// Loss and metrics
	cfg.LossCoeffs.Validate(v)
	cfg.MetricsComponents.Validate(v)
	validateMetricsKey(v, cfg)

	// Optimizer and scheduler
	optim.ValidateOptimizer(v, cfg.OptimizerName)
	optim.ValidateScheduler(v, cfg.LRSchedulerName)

	// Per-layer overrides
	if cfg.NumLayers > 0 {
		if _, err := cfg.ResolveLayers(); err != nil {
			v.AddError("layer overrides", err.Error(), nil)
		}
	}

	return v.Err()
}

// validateIrreps parses an irreps string, recording a validation error on
// failure. It returns the parsed irreps so callers can run semantic checks.
func validateIrreps(v *validate.Validator, field, value string) irreps.Irreps {
	if value == "" {
		v.AddError(field, "is required", value)
		return nil
	}
	irs, err := irreps.Parse(value)
	if err != nil {
		v.AddError(field, err.Error(), value)
		return nil
	}
	return irs
}

// validateMetricsKey checks that metrics_key names a quantity the run will
// actually record: the total loss, a per-quantity loss contribution, or one
// of the configured validation metrics.
func validateMetricsKey(v *validate.Validator, cfg Config) {
	key := cfg.MetricsKey
	if key == "" {
		v.AddError("metrics_key", "is required", key)
		return
	}
	for _, name := range MetricNames(cfg) {
		if name == key {
			return
		}
	}
	v.AddError("metrics_key",
		fmt.Sprintf("%q is not recorded by this configuration", key), key)
}

// MetricNames returns every metric name this configuration records: "loss",
// the per-quantity loss contributions, and the flattened metrics component
// names.
func MetricNames(cfg Config) []string {
	names := []string{"loss"}
	for _, q := range cfg.LossCoeffs.Order {
		names = append(names, loss.KeyFor(q))
	}
	for _, n := range cfg.MetricsComponents.Names() {
		if !containsString(names, n) {
			names = append(names, n)
		}
	}
	return names
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
