// SPDX-License-Identifier: MIT

// Package config loads, validates, and resolves nequip training
// configurations. Precedence is ENV > file > defaults; the file is parsed
// strictly, with the dynamic layer{i}_, optimizer_, and lr_scheduler_ key
// families collected before the typed decode.
package config

import (
	"github.com/leoil/nequip/internal/dataset"
	"github.com/leoil/nequip/internal/loss"
	"github.com/leoil/nequip/internal/metrics"
	"github.com/leoil/nequip/internal/optim"
)

// Dtypes accepted for default_dtype.
const (
	DtypeFloat32 = "float32"
	DtypeFloat64 = "float64"
)

// Nonlinearity types accepted for nonlinearity_type.
const (
	NonlinearityGate = "gate"
	NonlinearityNorm = "norm"
)

// Config is the full training configuration: the typed form of every static
// YAML key plus the collected dynamic key families.
type Config struct {
	// Run identity
	Root         string `yaml:"root"`
	RunName      string `yaml:"run_name"`
	Seed         int    `yaml:"seed"`
	Restart      bool   `yaml:"restart"`
	Append       bool   `yaml:"append"`
	DefaultDtype string `yaml:"default_dtype"`

	// Network topology
	RMax                        float64 `yaml:"r_max"`
	NumLayers                   int     `yaml:"num_layers"`
	ChemicalEmbeddingIrrepsOut  string  `yaml:"chemical_embedding_irreps_out"`
	FeatureIrrepsHidden         string  `yaml:"feature_irreps_hidden"`
	IrrepsEdgeSH                string  `yaml:"irreps_edge_sh"`
	ConvToOutputHiddenIrrepsOut string  `yaml:"conv_to_output_hidden_irreps_out"`
	NonlinearityType            string  `yaml:"nonlinearity_type"`
	Resnet                      bool    `yaml:"resnet"`
	NumBasis                    int     `yaml:"num_basis"`

	// Radial sub-network
	InvariantLayers  int     `yaml:"invariant_layers"`
	InvariantNeurons int     `yaml:"invariant_neurons"`
	AvgNumNeighbors  float64 `yaml:"avg_num_neighbors"` // 0 means "compute from data"
	UseSC            bool    `yaml:"use_sc"`

	// Dataset binding
	Dataset           string             `yaml:"dataset"`
	DatasetURL        string             `yaml:"dataset_url"`
	DatasetFileName   string             `yaml:"dataset_file_name"`
	KeyMapping        dataset.KeyMapping `yaml:"key_mapping"`
	NpzFixedFieldKeys []string           `yaml:"npz_fixed_field_keys"`

	// Logging
	Wandb        bool   `yaml:"wandb"`
	WandbProject string `yaml:"wandb_project"`
	Verbose      string `yaml:"verbose"`
	LogBatchFreq int    `yaml:"log_batch_freq"`
	LogEpochFreq int    `yaml:"log_epoch_freq"`

	// Training loop
	NTrain       int     `yaml:"n_train"`
	NVal         int     `yaml:"n_val"`
	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	MaxEpochs    int     `yaml:"max_epochs"`
	MetricsKey   string  `yaml:"metrics_key"`
	UseEMA       bool    `yaml:"use_ema"`
	EMADecay     float64 `yaml:"ema_decay"`

	// Loss and metrics
	LossCoeffs        loss.Coeffs        `yaml:"loss_coeffs"`
	MetricsComponents metrics.Components `yaml:"metrics_components"`

	// Optimizer and scheduler selection
	OptimizerName   string `yaml:"optimizer_name"`
	LRSchedulerName string `yaml:"lr_scheduler_name"`

	// Dynamic key families, collected during parse.
	OptimizerKwargs optim.Kwargs   `yaml:"-"`
	SchedulerKwargs optim.Kwargs   `yaml:"-"`
	LayerOverrides  LayerOverrides `yaml:"-"`
}

// RunDir returns root/run_name, the directory all run artifacts live under.
func (c Config) RunDir() string {
	return c.Root + "/" + c.RunName
}
