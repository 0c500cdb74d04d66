// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Profile defines the operator persona for a configuration option.
type Profile string

const (
	ProfileSimple   Profile = "Simple"
	ProfileAdvanced Profile = "Advanced"
	ProfileInternal Profile = "Internal"
)

// Status defines the lifecycle state of a configuration option.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInternal Status = "Internal"
)

// Entry defines a single configuration option's metadata.
type Entry struct {
	Path      string  // YAML key (e.g. "r_max")
	Env       string  // Environment variable (e.g. "NEQUIP_R_MAX")
	FieldPath string  // Go field name (e.g. "RMax")
	Profile   Profile // Operator profile
	Status    Status  // Lifecycle status
	Default   any     // Default value, nil when the key is required
	Required  bool    // Must be present for a minimal run
}

// Registry manages the configuration surface inventory.
type Registry struct {
	ByPath  map[string]Entry
	ByField map[string]Entry
	ByEnv   map[string]Entry
	order   []string
}

var (
	globalRegistry    *Registry
	globalRegistryErr error
	registryOnce      sync.Once
)

// GetRegistry returns the global configuration registry.
// It returns an error if the registry contains duplicates or is otherwise
// invalid. Thread-safe via sync.Once.
func GetRegistry() (*Registry, error) {
	registryOnce.Do(func() {
		globalRegistry, globalRegistryErr = buildRegistry()
	})
	return globalRegistry, globalRegistryErr
}

func buildRegistry() (*Registry, error) {
	r := &Registry{
		ByPath:  make(map[string]Entry),
		ByField: make(map[string]Entry),
		ByEnv:   make(map[string]Entry),
	}

	entries := []Entry{
		// --- RUN IDENTITY ---
		{Path: "root", Env: "NEQUIP_ROOT", FieldPath: "Root", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "run_name", Env: "NEQUIP_RUN_NAME", FieldPath: "RunName", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "seed", Env: "NEQUIP_SEED", FieldPath: "Seed", Profile: ProfileSimple, Status: StatusActive, Default: 0},
		{Path: "restart", Env: "NEQUIP_RESTART", FieldPath: "Restart", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "append", Env: "NEQUIP_APPEND", FieldPath: "Append", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "default_dtype", Env: "NEQUIP_DEFAULT_DTYPE", FieldPath: "DefaultDtype", Profile: ProfileAdvanced, Status: StatusActive, Default: DtypeFloat32},

		// --- NETWORK TOPOLOGY ---
		{Path: "r_max", Env: "", FieldPath: "RMax", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "num_layers", Env: "", FieldPath: "NumLayers", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "chemical_embedding_irreps_out", Env: "", FieldPath: "ChemicalEmbeddingIrrepsOut", Profile: ProfileAdvanced, Status: StatusActive, Required: true},
		{Path: "feature_irreps_hidden", Env: "", FieldPath: "FeatureIrrepsHidden", Profile: ProfileAdvanced, Status: StatusActive, Required: true},
		{Path: "irreps_edge_sh", Env: "", FieldPath: "IrrepsEdgeSH", Profile: ProfileAdvanced, Status: StatusActive, Required: true},
		{Path: "conv_to_output_hidden_irreps_out", Env: "", FieldPath: "ConvToOutputHiddenIrrepsOut", Profile: ProfileAdvanced, Status: StatusActive, Required: true},
		{Path: "nonlinearity_type", Env: "", FieldPath: "NonlinearityType", Profile: ProfileAdvanced, Status: StatusActive, Default: NonlinearityGate},
		{Path: "resnet", Env: "", FieldPath: "Resnet", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "num_basis", Env: "", FieldPath: "NumBasis", Profile: ProfileAdvanced, Status: StatusActive, Default: 8},

		// --- RADIAL SUB-NETWORK ---
		{Path: "invariant_layers", Env: "", FieldPath: "InvariantLayers", Profile: ProfileAdvanced, Status: StatusActive, Default: 1},
		{Path: "invariant_neurons", Env: "", FieldPath: "InvariantNeurons", Profile: ProfileAdvanced, Status: StatusActive, Default: 8},
		{Path: "avg_num_neighbors", Env: "", FieldPath: "AvgNumNeighbors", Profile: ProfileAdvanced, Status: StatusActive, Default: 0.0},
		{Path: "use_sc", Env: "", FieldPath: "UseSC", Profile: ProfileAdvanced, Status: StatusActive, Default: true},

		// --- DATASET ---
		{Path: "dataset", Env: "", FieldPath: "Dataset", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "dataset_url", Env: "NEQUIP_DATASET_URL", FieldPath: "DatasetURL", Profile: ProfileSimple, Status: StatusActive},
		{Path: "dataset_file_name", Env: "NEQUIP_DATASET_FILE", FieldPath: "DatasetFileName", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "key_mapping", Env: "", FieldPath: "KeyMapping", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "npz_fixed_field_keys", Env: "", FieldPath: "NpzFixedFieldKeys", Profile: ProfileAdvanced, Status: StatusActive},

		// --- LOGGING ---
		{Path: "wandb", Env: "NEQUIP_WANDB", FieldPath: "Wandb", Profile: ProfileSimple, Status: StatusActive, Default: false},
		{Path: "wandb_project", Env: "NEQUIP_WANDB_PROJECT", FieldPath: "WandbProject", Profile: ProfileSimple, Status: StatusActive},
		{Path: "verbose", Env: "NEQUIP_VERBOSE", FieldPath: "Verbose", Profile: ProfileSimple, Status: StatusActive, Default: "info"},
		{Path: "log_batch_freq", Env: "", FieldPath: "LogBatchFreq", Profile: ProfileAdvanced, Status: StatusActive, Default: 100},
		{Path: "log_epoch_freq", Env: "", FieldPath: "LogEpochFreq", Profile: ProfileAdvanced, Status: StatusActive, Default: 1},

		// --- TRAINING LOOP ---
		{Path: "n_train", Env: "NEQUIP_N_TRAIN", FieldPath: "NTrain", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "n_val", Env: "NEQUIP_N_VAL", FieldPath: "NVal", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "learning_rate", Env: "NEQUIP_LEARNING_RATE", FieldPath: "LearningRate", Profile: ProfileSimple, Status: StatusActive, Default: 0.01},
		{Path: "batch_size", Env: "NEQUIP_BATCH_SIZE", FieldPath: "BatchSize", Profile: ProfileSimple, Status: StatusActive, Default: 5},
		{Path: "max_epochs", Env: "NEQUIP_MAX_EPOCHS", FieldPath: "MaxEpochs", Profile: ProfileSimple, Status: StatusActive, Default: 10000},
		{Path: "metrics_key", Env: "", FieldPath: "MetricsKey", Profile: ProfileAdvanced, Status: StatusActive, Default: "loss"},
		{Path: "use_ema", Env: "", FieldPath: "UseEMA", Profile: ProfileAdvanced, Status: StatusActive, Default: false},
		{Path: "ema_decay", Env: "", FieldPath: "EMADecay", Profile: ProfileAdvanced, Status: StatusActive, Default: 0.999},

		// --- LOSS & METRICS ---
		{Path: "loss_coeffs", Env: "", FieldPath: "LossCoeffs", Profile: ProfileSimple, Status: StatusActive, Required: true},
		{Path: "metrics_components", Env: "", FieldPath: "MetricsComponents", Profile: ProfileAdvanced, Status: StatusActive},

		// --- OPTIMIZER / SCHEDULER ---
		{Path: "optimizer_name", Env: "", FieldPath: "OptimizerName", Profile: ProfileSimple, Status: StatusActive, Default: "Adam"},
		{Path: "lr_scheduler_name", Env: "", FieldPath: "LRSchedulerName", Profile: ProfileAdvanced, Status: StatusActive, Default: "none"},

		// --- COLLECTED DYNAMIC FAMILIES (no YAML path of their own) ---
		{FieldPath: "OptimizerKwargs", Profile: ProfileInternal, Status: StatusInternal},
		{FieldPath: "SchedulerKwargs", Profile: ProfileInternal, Status: StatusInternal},
		{FieldPath: "LayerOverrides", Profile: ProfileInternal, Status: StatusInternal},
	}

	for _, entry := range entries {
		if entry.Path != "" {
			if _, dup := r.ByPath[entry.Path]; dup {
				return nil, fmt.Errorf("duplicate registry path %q", entry.Path)
			}
			r.ByPath[entry.Path] = entry
			r.order = append(r.order, entry.Path)
		}
		if entry.FieldPath != "" {
			if _, dup := r.ByField[entry.FieldPath]; dup {
				return nil, fmt.Errorf("duplicate registry field %q", entry.FieldPath)
			}
			r.ByField[entry.FieldPath] = entry
		}
		if entry.Env != "" {
			if _, dup := r.ByEnv[entry.Env]; dup {
				return nil, fmt.Errorf("duplicate registry env %q", entry.Env)
			}
			r.ByEnv[entry.Env] = entry
		}
	}

	return r, nil
}

// Entries returns the user-facing entries in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, path := range r.order {
		out = append(out, r.ByPath[path])
	}
	return out
}

// KnownPath reports whether the given top-level YAML key is registered.
func (r *Registry) KnownPath(path string) bool {
	_, ok := r.ByPath[path]
	return ok
}

// ApplyDefaults applies registered default values to the given Config.
// Returns an error if any default cannot be set (indicates registry
// misconfiguration).
func (r *Registry) ApplyDefaults(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	for _, entry := range r.ByField {
		if entry.Default == nil {
			continue
		}
		if err := setField(v, entry.FieldPath, entry.Default); err != nil {
			return fmt.Errorf("failed to set default for %s: %w", entry.FieldPath, err)
		}
	}
	return nil
}

// ValidateFieldCoverage uses reflection to ensure every field in Config is
// registered. Guards against the registry drifting from the struct.
func (r *Registry) ValidateFieldCoverage(cfg Config) error {
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if _, ok := r.ByField[f.Name]; !ok {
			return fmt.Errorf("field %q is not registered in the config registry", f.Name)
		}
	}
	return nil
}

func setField(v reflect.Value, fieldPath string, value any) error {
	parts := strings.Split(fieldPath, ".")
	curr := v
	for i, p := range parts {
		f := curr.FieldByName(p)
		if !f.IsValid() {
			return fmt.Errorf("field %s not found", p)
		}

		if i == len(parts)-1 {
			val := reflect.ValueOf(value)
			if f.Type() != val.Type() {
				if val.Type().ConvertibleTo(f.Type()) {
					f.Set(val.Convert(f.Type()))
				} else {
					return fmt.Errorf("type mismatch for %s: expected %v, got %v", fieldPath, f.Type(), val.Type())
				}
			} else {
				f.Set(val)
			}
			return nil
		}
		curr = f
	}
	return nil
}
