// SPDX-License-Identifier: MIT

// Package optim validates the optimizer and learning-rate-scheduler
// selection of a training configuration and holds their keyword arguments
// collected from the optimizer_* and lr_scheduler_* key families.
package optim

import (
	"sort"

	"github.com/leoil/nequip/internal/validate"
)

// Prefixes under which optimizer and scheduler keyword arguments appear as
// top-level configuration keys.
const (
	OptimizerPrefix = "optimizer_"
	SchedulerPrefix = "lr_scheduler_"
)

// Optimizer names the trainer accepts (the torch.optim surface).
var knownOptimizers = []string{
	"Adam",
	"AdamW",
	"SGD",
	"Adadelta",
	"Adagrad",
	"RMSprop",
}

// Scheduler names the trainer accepts; "none" disables scheduling.
var knownSchedulers = []string{
	"ReduceLROnPlateau",
	"CosineAnnealingLR",
	"CosineAnnealingWarmRestarts",
	"StepLR",
	"ExponentialLR",
	"none",
}

// KnownOptimizers returns the accepted optimizer names.
func KnownOptimizers() []string {
	out := make([]string, len(knownOptimizers))
	copy(out, knownOptimizers)
	return out
}

// KnownSchedulers returns the accepted scheduler names.
func KnownSchedulers() []string {
	out := make([]string, len(knownSchedulers))
	copy(out, knownSchedulers)
	return out
}

// ValidateOptimizer checks optimizer_name.
func ValidateOptimizer(v *validate.Validator, name string) {
	v.OneOf("optimizer_name", name, knownOptimizers)
}

// ValidateScheduler checks lr_scheduler_name. Empty means "none".
func ValidateScheduler(v *validate.Validator, name string) {
	if name == "" {
		return
	}
	v.OneOf("lr_scheduler_name", name, knownSchedulers)
}

// Kwargs holds prefixed keyword arguments with the prefix stripped, e.g.
// optimizer_amsgrad: false becomes {"amsgrad": false}.
type Kwargs map[string]interface{}

// Keys returns the kwarg names in sorted order.
func (kw Kwargs) Keys() []string {
	out := make([]string, 0, len(kw))
	for k := range kw {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
