package config

import "runtime"

// Worker resolution chain (highest priority first):
//   1. CLI flag (-workers)
//   2. Environment variable (FRACTAL_WORKERS)
//   3. Cached calibration profile (~/.fractal_calibration.json)
//   4. Adaptive hardware estimation (this file)

// DefaultQueueCapacity is the pending row queue size when none is given.
const DefaultQueueCapacity = 500

// ApplyAdaptiveDefaults fills the pool settings left at zero from the
// hardware. User-specified values are preserved.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.Workers == 0 {
		cfg.Workers = EstimateOptimalWorkers()
	}
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	return cfg
}

// EstimateOptimalWorkers returns two workers per logical CPU. Row tasks are
// CPU-bound but uneven in cost, so oversubscribing keeps every core busy
// while the slow rows near the set boundary finish.
func EstimateOptimalWorkers() int {
	return 2 * runtime.NumCPU()
}
