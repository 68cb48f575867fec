// This file generates the worker counts measured by calibration.

package calibration

import (
	"runtime"

	"github.com/agbru/fractalcalc/internal/config"
)

// GenerateWorkerCounts returns the pool sizes to measure for the current
// CPU count, in increasing order. Counts above 4×NumCPU only add scheduling
// overhead for CPU-bound rows and are never tried.
func GenerateWorkerCounts() []int {
	return workerCounts(runtime.NumCPU())
}

func workerCounts(numCPU int) []int {
	switch {
	case numCPU <= 1:
		return []int{1, 2}
	case numCPU <= 4:
		return []int{1, numCPU, 2 * numCPU, 4 * numCPU}
	case numCPU <= 16:
		return []int{1, numCPU / 2, numCPU, 2 * numCPU, 3 * numCPU, 4 * numCPU}
	default:
		return []int{numCPU / 4, numCPU / 2, numCPU, 2 * numCPU, 4 * numCPU}
	}
}

// GenerateQuickWorkerCounts returns a smaller set for startup
// auto-calibration.
func GenerateQuickWorkerCounts() []int {
	return quickWorkerCounts(runtime.NumCPU())
}

func quickWorkerCounts(numCPU int) []int {
	if numCPU <= 1 {
		return []int{1, 2}
	}
	return []int{numCPU, 2 * numCPU, 4 * numCPU}
}

// EstimateOptimalWorkers delegates to config.EstimateOptimalWorkers.
func EstimateOptimalWorkers() int { return config.EstimateOptimalWorkers() }
