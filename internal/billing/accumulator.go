// Package billing converts counter readings and session durations into
// energy and currency figures.
package billing

import "github.com/shopspring/decimal"

// counterGlitchKWh is the per-step ceiling for the wide-window variant;
// a single jump of this size or more is a sensor glitch, not consumption.
const counterGlitchKWh = 1000.0

// SumCounterDeltas folds an ascending sequence of cumulative counter
// readings into total consumed energy. A negative step is a counter reset:
// it contributes nothing, and the new value simply becomes the next
// comparison baseline. The result is kWh rounded to 3 decimals, half-up.
func SumCounterDeltas(values []float64) decimal.Decimal {
	return sumDeltas(values, func(diff float64) bool {
		return diff >= 0
	})
}

// SumCounterDeltasMonthly is the wide-tolerance variant used for month-long
// windows: besides dropping resets it discards implausibly large steps.
func SumCounterDeltasMonthly(values []float64) decimal.Decimal {
	return sumDeltas(values, func(diff float64) bool {
		return diff > 0 && diff < counterGlitchKWh
	})
}

func sumDeltas(values []float64, accept func(diff float64) bool) decimal.Decimal {
	var total float64
	havePrev := false
	var prev float64

	for _, v := range values {
		if havePrev {
			diff := v - prev
			if accept(diff) {
				total += diff
			}
		}
		prev = v
		havePrev = true
	}

	return decimal.NewFromFloat(total).Round(3)
}
