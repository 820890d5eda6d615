package indicators

import (
	"math"

	"github.com/wonny/ibdscreener/internal/contracts"
)

// SMA returns the simple moving average of the trailing window values
func SMA(values []float64, window int) contracts.Maybe[float64] {
	if window <= 0 {
		return contracts.Absent[float64](contracts.ReasonInvalidInput)
	}
	if len(values) < window {
		return contracts.Absent[float64](contracts.ReasonInsufficientData)
	}
	return contracts.Present(mean(values[len(values)-window:]))
}

// pctChange returns (to-from)/from*100 and false when from is 0
func pctChange(from, to float64) (float64, bool) {
	if from == 0 {
		return 0, false
	}
	return (to - from) / from * 100, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// round rounds to specified decimal places
func round(value float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(value*mult) / mult
}
