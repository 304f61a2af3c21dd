package domain

import "math"

// Round2 rounds a money value to 2 decimal places, half-up. All money in the
// shop is fixed-point to 2 places, so every computed amount goes through here.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
