// Package rules contains the pure calculation logic for simulation mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "math"

// MasteryLevel computes the level reached for a given accumulated XP.
// Level n requires cumulative 50*n*(n+1) XP; the function is monotonic and
// idempotent in xp, so recomputing from the same total always agrees.
func MasteryLevel(xp float64) int {
	if xp <= 0 || math.IsNaN(xp) {
		return 0
	}
	level := 0
	for XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

// XPForLevel returns the cumulative XP required to reach level n.
func XPForLevel(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 50 * float64(n) * float64(n+1)
}

// PoolFillPct returns the fill percentage (0-100) of a mastery pool.
func PoolFillPct(xp, maxXP float64) float64 {
	if maxXP <= 0 {
		return 0
	}
	return ClampPct(xp / maxXP * 100)
}

// PoolCheckpoints are the fill percentages that unlock checkpoint bonuses.
var PoolCheckpoints = []float64{25, 50, 75, 100}

// CheckpointsCrossed returns the checkpoints passed on an upward fill move.
// Downward moves never re-lock a checkpoint, so they return nothing.
func CheckpointsCrossed(beforePct, afterPct float64) []float64 {
	if afterPct <= beforePct {
		return nil
	}
	var crossed []float64
	for _, cp := range PoolCheckpoints {
		if beforePct < cp && afterPct >= cp {
			crossed = append(crossed, cp)
		}
	}
	return crossed
}

// SalaryDiscount returns the per-crew salary discount fraction granted by the
// commerce pool checkpoint. The 50% checkpoint shaves 10% off the wage bill.
func SalaryDiscount(commercePoolPct float64) float64 {
	if commercePoolPct >= 50 {
		return 0.10
	}
	return 0
}
