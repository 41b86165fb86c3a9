package rules

import "math"

// AssistSuccessChance computes the piloting check probability for a
// gravity-assist opportunity. A wider closest approach is flown more easily,
// so proximity scales the chance up toward the threshold distance.
func AssistSuccessChance(pilotSkill, closestApproachKm, thresholdKm float64) float64 {
	if thresholdKm <= 0 {
		return 0
	}
	skill := Clamp(pilotSkill, 0, 100)
	proximity := Clamp(closestApproachKm/thresholdKm, 0, 1)
	return (0.1 + 0.8*skill/100) * (0.5 + 0.5*proximity)
}

// AssistFuelRefund computes the fuel (kg) refunded by a successful assist.
// Scales with the body's log-mass, how deep into the threshold the ship
// passed, and pilot skill. Guarded against non-finite or negative results.
func AssistFuelRefund(bodyMassKg, closestApproachKm, thresholdKm, pilotSkill, baseKg float64) float64 {
	if thresholdKm <= 0 || bodyMassKg <= 0 {
		return 0
	}
	depth := 1 - Clamp(closestApproachKm/thresholdKm, 0, 1)
	skill := Clamp(pilotSkill, 0, 100)
	refund := baseKg * math.Log10(bodyMassKg) * depth * (0.5 + skill/200)
	return Guard(refund)
}

// AssistFuelPenalty computes the correction-burn fuel cost (kg) of a failed
// assist. Smaller than the refund it forfeits, but never free.
func AssistFuelPenalty(bodyMassKg, closestApproachKm, thresholdKm, baseKg float64) float64 {
	if thresholdKm <= 0 || bodyMassKg <= 0 {
		return 0
	}
	depth := 1 - Clamp(closestApproachKm/thresholdKm, 0, 1)
	penalty := baseKg * math.Log10(bodyMassKg) * (0.25 + 0.5*depth)
	return Guard(penalty)
}

// AssistThresholdKm returns the gameplay-expanded capture distance for a body.
// Real gravity wells would be far too small to ever trigger; the threshold is
// inflated by log-mass so flybys of big bodies matter at map scale.
func AssistThresholdKm(bodyMassKg, baseKm float64) float64 {
	if bodyMassKg <= 0 {
		return 0
	}
	return Guard(baseKm * math.Log10(bodyMassKg))
}

// Guard clamps a computed value that must be non-negative and finite.
// Any NaN, infinite, or negative result collapses to 0 instead of propagating.
func Guard(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPct bounds a percentage field to [0, 100].
func ClampPct(v float64) float64 {
	return Clamp(v, 0, 100)
}
