package som

import "math"

// DecayKind names a schedule that shrinks a training parameter from its
// initial value as iterations progress. Every kind is monotonically
// non-increasing in t.
type DecayKind string

const (
	// DecayAsymptotic is v0 / (1 + t/(T/2)); it ends at v0/3.
	DecayAsymptotic DecayKind = "asymptotic"
	// DecayLinear is v0 * (1 - t/T); it approaches 0 at the last iteration.
	DecayLinear DecayKind = "linear"
	// DecayExponential is v0 * exp(-3t/T); it ends near 5% of v0.
	DecayExponential DecayKind = "exponential"
)

// Valid reports whether k is a known schedule.
func (k DecayKind) Valid() bool {
	switch k {
	case DecayAsymptotic, DecayLinear, DecayExponential:
		return true
	}
	return false
}

// At returns the decayed value of initial at iteration t of total.
func (k DecayKind) At(initial float64, t, total int) float64 {
	if total <= 0 {
		return initial
	}
	frac := float64(t) / float64(total)
	switch k {
	case DecayLinear:
		return initial * (1 - frac)
	case DecayExponential:
		return initial * math.Exp(-3*frac)
	default:
		return initial / (1 + 2*frac)
	}
}
