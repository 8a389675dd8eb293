package sampling

import "math"

// AdaptiveMinEvents is the number of recorded events needed before the
// observed error rate influences the effective rate.
const AdaptiveMinEvents = 100

// adaptiveBand maps an error-rate lower bound (exclusive) to a rate.
type adaptiveBand struct {
	above float64
	rate  float64
}

var adaptiveBands = []adaptiveBand{
	{above: 0.05, rate: 1.0},
	{above: 0.01, rate: 0.5},
	{above: 0.001, rate: 0.25},
}

const adaptiveBaseRate = 0.1

// AdaptiveRate returns the rate for the observed counters, floored at
// floor. Below AdaptiveMinEvents it returns floor.
func AdaptiveRate(total, errors int, floor float64) float64 {
	floor = ClampRate(floor)
	if total < AdaptiveMinEvents {
		return floor
	}

	errorRate := float64(errors) / float64(total)
	rate := adaptiveBaseRate
	for _, band := range adaptiveBands {
		if errorRate > band.above {
			rate = band.rate
			break
		}
	}
	return math.Max(rate, floor)
}

// RecordEvent counts one event for adaptive sampling.
func (e *Engine) RecordEvent(hasError bool) {
	e.totalEvents++
	if hasError {
		e.errorEvents++
	}
}

// AdaptiveStats returns the recorded (total, errors) counters.
func (e *Engine) AdaptiveStats() (total, errors int) {
	return e.totalEvents, e.errorEvents
}

// ResetAdaptive clears the adaptive counters, starting a new observation
// window.
func (e *Engine) ResetAdaptive() {
	e.totalEvents = 0
	e.errorEvents = 0
}

// EffectiveRate is the rate used when no rule matches: the adaptive rate
// when adaptive sampling is enabled, otherwise the global rate.
func (e *Engine) EffectiveRate() float64 {
	if !e.adaptive {
		return e.globalRate
	}
	return AdaptiveRate(e.totalEvents, e.errorEvents, e.globalRate)
}
