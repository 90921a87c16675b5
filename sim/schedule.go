package sim

import "math"

// schedule tracks the next firing time of a periodic event.
type schedule struct {
	rate float64
	next float64
}

// newSchedule rounds the first firing time up to a multiple of rate that
// lies after both the start time and the after threshold.
//
//	rate 0.10, after 20.21, time 0 -> first event at 20.30
func newSchedule(es EventSchedule, time float64) schedule {
	const eps = 1e-8
	start := time
	if time < es.After {
		start = es.After
	}
	return schedule{
		rate: es.Rate,
		next: es.Rate * math.Ceil((start+eps)/es.Rate),
	}
}

// due reports whether the event fires at time and, if so, advances it.
func (s *schedule) due(time float64) bool {
	if s.next < time {
		s.next += s.rate
		return true
	}
	return false
}
