package motion

import (
	"iter"
	"time"
)

// Sample is one timed position along a trajectory.
type Sample struct {
	Point
	// Fraction is the elapsed-time fraction in [0, 1].
	Fraction float64
	Elapsed  time.Duration
}

// Trajectory describes a single eased movement. It is not persisted.
type Trajectory struct {
	Start    Point
	End      Point
	Duration time.Duration
	Easing   Easing
}

// Fraction converts elapsed time into the clamped time fraction.
func (tr Trajectory) Fraction(elapsed time.Duration) float64 {
	if tr.Duration <= 0 || elapsed >= tr.Duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(tr.Duration)
}

// Position returns the eased position at time fraction f.
// At f >= 1 the end point is returned as is, without interpolation.
func (tr Trajectory) Position(f float64) Point {
	if f >= 1 {
		return tr.End
	}
	return tr.Start.Lerp(tr.End, tr.Easing.At(f))
}

// Samples lazily yields positions, reading elapsed time before each one.
// The sequence ends with the sample whose fraction reaches 1.
func (tr Trajectory) Samples(elapsed func() time.Duration) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for {
			d := elapsed()
			f := tr.Fraction(d)
			if !yield(Sample{Point: tr.Position(f), Fraction: f, Elapsed: d}) {
				return
			}
			if f >= 1 {
				return
			}
		}
	}
}
