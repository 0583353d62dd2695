package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steppedElapsed(step time.Duration) func() time.Duration {
	var now time.Duration
	return func() time.Duration {
		d := now
		now += step
		return d
	}
}

func TestEasingEndpointsDependOnlyOnOuterWeights(t *testing.T) {
	middles := [][4]float64{
		{10, 100, 100, 100},
		{0, 0, 0, 0},
		{90, 5, 70, 33},
		{100, 100, 100, 100},
	}

	for _, m := range middles {
		e := Easing{0, m[0], m[1], m[2], m[3], 100}
		assert.Equal(t, 0.0, e.At(0), "t=0 with middle %v", m)
		assert.Equal(t, 1.0, e.At(1), "t=1 with middle %v", m)

		shifted := Easing{20, m[0], m[1], m[2], m[3], 60}
		assert.Equal(t, 0.2, shifted.At(0))
		assert.Equal(t, 0.6, shifted.At(1))
	}
}

func TestDefaultEasingIsMonotonic(t *testing.T) {
	prev := DefaultEasing.At(0)
	for i := 1; i <= 1000; i++ {
		cur := DefaultEasing.At(float64(i) / 1000)
		require.GreaterOrEqual(t, cur, prev, "easing decreased at step %d", i)
		prev = cur
	}
	// slow start
	assert.Less(t, DefaultEasing.At(0.01), 0.01)
}

func TestSamplesEndExactlyAtTarget(t *testing.T) {
	pairs := []struct {
		start, end Point
	}{
		{Point{0, 0}, Point{100, 100}},
		{Point{0.1, 0.2}, Point{0.3, 0.7}},
		{Point{1920.5, 3.33}, Point{-12.125, 977.1}},
		{Point{50, 50}, Point{50, 50}},
	}
	durations := []time.Duration{0, 1 * time.Millisecond, 100 * time.Millisecond, 333 * time.Millisecond, 499 * time.Millisecond}

	for _, p := range pairs {
		for _, d := range durations {
			tr := Trajectory{Start: p.start, End: p.end, Duration: d, Easing: DefaultEasing}

			var samples []Sample
			for s := range tr.Samples(steppedElapsed(10 * time.Millisecond)) {
				samples = append(samples, s)
			}

			require.NotEmpty(t, samples)
			last := samples[len(samples)-1]
			assert.Equal(t, p.end, last.Point, "duration %s", d)
			assert.Equal(t, 1.0, last.Fraction)

			for i := 1; i < len(samples); i++ {
				assert.GreaterOrEqual(t, samples[i].Elapsed, samples[i-1].Elapsed)
				assert.GreaterOrEqual(t, samples[i].Fraction, samples[i-1].Fraction)
			}
		}
	}
}

func TestSamplesStopWhenConsumerBreaks(t *testing.T) {
	tr := Trajectory{Start: Point{0, 0}, End: Point{10, 0}, Duration: time.Second, Easing: DefaultEasing}

	n := 0
	for range tr.Samples(steppedElapsed(10 * time.Millisecond)) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestFractionClamps(t *testing.T) {
	tr := Trajectory{Duration: 200 * time.Millisecond}
	assert.Equal(t, 0.0, tr.Fraction(-time.Millisecond))
	assert.Equal(t, 0.5, tr.Fraction(100*time.Millisecond))
	assert.Equal(t, 1.0, tr.Fraction(time.Second))
	assert.Equal(t, 1.0, Trajectory{}.Fraction(0))
}
