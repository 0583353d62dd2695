package motion

// Easing holds the six control weights of a quintic Bézier easing curve on a 0..100 scale.
type Easing [6]float64

// DefaultEasing starts slowly and settles almost linearly.
var DefaultEasing = Easing{0, 10, 100, 100, 100, 100}

// binomial coefficients for n = 5.
var quinticCoefficients = [6]float64{1, 5, 10, 10, 5, 1}

// At evaluates the curve at t in [0, 1] and returns the eased progress.
func (e Easing) At(t float64) float64 {
	if t <= 0 {
		return e[0] / 100
	}
	if t >= 1 {
		return e[5] / 100
	}

	u := 1 - t
	var sum float64
	for i, w := range e {
		sum += quinticCoefficients[i] * pow(u, 5-i) * pow(t, i) * (w / 100)
	}
	return sum
}

func pow(x float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}
