package forecast

import (
	"errors"
	"math"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 normalized standard deviation.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSquares float64
	for _, v := range values {
		d := v - m
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

func minFloat(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v < out {
			out = v
		}
	}
	return out
}

func maxFloat(values []float64) float64 {
	out := values[0]
	for _, v := range values[1:] {
		if v > out {
			out = v
		}
	}
	return out
}

// solveLinearSystem solves A x = b in place by Gaussian elimination with
// partial pivoting. A is square, row-major. Sized for the small normal
// equation systems the strategies produce (tens of unknowns at most).
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	if n == 0 || len(b) != n {
		return nil, errors.New("dimension mismatch")
	}

	for col := 0; col < n; col++ {
		// pivot
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

// chiSquareSF is the survival function (1 - CDF) of the chi-square
// distribution with k degrees of freedom, via the regularized incomplete
// gamma function.
func chiSquareSF(x float64, k int) (float64, error) {
	if x < 0 || k <= 0 {
		return 0, errors.New("invalid chi-square arguments")
	}
	p, err := regularizedGammaP(float64(k)/2, x/2)
	if err != nil {
		return 0, err
	}
	return 1 - p, nil
}

// regularizedGammaP computes P(a, x), the regularized lower incomplete gamma
// function, using the series expansion for x < a+1 and the continued
// fraction otherwise.
func regularizedGammaP(a, x float64) (float64, error) {
	if x < 0 || a <= 0 {
		return 0, errors.New("invalid gamma arguments")
	}
	if x == 0 {
		return 0, nil
	}

	lg, _ := math.Lgamma(a)

	if x < a+1 {
		// series representation
		ap := a
		sum := 1.0 / a
		del := sum
		for i := 0; i < 200; i++ {
			ap++
			del *= x / ap
			sum += del
			if math.Abs(del) < math.Abs(sum)*1e-12 {
				return sum * math.Exp(-x+a*math.Log(x)-lg), nil
			}
		}
		return 0, errors.New("gamma series did not converge")
	}

	// continued fraction representation of Q(a, x)
	const tiny = 1e-30
	b := x + 1 - a
	c := 1 / tiny
	d := 1 / b
	h := d
	for i := 1; i <= 200; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = b + an/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < 1e-12 {
			q := math.Exp(-x+a*math.Log(x)-lg) * h
			return 1 - q, nil
		}
	}
	return 0, errors.New("gamma continued fraction did not converge")
}
