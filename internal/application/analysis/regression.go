package analysis

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// polyFit returns least-squares coefficients c[0..degree] for y = Σ c[k]·x^k.
func polyFit(xs, ys []float64, degree int) ([]float64, error) {
	n := degree + 1
	if len(xs) < n {
		return nil, ErrInsufficientData
	}
	if degree == 1 {
		if stat.Variance(xs, nil) == 0 {
			return nil, ErrSingularFit
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		return []float64{alpha, beta}, nil
	}

	vander := mat.NewDense(len(xs), n, nil)
	for i, x := range xs {
		p := 1.0
		for k := 0; k < n; k++ {
			vander.Set(i, k, p)
			p *= x
		}
	}
	var qr mat.QR
	qr.Factorize(vander)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, mat.NewVecDense(len(ys), ys)); err != nil {
		return nil, ErrSingularFit
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = coef.AtVec(k)
	}
	return out, nil
}

func evalPoly(coef []float64, x float64) float64 {
	y := 0.0
	for k := len(coef) - 1; k >= 0; k-- {
		y = y*x + coef[k]
	}
	return y
}
