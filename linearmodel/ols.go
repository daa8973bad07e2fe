// Package linearmodel fits the least squares regressions behind the autoregressive forecast
// strategies.
package linearmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrTargetLenMismatch  = errors.New("target length does not match training rows")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrUnderdetermined    = errors.New("fewer observations than coefficients")
	ErrSingularMatrix     = errors.New("design matrix is singular")
	ErrNegativeRcond      = errors.New("rank condition must not be negative")
)

// OLSOptions represents input options to run the OLS Regression
type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool

	// Rcond is the relative singular value cutoff used when the QR solve is ill conditioned and the
	// minimum norm solution is computed instead
	Rcond float64
}

// NewDefaultOLSOptions returns a default set of OLS Regression options
func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
		Rcond:        1e-12,
	}
}

// Validate runs basic validation on OLS options
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		return NewDefaultOLSOptions(), nil
	}
	if o.Rcond < 0 {
		return nil, ErrNegativeRcond
	}
	return o, nil
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
}

// NewOLSRegression initializes an ordinary least squares model ready for fitting
func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

func (o *OLSRegression) design(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	n := len(x[0])
	offset := 0
	if o.opt.FitIntercept {
		offset = 1
	}
	if n+offset == 0 {
		return nil, ErrNoTrainingMatrix
	}

	d := mat.NewDense(m, n+offset, nil)
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d features, expected %d, %w", i, len(row), n, ErrFeatureLenMismatch)
		}
		if offset == 1 {
			d.Set(i, 0, 1.0)
		}
		for j, v := range row {
			d.Set(i, j+offset, v)
		}
	}
	return d, nil
}

// Fit the model according to the given training rows and targets
func (o *OLSRegression) Fit(x [][]float64, y []float64) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if len(x) == 0 {
		return ErrNoTrainingMatrix
	}
	if len(x) != len(y) {
		return fmt.Errorf("training data has %d rows and target has %d rows, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	d, err := o.design(x)
	if err != nil {
		return err
	}
	m, n := d.Dims()
	if m < n {
		return fmt.Errorf("%d observations for %d coefficients, %w", m, n, ErrUnderdetermined)
	}
	target := mat.NewDense(m, 1, append([]float64(nil), y...))

	var c mat.Dense
	qr := new(mat.QR)
	qr.Factorize(d)
	if o.opt.Rcond > 0 && qr.Cond() > 1/o.opt.Rcond {
		if err := o.solveMinNorm(&c, d, target); err != nil {
			return err
		}
	} else if err := qr.SolveTo(&c, false, target); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return err
		}
		if err := o.solveMinNorm(&c, d, target); err != nil {
			return err
		}
	}

	coef := mat.Col(nil, 0, &c)
	for _, v := range coef {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coefficient, %w", ErrSingularMatrix)
		}
	}

	if o.opt.FitIntercept {
		o.intercept = coef[0]
		o.coef = coef[1:]
	} else {
		o.intercept = 0
		o.coef = coef
	}
	return nil
}

// solveMinNorm handles rank deficient designs such as lag columns of a flat series
func (o *OLSRegression) solveMinNorm(dst *mat.Dense, d, target *mat.Dense) error {
	var svd mat.SVD
	if ok := svd.Factorize(d, mat.SVDThin); !ok {
		return fmt.Errorf("svd factorization failed, %w", ErrSingularMatrix)
	}
	_, n := d.Dims()
	rank := svd.Rank(o.opt.Rcond)
	dst.Reset()
	if rank < 1 {
		dst.ReuseAs(n, 1)
		return nil
	}
	svd.SolveTo(dst, target, rank)
	return nil
}

// PredictRow returns the prediction for a single feature row
func (o *OLSRegression) PredictRow(row []float64) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if len(row) != len(o.coef) {
		return 0.0, fmt.Errorf("got %d features in row, but expected %d, %w", len(row), len(o.coef), ErrFeatureLenMismatch)
	}
	return o.intercept + floats.Dot(o.coef, row), nil
}

// Predict using the OLS model
func (o *OLSRegression) Predict(x [][]float64) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if len(x) == 0 {
		return nil, ErrNoDesignMatrix
	}

	res := make([]float64, len(x))
	for i, row := range x {
		v, err := o.PredictRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d, %w", i, err)
		}
		res[i] = v
	}
	return res, nil
}

// Score computes the coefficient of determination of the prediction
func (o *OLSRegression) Score(x [][]float64, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, y, nil), nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature columns.
func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}
