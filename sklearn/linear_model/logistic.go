package linear_model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/titanic-ml/core/model"
	"github.com/YuminosukeSato/titanic-ml/metrics"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/YuminosukeSato/titanic-ml/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Penalty values accepted by WithLRPenalty.
const (
	PenaltyL2   = "l2"
	PenaltyL1   = "l1"
	PenaltyNone = "none"
)

// maxBacktracks bounds the step halvings per iteration.
const maxBacktracks = 40

// LogisticRegression implements binary logistic regression.
// The objective follows scikit-learn's parameterisation:
//
//	C * Σ logloss(y_i, z_i) + R(w)
//
// with R(w) = ||w||²/2 for "l2", ||w||₁ for "l1" and 0 for "none".
// The intercept is never penalised. The objective is divided by C*n and
// minimised by proximal gradient descent with a backtracking line search.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2", "l1", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Seed for initial weights; negative starts from zero
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance on the gradient mapping
	learningRate float64 // Initial step size for the line search

	// Model parameters
	coef_      []float64
	intercept_ float64
	nIter_     int

	logger log.Logger
}

var _ model.LinearClassifier = (*LogisticRegression)(nil)

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      PenaltyL2,
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      1000,
		tol:          1e-4,
		learningRate: 1.0,
		logger:       log.GetLoggerWithName("LogisticRegression"),
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the seed used to jitter the initial weights
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRLearningRate sets the initial step size of the line search
func WithLRLearningRate(eta float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = eta
	}
}

func (lr *LogisticRegression) validateParams() error {
	switch lr.penalty {
	case PenaltyL2, PenaltyL1, PenaltyNone:
	default:
		return errors.NewValidationError("penalty", "must be one of l2, l1, none", lr.penalty)
	}
	if !(lr.C > 0) || math.IsInf(lr.C, 0) {
		return errors.NewValidationError("C", "must be positive and finite", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", lr.maxIter)
	}
	if !(lr.tol > 0) {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	if !(lr.learningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", lr.learningRate)
	}
	return nil
}

// Fit trains the model on X (n_samples × n_features) and y (n_samples × 1, labels 0/1).
// Hitting max_iter emits a ConvergenceWarning; the fitted weights remain usable.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	const op = "LogisticRegression.Fit"

	if err := lr.validateParams(); err != nil {
		return err
	}
	if X == nil || y == nil {
		return errors.NewEmptyDataError(op)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewEmptyDataError(op)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError(op, 1, yCols, 1)
	}

	labels := mat.Col(nil, 0, y)
	var nPos int
	for i, v := range labels {
		if v != 0 && v != 1 {
			return errors.NewInvalidLabelError(op, i, v)
		}
		if v == 1 {
			nPos++
		}
	}
	if nPos == 0 || nPos == nSamples {
		return errors.NewValueError(op, "training labels must contain both classes")
	}

	Xd := mat.DenseCopyOf(X)
	if err := errors.CheckNumericalStability(op, Xd.RawMatrix().Data, 0); err != nil {
		return err
	}

	lr.state.Reset()
	lr.initializeWeights(nFeatures)
	if err := lr.optimize(Xd, labels); err != nil {
		return err
	}

	lr.state.SetFitted(nFeatures, nSamples)
	lr.logger.Debug("model fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.PenaltyKey, lr.penalty,
		log.RegularizationKey, lr.C,
		log.IterationKey, lr.nIter_,
	)
	return nil
}

// initializeWeights starts from zero, jittered when a seed is set
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	lr.coef_ = make([]float64, nFeatures)
	lr.intercept_ = 0
	lr.nIter_ = 0

	if lr.randomState >= 0 {
		rng := rand.New(rand.NewPCG(uint64(lr.randomState), 0x9e3779b97f4a7c15))
		for j := range lr.coef_ {
			lr.coef_[j] = rng.NormFloat64() * 0.01
		}
	}
}

// objective is the mean log loss plus the smooth part of the penalty
func (lr *LogisticRegression) objective(X *mat.Dense, y, w []float64, b float64) float64 {
	n, _ := X.Dims()
	var loss float64
	for i := 0; i < n; i++ {
		z := floats.Dot(X.RawRowView(i), w) + b
		// log(1 + exp(z)) - y*z, evaluated without overflow
		loss += math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z))) - y[i]*z
	}
	loss /= float64(n)
	if lr.penalty == PenaltyL2 {
		loss += floats.Dot(w, w) / (2 * lr.C * float64(n))
	}
	return loss
}

// gradient returns the gradient of objective with respect to w and b
func (lr *LogisticRegression) gradient(X *mat.Dense, y, w []float64, b float64, gw []float64) float64 {
	n, _ := X.Dims()
	for j := range gw {
		gw[j] = 0
	}
	var gb float64
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		residual := sigmoid(floats.Dot(row, w)+b) - y[i]
		floats.AddScaled(gw, residual, row)
		gb += residual
	}
	floats.Scale(1/float64(n), gw)
	gb /= float64(n)

	if lr.penalty == PenaltyL2 {
		floats.AddScaled(gw, 1/(lr.C*float64(n)), w)
	}
	if !lr.fitIntercept {
		gb = 0
	}
	return gb
}

// prox applies the proximal operator of the non-smooth penalty for step t
func (lr *LogisticRegression) prox(w []float64, t float64, n int) {
	if lr.penalty != PenaltyL1 {
		return
	}
	threshold := t / (lr.C * float64(n))
	for j, v := range w {
		switch {
		case v > threshold:
			w[j] = v - threshold
		case v < -threshold:
			w[j] = v + threshold
		default:
			w[j] = 0
		}
	}
}

func (lr *LogisticRegression) optimize(X *mat.Dense, y []float64) error {
	const op = "LogisticRegression.optimize"

	n, p := X.Dims()
	w := lr.coef_
	b := lr.intercept_
	gw := make([]float64, p)
	cand := make([]float64, p)
	diff := make([]float64, p)
	t := lr.learningRate

	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		gb := lr.gradient(X, y, w, b, gw)
		f := lr.objective(X, y, w, b)

		var candB float64
		for k := 0; k < maxBacktracks; k++ {
			copy(cand, w)
			floats.AddScaled(cand, -t, gw)
			lr.prox(cand, t, n)
			candB = b - t*gb

			// Sufficient decrease for the quadratic upper bound
			floats.SubTo(diff, cand, w)
			db := candB - b
			bound := f + floats.Dot(gw, diff) + gb*db + (floats.Dot(diff, diff)+db*db)/(2*t)
			if lr.objective(X, y, cand, candB) <= bound+1e-12 {
				break
			}
			t /= 2
		}

		floats.SubTo(diff, cand, w)
		step := math.Max(floats.Norm(diff, math.Inf(1)), math.Abs(candB-b)) / t

		copy(w, cand)
		b = candB
		lr.nIter_ = iter + 1

		if err := errors.CheckNumericalStability(op, w, iter); err != nil {
			return err
		}
		if err := errors.CheckScalar(op, b, iter); err != nil {
			return err
		}

		if step < lr.tol {
			converged = true
			break
		}
	}

	lr.coef_ = w
	lr.intercept_ = b

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.nIter_,
			fmt.Sprintf("gradient mapping above tol=%g; consider increasing max_iter", lr.tol)))
	}
	return nil
}

func (lr *LogisticRegression) checkPredictInput(method string, X mat.Matrix) error {
	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return err
	}
	if X == nil {
		return errors.NewEmptyDataError("LogisticRegression." + method)
	}
	r, c := X.Dims()
	if r == 0 {
		return errors.NewEmptyDataError("LogisticRegression." + method)
	}
	return lr.state.RequireFeatures("LogisticRegression."+method, c)
}

func (lr *LogisticRegression) decision(X mat.Matrix) *mat.VecDense {
	nSamples, _ := X.Dims()
	z := mat.NewVecDense(nSamples, nil)
	z.MulVec(X, mat.NewVecDense(len(lr.coef_), lr.coef_))
	for i := 0; i < nSamples; i++ {
		z.SetVec(i, z.AtVec(i)+lr.intercept_)
	}
	return z
}

// DecisionFunction returns the linear score w·x + b as an n×1 matrix
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredictInput("DecisionFunction", X); err != nil {
		return nil, err
	}
	z := lr.decision(X)
	return mat.NewDense(z.Len(), 1, z.RawVector().Data), nil
}

// Predict returns class labels (0 or 1) as an n×1 matrix. Probability 0.5 maps to 1.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredictInput("Predict", X); err != nil {
		return nil, err
	}
	z := lr.decision(X)
	predictions := mat.NewDense(z.Len(), 1, nil)
	for i := 0; i < z.Len(); i++ {
		if z.AtVec(i) >= 0 {
			predictions.Set(i, 0, 1)
		}
	}
	return predictions, nil
}

// PredictProba returns [P(y=0), P(y=1)] per row as an n×2 matrix
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredictInput("PredictProba", X); err != nil {
		return nil, err
	}
	z := lr.decision(X)
	probas := mat.NewDense(z.Len(), 2, nil)
	for i := 0; i < z.Len(); i++ {
		prob1 := sigmoid(z.AtVec(i))
		probas.Set(i, 0, 1.0-prob1)
		probas.Set(i, 1, prob1)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, predictions)
}

// Coef returns a copy of the fitted coefficients
func (lr *LogisticRegression) Coef() []float64 {
	out := make([]float64, len(lr.coef_))
	copy(out, lr.coef_)
	return out
}

// Intercept returns the fitted intercept
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// NIter returns the number of iterations run by the last Fit
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// IsFitted reports whether Fit has completed
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"learning_rate": lr.learningRate,
	}
}

// SetParams sets the model hyperparameters. Unknown keys and wrongly typed
// values return a ValidationError and leave the model unchanged.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	next := *lr
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			next.penalty, ok = value.(string)
		case "C":
			next.C, ok = value.(float64)
		case "fit_intercept":
			next.fitIntercept, ok = value.(bool)
		case "random_state":
			next.randomState, ok = value.(int64)
		case "max_iter":
			next.maxIter, ok = value.(int)
		case "tol":
			next.tol, ok = value.(float64)
		case "learning_rate":
			next.learningRate, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}

	lr.penalty = next.penalty
	lr.C = next.C
	lr.fitIntercept = next.fitIntercept
	lr.randomState = next.randomState
	lr.maxIter = next.maxIter
	lr.tol = next.tol
	lr.learningRate = next.learningRate
	return nil
}

// String returns the scikit-learn style representation
func (lr *LogisticRegression) String() string {
	return fmt.Sprintf("LogisticRegression(C=%g, penalty=%s, max_iter=%d)", lr.C, lr.penalty, lr.maxIter)
}

// sigmoid computes the logistic function without overflow
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}
