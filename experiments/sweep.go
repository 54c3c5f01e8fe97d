package experiments

import (
	"context"

	"github.com/YuminosukeSato/titanic-ml/core/model"
	"github.com/YuminosukeSato/titanic-ml/datasets"
	"github.com/YuminosukeSato/titanic-ml/metrics"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/YuminosukeSato/titanic-ml/pkg/log"
	"github.com/YuminosukeSato/titanic-ml/sklearn/linear_model"
	"github.com/YuminosukeSato/titanic-ml/sklearn/model_selection"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// SweepConfig controls RegularizationSweep.
type SweepConfig struct {
	CMin    float64 // smallest C, inclusive
	CMax    float64 // largest C, inclusive
	Steps   int     // grid points, log-spaced
	Folds   int
	Seed    uint64
	Penalty string
	MaxIter int
	Scale   bool // standardise features inside each fold

	ReportOptions []metrics.AccuracyOption
}

// DefaultSweepConfig returns a 13-point grid over [1e-3, 1e3] with 5 stratified folds.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		CMin:    1e-3,
		CMax:    1e3,
		Steps:   13,
		Folds:   5,
		Seed:    42,
		Penalty: linear_model.PenaltyL2,
		MaxIter: 1000,
		Scale:   true,
	}
}

// Grid returns the C values of the sweep in ascending order.
func (c SweepConfig) Grid() ([]float64, error) {
	if !(c.CMin > 0) {
		return nil, errors.NewValidationError("c_min", "must be positive", c.CMin)
	}
	if c.CMax < c.CMin {
		return nil, errors.NewValidationError("c_max", "must not be smaller than c_min", c.CMax)
	}
	if c.Steps < 1 {
		return nil, errors.NewValidationError("steps", "must be at least 1", c.Steps)
	}
	if c.Steps == 1 {
		return []float64{c.CMin}, nil
	}
	return floats.LogSpan(make([]float64, c.Steps), c.CMin, c.CMax), nil
}

// SweepPoint summarises cross-validation at one value of C.
type SweepPoint struct {
	C                 float64
	MeanTrainAccuracy float64
	StdTrainAccuracy  float64
	MeanTestAccuracy  float64
	StdTestAccuracy   float64

	// MeanCoef is the fold average of the fitted coefficients, one per feature.
	MeanCoef      []float64
	MeanIntercept float64

	// Report averages the fold reports whose metrics were all defined; nil if none were.
	Report *metrics.AccuracyReport
}

// SweepResult is the outcome of RegularizationSweep.
type SweepResult struct {
	RunID        uuid.UUID
	Config       SweepConfig
	FeatureNames []string
	Points       []SweepPoint

	// Best is the point with the highest mean test accuracy; ties go to the smaller C.
	Best SweepPoint
}

// Cs returns the C value of every point.
func (r *SweepResult) Cs() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.C
	}
	return out
}

// RegularizationSweep cross-validates logistic regression for each C of the grid.
// All grid points share the same folds.
func RegularizationSweep(ctx context.Context, ds *datasets.Dataset, cfg SweepConfig, opts ...Option) (*SweepResult, error) {
	const op = "RegularizationSweep"

	grid, err := cfg.Grid()
	if err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewEmptyDataError(op)
	}

	run := newRunConfig("experiments", opts)
	run.logger.Info("sweep started",
		log.OperationKey, log.OperationSweep,
		log.SamplesKey, ds.Len(),
		log.NSplitsKey, cfg.Folds,
		log.PenaltyKey, cfg.Penalty,
		log.RandomSeedKey, cfg.Seed,
	)

	splitter := model_selection.NewStratifiedKFold(cfg.Folds, model_selection.WithShuffle(cfg.Seed))
	cvOpts := []model_selection.CVOption{
		model_selection.WithKeepModels(true),
		model_selection.WithReportOptions(cfg.ReportOptions...),
		model_selection.WithCVLogger(run.logger),
	}
	if cfg.Scale {
		cvOpts = append(cvOpts, model_selection.WithPreprocessor(scalerFactory))
	}

	result := &SweepResult{
		RunID:        run.runID,
		Config:       cfg,
		FeatureNames: append([]string(nil), ds.FeatureNames...),
		Points:       make([]SweepPoint, 0, len(grid)),
	}

	for _, c := range grid {
		cv, err := model_selection.CrossValidate(ctx, logisticFactory(c, cfg.Penalty, cfg.MaxIter), ds.X, ds.Y, splitter, cvOpts...)
		if err != nil {
			return nil, errors.Wrapf(err, "%s at C=%g", op, c)
		}

		point, err := summarise(c, cv)
		if err != nil {
			return nil, errors.Wrapf(err, "%s at C=%g", op, c)
		}
		result.Points = append(result.Points, point)

		run.logger.Info("sweep point",
			log.RegularizationKey, c,
			log.TrainAccuracyKey, point.MeanTrainAccuracy,
			log.TestAccuracyKey, point.MeanTestAccuracy,
		)
	}

	best := 0
	for i, p := range result.Points {
		if p.MeanTestAccuracy > result.Points[best].MeanTestAccuracy {
			best = i
		}
	}
	result.Best = result.Points[best]

	run.logger.Info("sweep finished",
		log.OperationKey, log.OperationSweep,
		log.RegularizationKey, result.Best.C,
		log.TestAccuracyKey, result.Best.MeanTestAccuracy,
	)
	return result, nil
}

func summarise(c float64, cv *model_selection.CVResult) (SweepPoint, error) {
	point := SweepPoint{
		C:                 c,
		MeanTrainAccuracy: cv.MeanTrainAccuracy(),
		StdTrainAccuracy:  cv.StdTrainAccuracy(),
		MeanTestAccuracy:  cv.MeanTestAccuracy(),
		StdTestAccuracy:   cv.StdTestAccuracy(),
	}

	for _, f := range cv.Folds {
		lc, ok := f.Model.(model.LinearClassifier)
		if !ok {
			return SweepPoint{}, errors.NewValueError("summarise", "fold model does not expose coefficients")
		}
		coef := lc.Coef()
		if point.MeanCoef == nil {
			point.MeanCoef = make([]float64, len(coef))
		}
		floats.Add(point.MeanCoef, coef)
		point.MeanIntercept += lc.Intercept()
	}
	if n := float64(len(cv.Folds)); n > 0 {
		floats.Scale(1/n, point.MeanCoef)
		point.MeanIntercept /= n
	}

	if report, err := cv.AverageReport(); err == nil {
		point.Report = report
	} else if !errors.Is(err, errors.ErrEmptyData) {
		return SweepPoint{}, err
	}
	return point, nil
}
