package model_selection

import (
	"context"
	"fmt"
	"time"

	"github.com/YuminosukeSato/titanic-ml/core/model"
	"github.com/YuminosukeSato/titanic-ml/metrics"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/YuminosukeSato/titanic-ml/pkg/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ClassifierFactory returns a fresh, unfitted classifier for each fold.
type ClassifierFactory func() model.Classifier

// TransformerFactory returns a fresh, unfitted transformer. It is fitted on the
// training part of each fold only.
type TransformerFactory func() model.Transformer

// FoldResult holds the outcome of one fold.
type FoldResult struct {
	Fold          int
	TrainSize     int
	TestSize      int
	TrainAccuracy float64
	TestAccuracy  float64

	// Report is the test-side accuracy report. It is nil when the fold's
	// predictions leave a metric undefined; ReportErr then holds the
	// DegenerateInputError.
	Report    *metrics.AccuracyReport
	ReportErr error

	Model    model.Classifier
	Duration time.Duration
}

// CVResult stores cross-validation results
type CVResult struct {
	Folds []FoldResult
}

// TestAccuracies returns the test accuracy of each fold
func (r *CVResult) TestAccuracies() []float64 {
	out := make([]float64, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.TestAccuracy
	}
	return out
}

// TrainAccuracies returns the training accuracy of each fold
func (r *CVResult) TrainAccuracies() []float64 {
	out := make([]float64, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.TrainAccuracy
	}
	return out
}

// MeanTestAccuracy returns mean test accuracy
func (r *CVResult) MeanTestAccuracy() float64 {
	return mean(r.TestAccuracies())
}

// StdTestAccuracy returns the sample standard deviation of test accuracy
func (r *CVResult) StdTestAccuracy() float64 {
	return stdDev(r.TestAccuracies())
}

// MeanTrainAccuracy returns mean training accuracy
func (r *CVResult) MeanTrainAccuracy() float64 {
	return mean(r.TrainAccuracies())
}

// StdTrainAccuracy returns the sample standard deviation of training accuracy
func (r *CVResult) StdTrainAccuracy() float64 {
	return stdDev(r.TrainAccuracies())
}

// AverageReport averages the fold reports that are defined. It fails with
// ErrEmptyData when no fold produced a report.
func (r *CVResult) AverageReport() (*metrics.AccuracyReport, error) {
	reports := make([]*metrics.AccuracyReport, 0, len(r.Folds))
	for _, f := range r.Folds {
		if f.Report != nil {
			reports = append(reports, f.Report)
		}
	}
	return metrics.AverageReports(reports)
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

func stdDev(x []float64) float64 {
	if len(x) <= 1 {
		return 0
	}
	return stat.StdDev(x, nil)
}

type cvConfig struct {
	preprocessor  TransformerFactory
	reportOptions []metrics.AccuracyOption
	keepModels    bool
	logger        log.Logger
}

// CVOption configures CrossValidate.
type CVOption func(*cvConfig)

// WithPreprocessor fits a fresh transformer on each training fold and applies it to both sides.
func WithPreprocessor(factory TransformerFactory) CVOption {
	return func(c *cvConfig) {
		c.preprocessor = factory
	}
}

// WithReportOptions passes options to the per-fold CalculateAccuracy call.
func WithReportOptions(opts ...metrics.AccuracyOption) CVOption {
	return func(c *cvConfig) {
		c.reportOptions = append(c.reportOptions, opts...)
	}
}

// WithKeepModels keeps the fitted model of each fold in FoldResult.Model.
func WithKeepModels(keep bool) CVOption {
	return func(c *cvConfig) {
		c.keepModels = keep
	}
}

// WithCVLogger overrides the logger used for per-fold progress.
func WithCVLogger(l log.Logger) CVOption {
	return func(c *cvConfig) {
		c.logger = l
	}
}

// CrossValidate fits a fresh classifier on every training fold and scores it on
// the matching test fold. Folds run sequentially; ctx is checked before each one.
func CrossValidate(ctx context.Context, factory ClassifierFactory, X mat.Matrix, y mat.Vector,
	splitter Splitter, opts ...CVOption) (*CVResult, error) {
	const op = "CrossValidate"

	cfg := cvConfig{logger: log.GetLoggerWithName("model_selection")}
	for _, opt := range opts {
		opt(&cfg)
	}

	if factory == nil || splitter == nil {
		return nil, errors.NewValueError(op, "factory and splitter are required")
	}
	if X == nil || y == nil {
		return nil, errors.NewEmptyDataError(op)
	}
	nSamples, _ := X.Dims()
	if nSamples != y.Len() {
		return nil, errors.NewDimensionError(op, nSamples, y.Len(), 0)
	}

	folds, err := splitter.Split(y)
	if err != nil {
		return nil, errors.Wrap(err, "split")
	}

	result := &CVResult{Folds: make([]FoldResult, 0, len(folds))}
	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "cross-validation stopped before fold %d", i)
		}

		var fr FoldResult
		err := errors.SafeExecute(fmt.Sprintf("%s fold %d", op, i), func() error {
			var ferr error
			fr, ferr = runFold(factory, cfg, X, y, fold)
			return ferr
		})
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		fr.Fold = i
		if !cfg.keepModels {
			fr.Model = nil
		}

		cfg.logger.Debug("fold finished",
			log.OperationKey, log.OperationCrossValidate,
			log.FoldKey, i,
			log.NSplitsKey, len(folds),
			log.TrainAccuracyKey, fr.TrainAccuracy,
			log.TestAccuracyKey, fr.TestAccuracy,
			log.DurationMsKey, fr.Duration.Milliseconds(),
		)
		result.Folds = append(result.Folds, fr)
	}

	return result, nil
}

func runFold(factory ClassifierFactory, cfg cvConfig, X mat.Matrix, y mat.Vector, fold Fold) (FoldResult, error) {
	start := time.Now()

	var XTrain, XTest mat.Matrix = TakeRows(X, fold.TrainIndices), TakeRows(X, fold.TestIndices)
	yTrain, yTest := TakeVec(y, fold.TrainIndices), TakeVec(y, fold.TestIndices)

	if cfg.preprocessor != nil {
		tr := cfg.preprocessor()
		var err error
		if XTrain, err = tr.FitTransform(XTrain); err != nil {
			return FoldResult{}, errors.Wrap(err, "preprocess train")
		}
		if XTest, err = tr.Transform(XTest); err != nil {
			return FoldResult{}, errors.Wrap(err, "preprocess test")
		}
	}

	clf := factory()
	if err := clf.Fit(XTrain, yTrain); err != nil {
		return FoldResult{}, err
	}

	trainPred, err := clf.Predict(XTrain)
	if err != nil {
		return FoldResult{}, err
	}
	testPred, err := clf.Predict(XTest)
	if err != nil {
		return FoldResult{}, err
	}

	fr := FoldResult{
		TrainSize: len(fold.TrainIndices),
		TestSize:  len(fold.TestIndices),
		Model:     clf,
	}
	if fr.TrainAccuracy, err = metrics.AccuracyMatrix(yTrain, trainPred); err != nil {
		return FoldResult{}, err
	}
	if fr.TestAccuracy, err = metrics.AccuracyMatrix(yTest, testPred); err != nil {
		return FoldResult{}, err
	}

	report, err := metrics.CalculateAccuracyMatrix(yTest, testPred, cfg.reportOptions...)
	var degErr *errors.DegenerateInputError
	switch {
	case err == nil:
		fr.Report = report
	case errors.As(err, &degErr):
		fr.ReportErr = err
	default:
		return FoldResult{}, err
	}

	fr.Duration = time.Since(start)
	return fr, nil
}
