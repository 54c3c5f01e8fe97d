package experiments

import (
	"context"

	"github.com/YuminosukeSato/titanic-ml/datasets"
	"github.com/YuminosukeSato/titanic-ml/metrics"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/YuminosukeSato/titanic-ml/pkg/log"
	"github.com/YuminosukeSato/titanic-ml/sklearn/linear_model"
	"github.com/YuminosukeSato/titanic-ml/sklearn/model_selection"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// StudyConfig controls AccuracyStudy.
type StudyConfig struct {
	TestSize         float64
	Seed             uint64
	C                float64
	Penalty          string
	MaxIter          int
	Scale            bool
	PredictiveValues metrics.PredictiveValueFormula

	// Folds > 1 additionally cross-validates on the training part.
	Folds int
}

// DefaultStudyConfig returns a stratified 75/25 split with C=1 and 5-fold CV.
func DefaultStudyConfig() StudyConfig {
	return StudyConfig{
		TestSize:         0.25,
		Seed:             42,
		C:                1.0,
		Penalty:          linear_model.PenaltyL2,
		MaxIter:          1000,
		Scale:            true,
		PredictiveValues: metrics.PredictiveValuesTextbook,
		Folds:            5,
	}
}

// StudyResult holds the reports of one accuracy study.
type StudyResult struct {
	RunID        uuid.UUID
	Config       StudyConfig
	FeatureNames []string
	TrainSize    int
	TestSize     int

	TrainReport *metrics.AccuracyReport
	TestReport  *metrics.AccuracyReport
	TestAUC     float64
	TestLogLoss float64

	Coef      []float64
	Intercept float64

	// CV is nil unless Config.Folds > 1.
	CV *model_selection.CVResult
}

// AccuracyStudy splits ds into stratified train and test parts, fits logistic
// regression on the training part and reports every accuracy measure on both.
func AccuracyStudy(ctx context.Context, ds *datasets.Dataset, cfg StudyConfig, opts ...Option) (*StudyResult, error) {
	const op = "AccuracyStudy"

	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewEmptyDataError(op)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}
	run := newRunConfig("experiments", opts)

	trainIdx, testIdx, err := model_selection.TrainTestSplit(ds.Y, cfg.TestSize, true, cfg.Seed)
	if err != nil {
		return nil, err
	}
	train, err := ds.Subset(trainIdx)
	if err != nil {
		return nil, err
	}
	test, err := ds.Subset(testIdx)
	if err != nil {
		return nil, err
	}
	run.logger.Info("study split",
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, train.Len(),
		log.PositiveRateKey, train.PositiveRate(),
	)

	var XTrain, XTest mat.Matrix = train.X, test.X
	if cfg.Scale {
		scaler := scalerFactory()
		if XTrain, err = scaler.FitTransform(train.X); err != nil {
			return nil, err
		}
		if XTest, err = scaler.Transform(test.X); err != nil {
			return nil, err
		}
	}

	clf := linear_model.NewLogisticRegression(
		linear_model.WithLRC(cfg.C),
		linear_model.WithLRPenalty(cfg.Penalty),
		linear_model.WithLRMaxIter(cfg.MaxIter),
	)
	if err := clf.Fit(XTrain, train.Y); err != nil {
		return nil, errors.Wrap(err, op)
	}

	result := &StudyResult{
		RunID:        run.runID,
		Config:       cfg,
		FeatureNames: append([]string(nil), ds.FeatureNames...),
		TrainSize:    train.Len(),
		TestSize:     test.Len(),
		Coef:         clf.Coef(),
		Intercept:    clf.Intercept(),
	}

	reportOpts := []metrics.AccuracyOption{metrics.WithPredictiveValues(cfg.PredictiveValues)}
	if result.TrainReport, err = evaluate(clf, XTrain, train.Y, reportOpts); err != nil {
		return nil, errors.Wrap(err, "train report")
	}
	if result.TestReport, err = evaluate(clf, XTest, test.Y, reportOpts); err != nil {
		return nil, errors.Wrap(err, "test report")
	}

	proba, err := clf.PredictProba(XTest)
	if err != nil {
		return nil, err
	}
	positive := mat.NewVecDense(test.Len(), mat.Col(nil, 1, proba))
	if result.TestAUC, err = metrics.AUC(test.Y, positive); err != nil {
		return nil, err
	}
	if result.TestLogLoss, err = metrics.BinaryLogLoss(test.Y, positive); err != nil {
		return nil, err
	}

	if cfg.Folds > 1 {
		cvOpts := []model_selection.CVOption{
			model_selection.WithReportOptions(reportOpts...),
			model_selection.WithCVLogger(run.logger),
		}
		if cfg.Scale {
			cvOpts = append(cvOpts, model_selection.WithPreprocessor(scalerFactory))
		}
		splitter := model_selection.NewStratifiedKFold(cfg.Folds, model_selection.WithShuffle(cfg.Seed))
		result.CV, err = model_selection.CrossValidate(ctx, logisticFactory(cfg.C, cfg.Penalty, cfg.MaxIter),
			train.X, train.Y, splitter, cvOpts...)
		if err != nil {
			return nil, err
		}
	}

	run.logger.Info("study finished",
		log.PhaseKey, log.PhaseTesting,
		log.TrainAccuracyKey, result.TrainReport.Accuracy,
		log.TestAccuracyKey, result.TestReport.Accuracy,
		log.RegularizationKey, cfg.C,
	)
	return result, nil
}

func evaluate(clf *linear_model.LogisticRegression, X mat.Matrix, y *mat.VecDense, opts []metrics.AccuracyOption) (*metrics.AccuracyReport, error) {
	pred, err := clf.Predict(X)
	if err != nil {
		return nil, err
	}
	return metrics.CalculateAccuracyMatrix(y, pred, opts...)
}
