// Standard attribute keys for machine learning operations. Using these keys
// keeps log entries from the metrics, model and experiment packages
// filterable with the same queries.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "LogisticRegression", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "cross_validate"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"

	// RunIDKey identifies a single experiment run (UUID).
	RunIDKey = "experiment.run_id"
)

// Data Shape and Characteristics
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"

	// PositiveRateKey records the share of positive labels in a split.
	PositiveRateKey = "data.positive_rate"

	// SourceKey records where a dataset was loaded from.
	SourceKey = "data.source"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy, range [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// TrainAccuracyKey and TestAccuracyKey separate the two sides of a split.
	TrainAccuracyKey = "metrics.train_accuracy"
	TestAccuracyKey  = "metrics.test_accuracy"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration number during iterative processes.
	IterationKey = "training.iteration"

	// FoldKey records the cross-validation fold index.
	FoldKey = "cv.fold"

	// NSplitsKey records the number of cross-validation folds.
	NSplitsKey = "cv.n_splits"
)

// Error and Warning Context
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// RegularizationKey records regularization strength C (inverse of lambda).
	RegularizationKey = "hyperparams.regularization"

	// PenaltyKey records the penalty type ("l1", "l2", "none").
	PenaltyKey = "hyperparams.penalty"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationTransform     = "transform"
	OperationScore         = "score"
	OperationCrossValidate = "cross_validate"
	OperationSweep         = "regularization_sweep"
	OperationLoad          = "load"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidLabel      = "INVALID_LABEL"
	ErrorDegenerateInput   = "DEGENERATE_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
