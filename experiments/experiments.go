// Package experiments runs the Titanic accuracy workflows on top of the
// metrics, model_selection and linear_model packages: a regularisation sweep
// over C and a single train/test accuracy study.
package experiments

import (
	"github.com/YuminosukeSato/titanic-ml/core/model"
	"github.com/YuminosukeSato/titanic-ml/pkg/log"
	"github.com/YuminosukeSato/titanic-ml/preprocessing"
	"github.com/YuminosukeSato/titanic-ml/sklearn/linear_model"
	"github.com/google/uuid"
)

type runConfig struct {
	logger log.Logger
	runID  uuid.UUID
}

// Option configures a run.
type Option func(*runConfig)

// WithLogger overrides the logger used for progress entries.
func WithLogger(l log.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithRunID fixes the run identifier instead of generating a new one.
func WithRunID(id uuid.UUID) Option {
	return func(c *runConfig) {
		c.runID = id
	}
}

func newRunConfig(component string, opts []Option) runConfig {
	cfg := runConfig{
		logger: log.GetLoggerWithName(component),
		runID:  uuid.New(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = cfg.logger.With(log.RunIDKey, cfg.runID.String())
	return cfg
}

// FileStem returns a short, file-name safe prefix for outputs of a run.
func FileStem(kind string, id uuid.UUID) string {
	return kind + "-" + id.String()[:8]
}

func logisticFactory(c float64, penalty string, maxIter int) func() model.Classifier {
	return func() model.Classifier {
		return linear_model.NewLogisticRegression(
			linear_model.WithLRC(c),
			linear_model.WithLRPenalty(penalty),
			linear_model.WithLRMaxIter(maxIter),
		)
	}
}

func scalerFactory() model.Transformer {
	return preprocessing.NewStandardScalerDefault()
}
