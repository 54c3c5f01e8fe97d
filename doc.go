// Package titanicml computes accuracy measures for binary classifiers and
// runs the Titanic survival experiments built on them.
//
// The core is metrics.CalculateAccuracy, which turns observed and predicted
// 0/1 labels into a report of eighteen measures: observed and predicted
// class rates, accuracy, precision, recall, F1, sensitivity, specificity,
// the likelihood ratios, the false and true positive and negative rates,
// and the positive and negative predictive values.
//
// # Installation
//
//	go get github.com/YuminosukeSato/titanic-ml
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/titanic-ml/metrics"
//	)
//
//	func main() {
//	    report, err := metrics.CalculateAccuracy(
//	        []int{0, 0, 1, 0, 1, 0, 1, 0, 1, 0},
//	        []int{0, 0, 1, 0, 1, 0, 1, 0, 0, 1},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, key := range metrics.Keys() {
//	        v, _ := report.Get(key)
//	        fmt.Printf("%s: %.4f\n", key, v)
//	    }
//	}
//
// Inputs of different length return a DimensionError, labels other than 0
// and 1 an InvalidLabelError, and inputs whose metric denominators are zero
// (no observed positives, no observed negatives, no predicted positives) a
// DegenerateInputError naming the undefined metrics. Infinite likelihood
// ratios are returned with an UndefinedMetricWarning.
//
// # Packages
//
//   - metrics: accuracy report, AUC, log loss
//   - datasets: Titanic CSV loader with median imputation
//   - preprocessing: StandardScaler
//   - sklearn/linear_model: regularised LogisticRegression
//   - sklearn/model_selection: KFold, StratifiedKFold, TrainTestSplit, CrossValidate
//   - experiments: regularisation sweep and train/test accuracy study
//   - plot: PNG (gonum/plot) and HTML (go-echarts) charts
//   - core/model: shared interfaces and fitted-state tracking
//   - pkg/errors, pkg/log: error types and structured logging
//
// # Examples
//
//	go run ./examples/accuracy_measures -data train.csv -plot plots
//	go run ./examples/regularization -data train.csv -folds 5 -out plots
//
// # License
//
// titanic-ml is released under the MIT License.
package titanicml
