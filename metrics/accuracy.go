package metrics

import (
	"math"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// AccuracyReport のキー名。Keys() はこの順序で返す。
const (
	KeyObservedPositiveRate    = "observed_positive_rate"
	KeyObservedNegativeRate    = "observed_negative_rate"
	KeyPredictedPositiveRate   = "predicted_positive_rate"
	KeyPredictedNegativeRate   = "predicted_negative_rate"
	KeyAccuracy                = "accuracy"
	KeyPrecision               = "precision"
	KeyRecall                  = "recall"
	KeyF1                      = "f1"
	KeySensitivity             = "sensitivity"
	KeySpecificity             = "specificity"
	KeyPositiveLikelihood      = "positive_likelihood"
	KeyNegativeLikelihood      = "negative_likelihood"
	KeyFalsePositiveRate       = "false_positive_rate"
	KeyFalseNegativeRate       = "false_negative_rate"
	KeyTruePositiveRate        = "true_positive_rate"
	KeyTrueNegativeRate        = "true_negative_rate"
	KeyPositivePredictiveValue = "positive_predictive_value"
	KeyNegativePredictiveValue = "negative_predictive_value"
)

var reportKeys = []string{
	KeyObservedPositiveRate,
	KeyObservedNegativeRate,
	KeyPredictedPositiveRate,
	KeyPredictedNegativeRate,
	KeyAccuracy,
	KeyPrecision,
	KeyRecall,
	KeyF1,
	KeySensitivity,
	KeySpecificity,
	KeyPositiveLikelihood,
	KeyNegativeLikelihood,
	KeyFalsePositiveRate,
	KeyFalseNegativeRate,
	KeyTruePositiveRate,
	KeyTrueNegativeRate,
	KeyPositivePredictiveValue,
	KeyNegativePredictiveValue,
}

// Keys は AccuracyReport の18個の指標名を固定順で返す
func Keys() []string {
	keys := make([]string, len(reportKeys))
	copy(keys, reportKeys)
	return keys
}

// Label は CalculateAccuracy が受け付けるラベルの型
type Label interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// PredictiveValueFormula は陽性・陰性的中率の計算式を選ぶ
type PredictiveValueFormula int

const (
	// PredictiveValuesTextbook は PPV = TP/(TP+FP), NPV = TN/(TN+FN) を使う
	PredictiveValuesTextbook PredictiveValueFormula = iota

	// PredictiveValuesLegacy は旧ノートブックの式 PPV = TP/P, NPV = TN/N を使う。
	// PPVは再現率、NPVは特異度と同じ値になる。過去の結果との比較用。
	PredictiveValuesLegacy
)

// String は計算式の名前を返す
func (f PredictiveValueFormula) String() string {
	switch f {
	case PredictiveValuesTextbook:
		return "textbook"
	case PredictiveValuesLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

type accuracyConfig struct {
	predictiveValues PredictiveValueFormula
}

// AccuracyOption は CalculateAccuracy の関数オプション
type AccuracyOption func(*accuracyConfig)

// WithPredictiveValues は陽性・陰性的中率の計算式を指定する
func WithPredictiveValues(f PredictiveValueFormula) AccuracyOption {
	return func(c *accuracyConfig) {
		c.predictiveValues = f
	}
}

// ConfusionCounts は二値分類の混同行列
type ConfusionCounts struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Total はケース数を返す
func (c ConfusionCounts) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

// ObservedPositives は観測ラベルが1のケース数を返す
func (c ConfusionCounts) ObservedPositives() int {
	return c.TruePositives + c.FalseNegatives
}

// ObservedNegatives は観測ラベルが0のケース数を返す
func (c ConfusionCounts) ObservedNegatives() int {
	return c.TrueNegatives + c.FalsePositives
}

// PredictedPositives は予測ラベルが1のケース数を返す
func (c ConfusionCounts) PredictedPositives() int {
	return c.TruePositives + c.FalsePositives
}

// PredictedNegatives は予測ラベルが0のケース数を返す
func (c ConfusionCounts) PredictedNegatives() int {
	return c.TrueNegatives + c.FalseNegatives
}

// AccuracyReport は二値分類の評価指標一式
type AccuracyReport struct {
	Counts           ConfusionCounts
	PredictiveValues PredictiveValueFormula

	ObservedPositiveRate  float64
	ObservedNegativeRate  float64
	PredictedPositiveRate float64
	PredictedNegativeRate float64

	Accuracy    float64
	Precision   float64
	Recall      float64
	F1          float64
	Sensitivity float64
	Specificity float64

	// 分母が0のとき +Inf または NaN になりうる
	PositiveLikelihood float64
	NegativeLikelihood float64

	FalsePositiveRate       float64
	FalseNegativeRate       float64
	TruePositiveRate        float64
	TrueNegativeRate        float64
	PositivePredictiveValue float64
	NegativePredictiveValue float64
}

// Map は指標名から値へのマップを返す
func (r *AccuracyReport) Map() map[string]float64 {
	return map[string]float64{
		KeyObservedPositiveRate:    r.ObservedPositiveRate,
		KeyObservedNegativeRate:    r.ObservedNegativeRate,
		KeyPredictedPositiveRate:   r.PredictedPositiveRate,
		KeyPredictedNegativeRate:   r.PredictedNegativeRate,
		KeyAccuracy:                r.Accuracy,
		KeyPrecision:               r.Precision,
		KeyRecall:                  r.Recall,
		KeyF1:                      r.F1,
		KeySensitivity:             r.Sensitivity,
		KeySpecificity:             r.Specificity,
		KeyPositiveLikelihood:      r.PositiveLikelihood,
		KeyNegativeLikelihood:      r.NegativeLikelihood,
		KeyFalsePositiveRate:       r.FalsePositiveRate,
		KeyFalseNegativeRate:       r.FalseNegativeRate,
		KeyTruePositiveRate:        r.TruePositiveRate,
		KeyTrueNegativeRate:        r.TrueNegativeRate,
		KeyPositivePredictiveValue: r.PositivePredictiveValue,
		KeyNegativePredictiveValue: r.NegativePredictiveValue,
	}
}

// Get は指標名に対応する値を返す
func (r *AccuracyReport) Get(key string) (float64, bool) {
	v, ok := r.Map()[key]
	return v, ok
}

// CalculateAccuracy は観測ラベルと予測ラベルから二値分類の評価指標を計算する。
//
// 入力は同じ長さで、各要素は0か1でなければならない。
// 長さが異なる場合は DimensionError、0/1以外の値は InvalidLabelError、
// 観測陽性・観測陰性・予測陽性のいずれかが0件の場合は DegenerateInputError を返す。
//
// 使用例:
//
//	report, err := metrics.CalculateAccuracy(
//	    []int{0, 0, 1, 0, 1, 0, 1, 0, 1, 0},
//	    []int{0, 0, 1, 0, 1, 0, 1, 0, 0, 1},
//	)
//	// report.Accuracy == 0.8, report.PositiveLikelihood == 4.5
func CalculateAccuracy[T Label](observed, predicted []T, opts ...AccuracyOption) (*AccuracyReport, error) {
	obs := make([]float64, len(observed))
	for i, v := range observed {
		obs[i] = float64(v)
	}
	pred := make([]float64, len(predicted))
	for i, v := range predicted {
		pred[i] = float64(v)
	}
	return calculateAccuracy(obs, pred, opts)
}

// CalculateAccuracyVec は gonum のベクトルに対して CalculateAccuracy を実行する
func CalculateAccuracyVec(observed, predicted *mat.VecDense, opts ...AccuracyOption) (*AccuracyReport, error) {
	return calculateAccuracy(vecToSlice(observed), vecToSlice(predicted), opts)
}

// CalculateAccuracyMatrix は n×1 の行列（Predict の戻り値など）に対して CalculateAccuracy を実行する
func CalculateAccuracyMatrix(observed, predicted mat.Matrix, opts ...AccuracyOption) (*AccuracyReport, error) {
	obs, err := columnToVec("CalculateAccuracyMatrix", observed)
	if err != nil {
		return nil, err
	}
	pred, err := columnToVec("CalculateAccuracyMatrix", predicted)
	if err != nil {
		return nil, err
	}
	return CalculateAccuracyVec(obs, pred, opts...)
}

func calculateAccuracy(observed, predicted []float64, opts []AccuracyOption) (*AccuracyReport, error) {
	const op = "CalculateAccuracy"

	cfg := accuracyConfig{predictiveValues: PredictiveValuesTextbook}
	for _, opt := range opts {
		opt(&cfg)
	}

	// 入力検証
	if len(observed) != len(predicted) {
		return nil, errors.NewDimensionError(op, len(observed), len(predicted), 0)
	}
	if len(observed) == 0 {
		return nil, errors.NewEmptyDataError(op)
	}
	if err := validateBinaryLabels(op, observed); err != nil {
		return nil, errors.Wrap(err, "observed labels")
	}
	if err := validateBinaryLabels(op, predicted); err != nil {
		return nil, errors.Wrap(err, "predicted labels")
	}

	var c ConfusionCounts
	for i := range observed {
		switch {
		case predicted[i] == 1 && observed[i] == 1:
			c.TruePositives++
		case predicted[i] == 1 && observed[i] == 0:
			c.FalsePositives++
		case predicted[i] == 0 && observed[i] == 0:
			c.TrueNegatives++
		default:
			c.FalseNegatives++
		}
	}

	if err := checkDegenerate(op, c, cfg.predictiveValues); err != nil {
		return nil, err
	}

	n := float64(c.Total())
	pos := float64(c.ObservedPositives())
	neg := float64(c.ObservedNegatives())
	tp := float64(c.TruePositives)
	tn := float64(c.TrueNegatives)

	r := &AccuracyReport{Counts: c, PredictiveValues: cfg.predictiveValues}

	r.ObservedPositiveRate = pos / n
	r.ObservedNegativeRate = neg / n
	r.PredictedPositiveRate = float64(c.PredictedPositives()) / n
	r.PredictedNegativeRate = float64(c.PredictedNegatives()) / n
	r.Accuracy = (tp + tn) / n

	r.Precision = tp / float64(c.PredictedPositives())
	r.Sensitivity = tp / pos
	r.Recall = r.Sensitivity
	r.TruePositiveRate = r.Sensitivity
	r.Specificity = tn / neg
	r.TrueNegativeRate = r.Specificity
	r.FalsePositiveRate = 1 - r.Specificity
	r.FalseNegativeRate = 1 - r.Sensitivity

	if r.Precision+r.Recall == 0 {
		r.F1 = 0
		errors.Warn(errors.NewUndefinedMetricWarning(KeyF1, "precision and recall are both zero", r.F1))
	} else {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}

	r.PositiveLikelihood = likelihoodRatio(KeyPositiveLikelihood, r.Sensitivity, 1-r.Specificity, "specificity is 1")
	r.NegativeLikelihood = likelihoodRatio(KeyNegativeLikelihood, 1-r.Sensitivity, r.Specificity, "specificity is 0")

	switch cfg.predictiveValues {
	case PredictiveValuesLegacy:
		r.PositivePredictiveValue = tp / pos
		r.NegativePredictiveValue = tn / neg
	default:
		r.PositivePredictiveValue = r.Precision
		r.NegativePredictiveValue = tn / float64(c.PredictedNegatives())
	}

	return r, nil
}

// checkDegenerate は分母が0になる指標を集めて DegenerateInputError にまとめる
func checkDegenerate(op string, c ConfusionCounts, pv PredictiveValueFormula) error {
	var conditions, undefined []string
	seen := make(map[string]bool)
	add := func(condition string, names ...string) {
		conditions = append(conditions, condition)
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				undefined = append(undefined, name)
			}
		}
	}

	if c.ObservedPositives() == 0 {
		names := []string{KeyRecall, KeySensitivity, KeyTruePositiveRate, KeyFalseNegativeRate,
			KeyF1, KeyPositiveLikelihood, KeyNegativeLikelihood}
		if pv == PredictiveValuesLegacy {
			names = append(names, KeyPositivePredictiveValue)
		}
		add("no observed positives", names...)
	}
	if c.ObservedNegatives() == 0 {
		names := []string{KeySpecificity, KeyTrueNegativeRate, KeyFalsePositiveRate,
			KeyPositiveLikelihood, KeyNegativeLikelihood}
		if pv == PredictiveValuesLegacy {
			names = append(names, KeyNegativePredictiveValue)
		}
		add("no observed negatives", names...)
	}
	if c.PredictedPositives() == 0 {
		names := []string{KeyPrecision, KeyF1}
		if pv == PredictiveValuesTextbook {
			names = append(names, KeyPositivePredictiveValue)
		}
		add("no predicted positives", names...)
	}
	if pv == PredictiveValuesTextbook && c.PredictedNegatives() == 0 {
		add("no predicted negatives", KeyNegativePredictiveValue)
	}

	if len(conditions) == 0 {
		return nil
	}
	return errors.NewDegenerateInputError(op, undefined, conditions)
}

// likelihoodRatio は num/den を返す。den が0のときは IEEE 754 に従い +Inf か NaN を返して警告する
func likelihoodRatio(name string, num, den float64, condition string) float64 {
	if den != 0 {
		return num / den
	}
	result := math.NaN()
	if num > 0 {
		result = math.Inf(1)
	}
	errors.Warn(errors.NewUndefinedMetricWarning(name, condition, result))
	return result
}

// AverageReports は複数の AccuracyReport の指標を平均する。
// 混同行列は合計され、交差検証の各foldを1つのレポートにまとめるのに使う。
func AverageReports(reports []*AccuracyReport) (*AccuracyReport, error) {
	if len(reports) == 0 {
		return nil, errors.NewEmptyDataError("AverageReports")
	}

	avg := &AccuracyReport{PredictiveValues: reports[0].PredictiveValues}
	sums := make(map[string]float64, len(reportKeys))
	for _, r := range reports {
		if r == nil {
			return nil, errors.NewValueError("AverageReports", "nil report")
		}
		avg.Counts.TruePositives += r.Counts.TruePositives
		avg.Counts.FalsePositives += r.Counts.FalsePositives
		avg.Counts.TrueNegatives += r.Counts.TrueNegatives
		avg.Counts.FalseNegatives += r.Counts.FalseNegatives
		for k, v := range r.Map() {
			sums[k] += v
		}
	}

	n := float64(len(reports))
	mean := func(key string) float64 { return sums[key] / n }

	avg.ObservedPositiveRate = mean(KeyObservedPositiveRate)
	avg.ObservedNegativeRate = mean(KeyObservedNegativeRate)
	avg.PredictedPositiveRate = mean(KeyPredictedPositiveRate)
	avg.PredictedNegativeRate = mean(KeyPredictedNegativeRate)
	avg.Accuracy = mean(KeyAccuracy)
	avg.Precision = mean(KeyPrecision)
	avg.Recall = mean(KeyRecall)
	avg.F1 = mean(KeyF1)
	avg.Sensitivity = mean(KeySensitivity)
	avg.Specificity = mean(KeySpecificity)
	avg.PositiveLikelihood = mean(KeyPositiveLikelihood)
	avg.NegativeLikelihood = mean(KeyNegativeLikelihood)
	avg.FalsePositiveRate = mean(KeyFalsePositiveRate)
	avg.FalseNegativeRate = mean(KeyFalseNegativeRate)
	avg.TruePositiveRate = mean(KeyTruePositiveRate)
	avg.TrueNegativeRate = mean(KeyTrueNegativeRate)
	avg.PositivePredictiveValue = mean(KeyPositivePredictiveValue)
	avg.NegativePredictiveValue = mean(KeyNegativePredictiveValue)

	return avg, nil
}
