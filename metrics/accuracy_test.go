package metrics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// captureWarnings は errors.Warn に送られた警告をテスト中だけ記録する
func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })
	return &warnings
}

func TestCalculateAccuracy_TypicalCase(t *testing.T) {
	observed := []int{0, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	predicted := []int{0, 0, 1, 0, 1, 0, 1, 0, 0, 1}

	r, err := CalculateAccuracy(observed, predicted)
	require.NoError(t, err)

	assert.Equal(t, ConfusionCounts{TruePositives: 3, FalsePositives: 1, TrueNegatives: 5, FalseNegatives: 1}, r.Counts)

	tests := []struct {
		key  string
		want float64
	}{
		{KeyObservedPositiveRate, 0.4},
		{KeyObservedNegativeRate, 0.6},
		{KeyPredictedPositiveRate, 0.4},
		{KeyPredictedNegativeRate, 0.6},
		{KeyAccuracy, 0.8},
		{KeyPrecision, 0.75},
		{KeyRecall, 0.75},
		{KeyF1, 0.75},
		{KeySensitivity, 0.75},
		{KeySpecificity, 5.0 / 6.0},
		{KeyPositiveLikelihood, 4.5},
		{KeyNegativeLikelihood, 0.3},
		{KeyFalsePositiveRate, 1.0 / 6.0},
		{KeyFalseNegativeRate, 0.25},
		{KeyTruePositiveRate, 0.75},
		{KeyTrueNegativeRate, 5.0 / 6.0},
		{KeyPositivePredictiveValue, 0.75},
		{KeyNegativePredictiveValue, 5.0 / 6.0},
	}

	m := r.Map()
	require.Len(t, m, 18)
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := r.Get(tt.key)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, m[tt.key], got)
		})
	}
}

func TestCalculateAccuracy_PerfectClassifier(t *testing.T) {
	warnings := captureWarnings(t)
	labels := []int{1, 1, 0, 0}

	r, err := CalculateAccuracy(labels, labels)
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.Accuracy)
	assert.Equal(t, 1.0, r.Precision)
	assert.Equal(t, 1.0, r.Recall)
	assert.Equal(t, 1.0, r.F1)
	assert.Equal(t, 1.0, r.Specificity)
	assert.Equal(t, 0.0, r.FalsePositiveRate)
	assert.Equal(t, 0.0, r.FalseNegativeRate)
	assert.Equal(t, 0.0, r.NegativeLikelihood)

	// 特異度が1なので陽性尤度比は +Inf になり、警告が出る
	assert.True(t, math.IsInf(r.PositiveLikelihood, 1))
	require.Len(t, *warnings, 1)
	var w *errors.UndefinedMetricWarning
	require.True(t, errors.As((*warnings)[0], &w))
	assert.Equal(t, KeyPositiveLikelihood, w.Metric)
}

func TestCalculateAccuracy_Errors(t *testing.T) {
	tests := []struct {
		name      string
		observed  []int
		predicted []int
		check     func(t *testing.T, err error)
	}{
		{
			name:      "shape mismatch",
			observed:  []int{0, 1, 1},
			predicted: []int{0, 1},
			check: func(t *testing.T, err error) {
				var dimErr *errors.DimensionError
				require.True(t, errors.As(err, &dimErr))
				assert.Equal(t, 3, dimErr.Expected)
				assert.Equal(t, 2, dimErr.Got)
			},
		},
		{
			name:      "empty input",
			observed:  []int{},
			predicted: []int{},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrEmptyData))
			},
		},
		{
			name:      "invalid observed label",
			observed:  []int{0, 2, 1},
			predicted: []int{0, 1, 1},
			check: func(t *testing.T, err error) {
				var labelErr *errors.InvalidLabelError
				require.True(t, errors.As(err, &labelErr))
				assert.Equal(t, 1, labelErr.Index)
				assert.Equal(t, 2.0, labelErr.Value)
				assert.Contains(t, err.Error(), "observed labels")
			},
		},
		{
			name:      "invalid predicted label",
			observed:  []int{0, 1, 1},
			predicted: []int{0, 1, -1},
			check: func(t *testing.T, err error) {
				var labelErr *errors.InvalidLabelError
				require.True(t, errors.As(err, &labelErr))
				assert.Equal(t, 2, labelErr.Index)
				assert.Contains(t, err.Error(), "predicted labels")
			},
		},
		{
			name:      "all observed negative",
			observed:  []int{0, 0, 0, 0},
			predicted: []int{0, 1, 0, 1},
			check: func(t *testing.T, err error) {
				var degErr *errors.DegenerateInputError
				require.True(t, errors.As(err, &degErr))
				for _, k := range []string{KeyRecall, KeySensitivity, KeyTruePositiveRate, KeyPositiveLikelihood, KeyNegativeLikelihood} {
					assert.True(t, degErr.HasMetric(k), "expected %s to be undefined", k)
				}
				assert.False(t, degErr.HasMetric(KeySpecificity))
			},
		},
		{
			name:      "all observed positive, none predicted positive",
			observed:  []int{1, 1, 1},
			predicted: []int{0, 0, 0},
			check: func(t *testing.T, err error) {
				var degErr *errors.DegenerateInputError
				require.True(t, errors.As(err, &degErr))
				assert.True(t, degErr.HasMetric(KeyPrecision))
				assert.True(t, degErr.HasMetric(KeySpecificity))
				assert.False(t, degErr.HasMetric(KeyRecall))
				assert.Contains(t, degErr.Conditions, "no predicted positives")
				assert.Contains(t, degErr.Conditions, "no observed negatives")
			},
		},
		{
			name:      "nothing predicted negative",
			observed:  []int{0, 1, 1},
			predicted: []int{1, 1, 1},
			check: func(t *testing.T, err error) {
				var degErr *errors.DegenerateInputError
				require.True(t, errors.As(err, &degErr))
				assert.Equal(t, []string{KeyNegativePredictiveValue}, degErr.Metrics)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := CalculateAccuracy(tt.observed, tt.predicted)
			require.Error(t, err)
			assert.Nil(t, r)
			tt.check(t, err)
		})
	}
}

func TestCalculateAccuracy_LegacyPredictiveValues(t *testing.T) {
	observed := []int{0, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	predicted := []int{0, 0, 1, 1, 1, 1, 1, 0, 0, 1}

	textbook, err := CalculateAccuracy(observed, predicted)
	require.NoError(t, err)
	legacy, err := CalculateAccuracy(observed, predicted, WithPredictiveValues(PredictiveValuesLegacy))
	require.NoError(t, err)

	assert.Equal(t, PredictiveValuesTextbook, textbook.PredictiveValues)
	assert.Equal(t, PredictiveValuesLegacy, legacy.PredictiveValues)

	// textbook: PPV = TP/(TP+FP) = 3/6, NPV = TN/(TN+FN) = 3/4
	assert.InDelta(t, 0.5, textbook.PositivePredictiveValue, 1e-12)
	assert.InDelta(t, 0.75, textbook.NegativePredictiveValue, 1e-12)

	// legacy: PPV は再現率、NPV は特異度と等しい
	assert.Equal(t, legacy.Recall, legacy.PositivePredictiveValue)
	assert.Equal(t, legacy.Specificity, legacy.NegativePredictiveValue)

	// 他の指標は計算式に依存しない
	assert.Equal(t, textbook.Accuracy, legacy.Accuracy)
	assert.Equal(t, textbook.F1, legacy.F1)
}

func TestCalculateAccuracy_LegacyAllowsNoPredictedNegatives(t *testing.T) {
	r, err := CalculateAccuracy([]int{0, 1, 1}, []int{1, 1, 1}, WithPredictiveValues(PredictiveValuesLegacy))
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.NegativePredictiveValue)
}

func TestCalculateAccuracy_ZeroF1Warns(t *testing.T) {
	warnings := captureWarnings(t)

	// TP = 0 だが予測陽性と観測陽性はどちらも存在する
	r, err := CalculateAccuracy([]int{1, 0, 0}, []int{0, 1, 0})
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Precision)
	assert.Equal(t, 0.0, r.Recall)
	assert.Equal(t, 0.0, r.F1)
	require.NotEmpty(t, *warnings)
	var w *errors.UndefinedMetricWarning
	require.True(t, errors.As((*warnings)[0], &w))
	assert.Equal(t, KeyF1, w.Metric)
}

func TestCalculateAccuracy_LabelTypes(t *testing.T) {
	want, err := CalculateAccuracy([]int{1, 0, 1, 0}, []int{1, 0, 0, 0})
	require.NoError(t, err)

	got8, err := CalculateAccuracy([]uint8{1, 0, 1, 0}, []uint8{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, want, got8)

	gotF, err := CalculateAccuracy([]float64{1, 0, 1, 0}, []float64{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, want, gotF)

	gotVec, err := CalculateAccuracyVec(
		mat.NewVecDense(4, []float64{1, 0, 1, 0}),
		mat.NewVecDense(4, []float64{1, 0, 0, 0}),
	)
	require.NoError(t, err)
	assert.Equal(t, want, gotVec)

	gotMat, err := CalculateAccuracyMatrix(
		mat.NewDense(4, 1, []float64{1, 0, 1, 0}),
		mat.NewDense(4, 1, []float64{1, 0, 0, 0}),
	)
	require.NoError(t, err)
	assert.Equal(t, want, gotMat)

	_, err = CalculateAccuracy([]float64{1, 0.5}, []float64{1, 0})
	var labelErr *errors.InvalidLabelError
	assert.True(t, errors.As(err, &labelErr))

	_, err = CalculateAccuracyVec(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

// ランダムな入力で指標間の恒等式を確認する
func TestCalculateAccuracy_Properties(t *testing.T) {
	errors.SetZerologWarnFunc(func(error) {})
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })

	rng := rand.New(rand.NewPCG(42, 7))
	const tol = 1e-12
	checked := 0

	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.IntN(40)
		observed := make([]int, n)
		predicted := make([]int, n)
		for i := 0; i < n; i++ {
			observed[i] = rng.IntN(2)
			predicted[i] = rng.IntN(2)
		}

		r, err := CalculateAccuracy(observed, predicted)
		if err != nil {
			var degErr *errors.DegenerateInputError
			require.True(t, errors.As(err, &degErr), "unexpected error type: %v", err)
			continue
		}
		checked++

		c := r.Counts
		require.Equal(t, n, c.Total())
		assert.Equal(t, float64(c.TruePositives+c.TrueNegatives)/float64(n), r.Accuracy)
		assert.GreaterOrEqual(t, r.Accuracy, 0.0)
		assert.LessOrEqual(t, r.Accuracy, 1.0)

		assert.InDelta(t, 1.0, r.ObservedPositiveRate+r.ObservedNegativeRate, tol)
		assert.InDelta(t, 1.0, r.PredictedPositiveRate+r.PredictedNegativeRate, tol)

		assert.Equal(t, r.Recall, r.Sensitivity)
		assert.Equal(t, r.Recall, r.TruePositiveRate)
		assert.Equal(t, r.Specificity, r.TrueNegativeRate)
		assert.InDelta(t, 1.0, r.FalsePositiveRate+r.Specificity, tol)
		assert.InDelta(t, 1.0, r.FalseNegativeRate+r.Sensitivity, tol)
		assert.Equal(t, r.Precision, r.PositivePredictiveValue)

		if r.Precision > 0 && r.Recall > 0 {
			lo := math.Min(r.Precision, r.Recall)
			hi := math.Max(r.Precision, r.Recall)
			assert.GreaterOrEqual(t, r.F1, lo-tol)
			assert.LessOrEqual(t, r.F1, hi+tol)
		}

		again, err := CalculateAccuracy(observed, predicted)
		require.NoError(t, err)
		for k, v := range r.Map() {
			assert.Equal(t, math.Float64bits(v), math.Float64bits(again.Map()[k]), "%s not bit-identical", k)
		}
	}

	assert.Greater(t, checked, 100)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	require.Len(t, keys, 18)
	assert.Equal(t, KeyObservedPositiveRate, keys[0])
	assert.Equal(t, KeyNegativePredictiveValue, keys[17])

	r := &AccuracyReport{}
	m := r.Map()
	for _, k := range keys {
		_, ok := m[k]
		assert.True(t, ok, "Map() missing %s", k)
	}

	// 返されたスライスを書き換えても内部の順序は変わらない
	keys[0] = "mutated"
	assert.Equal(t, KeyObservedPositiveRate, Keys()[0])
}

func TestAverageReports(t *testing.T) {
	a, err := CalculateAccuracy([]int{1, 0, 1, 0}, []int{1, 0, 0, 0})
	require.NoError(t, err)
	b, err := CalculateAccuracy([]int{1, 0, 1, 0}, []int{1, 0, 1, 1})
	require.NoError(t, err)

	avg, err := AverageReports([]*AccuracyReport{a, b})
	require.NoError(t, err)

	assert.InDelta(t, (a.Accuracy+b.Accuracy)/2, avg.Accuracy, 1e-12)
	assert.InDelta(t, (a.Precision+b.Precision)/2, avg.Precision, 1e-12)
	assert.Equal(t, a.Counts.TruePositives+b.Counts.TruePositives, avg.Counts.TruePositives)
	assert.Equal(t, 8, avg.Counts.Total())

	_, err = AverageReports(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func BenchmarkCalculateAccuracy(b *testing.B) {
	n := 1000
	observed := make([]int, n)
	predicted := make([]int, n)
	for i := 0; i < n; i++ {
		observed[i] = i % 2
		predicted[i] = (i / 3) % 2
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CalculateAccuracy(observed, predicted)
	}
}
