package metrics

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) *mat.VecDense {
	if len(values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(values), values)
}

func TestAUC(t *testing.T) {
	errors.SetZerologWarnFunc(func(error) {})
	t.Cleanup(func() { errors.SetZerologWarnFunc(nil) })

	tests := []struct {
		name    string
		yTrue   []float64
		yScore  []float64
		want    float64
		wantErr bool
	}{
		{"Perfect classifier", []float64{0, 0, 0, 1, 1, 1}, []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}, 1.0, false},
		{"Worst classifier", []float64{0, 0, 0, 1, 1, 1}, []float64{0.9, 0.8, 0.7, 0.3, 0.2, 0.1}, 0.0, false},
		{"All scores tied", []float64{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}, 0.5, false},
		{"Typical case", []float64{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}, 0.75, false},
		{"Single class", []float64{1, 1, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}, 0.5, false},
		{"Non-binary labels", []float64{0, 0.5, 1}, []float64{0.1, 0.5, 0.9}, 0, true},
		{"Dimension mismatch", []float64{0, 1}, []float64{0.5}, 0, true},
		{"Empty vectors", nil, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(vec(tt.yTrue...), vec(tt.yScore...))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestAUCMatrix(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
	yScore := mat.NewDense(4, 2, []float64{0.1, 9, 0.4, 9, 0.35, 9, 0.8, 9})

	got, err := AUCMatrix(yTrue, yScore)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-10)

	_, err = AUCMatrix(nil, yScore)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestBinaryLogLoss(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yProb   []float64
		want    float64
		wantErr bool
	}{
		{"Confident and correct", []float64{0, 1}, []float64{0, 1}, 0, false},
		{"Uniform prediction", []float64{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}, math.Log(2), false},
		{"Mixed", []float64{1, 0}, []float64{0.8, 0.4}, -(math.Log(0.8) + math.Log(0.6)) / 2, false},
		{"Non-binary labels", []float64{0, 2}, []float64{0.1, 0.9}, 0, true},
		{"Dimension mismatch", []float64{0, 1, 1}, []float64{0.5}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BinaryLogLoss(vec(tt.yTrue...), vec(tt.yProb...))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	// 確率0で正解ラベル1でもクリップにより有限値になる
	got, err := BinaryLogLoss(vec(1), mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.False(t, math.IsInf(got, 0))
	assert.Greater(t, got, 30.0)
}

func TestAccuracyAndClassificationError(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  float64
	}{
		{"All correct", []float64{0, 1, 1, 0}, []float64{0, 1, 1, 0}, 1},
		{"Half correct", []float64{0, 1, 1, 0}, []float64{1, 1, 0, 0}, 0.5},
		{"Multi-class", []float64{0, 1, 2, 2}, []float64{0, 2, 2, 2}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := Accuracy(vec(tt.yTrue...), vec(tt.yPred...))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, acc, 1e-12)

			ce, err := ClassificationError(vec(tt.yTrue...), vec(tt.yPred...))
			require.NoError(t, err)
			assert.InDelta(t, 1-tt.want, ce, 1e-12)
		})
	}

	_, err := Accuracy(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = ClassificationError(vec(0, 1), vec(1))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	acc, err := AccuracyMatrix(mat.NewDense(2, 1, []float64{1, 0}), mat.NewDense(2, 1, []float64{1, 1}))
	require.NoError(t, err)
	assert.Equal(t, 0.5, acc)
}

// 正解率は CalculateAccuracy のレポートと一致する
func TestAccuracyMatchesReport(t *testing.T) {
	observed := []float64{0, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	predicted := []float64{0, 0, 1, 0, 1, 0, 1, 0, 0, 1}

	acc, err := Accuracy(vec(observed...), vec(predicted...))
	require.NoError(t, err)
	r, err := CalculateAccuracy(observed, predicted)
	require.NoError(t, err)
	assert.Equal(t, r.Accuracy, acc)
}

func BenchmarkAUC(b *testing.B) {
	n := 1000
	yTrue := mat.NewVecDense(n, nil)
	yScore := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i%2))
		yScore.SetVec(i, float64((i*7919)%n)/float64(n))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AUC(yTrue, yScore)
	}
}
