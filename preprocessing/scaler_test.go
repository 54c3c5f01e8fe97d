package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler_FitTransform(t *testing.T) {
	// age, fare, 定数列
	X := mat.NewDense(4, 3, []float64{
		22, 7.25, 1,
		38, 71.28, 1,
		26, 7.92, 1,
		35, 53.1, 1,
	})

	scaler := NewStandardScalerDefault()
	XScaled, err := scaler.FitTransform(X)
	require.NoError(t, err)
	assert.True(t, scaler.IsFitted())

	r, c := XScaled.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 3, c)

	for j := 0; j < 2; j++ {
		col := mat.Col(nil, j, XScaled)
		var sum, sumSq float64
		for _, v := range col {
			sum += v
			sumSq += v * v
		}
		assert.InDelta(t, 0, sum/4, 1e-10, "column %d mean", j)
		assert.InDelta(t, 1, math.Sqrt(sumSq/4), 1e-10, "column %d std", j)
	}

	// 分散0の列は中心化のみ
	assert.Equal(t, 1.0, scaler.Scale[2])
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, XScaled.At(i, 2))
	}

	XBack, err := scaler.InverseTransform(XScaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, XBack, 1e-10))
}

func TestStandardScaler_Options(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 3})

	noMean := NewStandardScaler(false, true)
	out, err := noMean.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, 0.0, noMean.Mean[0])
	assert.InDelta(t, 1.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 3.0, out.At(1, 0), 1e-12)

	noStd := NewStandardScaler(true, false)
	out, err = noStd.FitTransform(X)
	require.NoError(t, err)
	assert.Equal(t, 1.0, noStd.Scale[0])
	assert.InDelta(t, -1.0, out.At(0, 0), 1e-12)

	assert.Equal(t, map[string]interface{}{"with_mean": true, "with_std": false}, noStd.GetParams())
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=false, n_features=1)", noStd.String())
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := NewStandardScalerDefault()
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=true)", scaler.String())

	_, err := scaler.Transform(mat.NewDense(1, 2, nil))
	var nfErr *errors.NotFittedError
	assert.True(t, errors.As(err, &nfErr))

	err = scaler.Fit(&mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	err = scaler.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}))
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(2, 3, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}
