package plot

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/titanic-ml/experiments"
	"github.com/YuminosukeSato/titanic-ml/metrics"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSweep() *experiments.SweepResult {
	cfg := experiments.DefaultSweepConfig()
	res := &experiments.SweepResult{
		RunID:        uuid.MustParse("6f1c1a0e-3f3b-4b39-9c55-1a2b3c4d5e6f"),
		Config:       cfg,
		FeatureNames: []string{"pclass", "sex_male", "age"},
	}
	for i, c := range []float64{0.01, 0.1, 1, 10} {
		res.Points = append(res.Points, experiments.SweepPoint{
			C:                 c,
			MeanTrainAccuracy: 0.70 + 0.03*float64(i),
			StdTrainAccuracy:  0.01,
			MeanTestAccuracy:  0.68 + 0.02*float64(i),
			StdTestAccuracy:   0.03,
			MeanCoef:          []float64{-0.1 * float64(i), -0.5 * float64(i), -0.02 * float64(i)},
		})
	}
	res.Best = res.Points[3]
	return res
}

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSaveSweepPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.png")
	require.NoError(t, SaveSweepPNG(sampleSweep(), path))
	assertNonEmptyFile(t, path)

	err := SaveSweepPNG(&experiments.SweepResult{}, path)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestSaveCoefficientPathPNG(t *testing.T) {
	dir := t.TempDir()
	res := sampleSweep()

	path := filepath.Join(dir, "coef.png")
	require.NoError(t, SaveCoefficientPathPNG(res, nil, path))
	assertNonEmptyFile(t, path)

	err := SaveCoefficientPathPNG(res, []string{"only"}, filepath.Join(dir, "bad.png"))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestSaveSweepHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.html")
	require.NoError(t, SaveSweepHTML(sampleSweep(), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "echarts")
	assert.Contains(t, string(content), "Accuracy against C")

	var buf bytes.Buffer
	err = RenderSweepHTML(nil, &buf)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
	assert.Zero(t, buf.Len())
}

func TestSaveReportBarPNG(t *testing.T) {
	report, err := metrics.CalculateAccuracy(
		[]int{0, 0, 1, 0, 1, 0, 1, 0, 1, 0},
		[]int{0, 0, 1, 0, 1, 0, 1, 0, 0, 1},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.png")
	require.NoError(t, SaveReportBarPNG(report, path))
	assertNonEmptyFile(t, path)

	// 無限大の尤度比は描かれない
	report.PositiveLikelihood = math.Inf(1)
	require.NoError(t, SaveReportBarPNG(report, path))

	assert.True(t, errors.Is(SaveReportBarPNG(nil, path), errors.ErrEmptyData))
}

func TestPalette(t *testing.T) {
	colors := palette(5)
	require.Len(t, colors, 5)
	for i := 1; i < len(colors); i++ {
		assert.NotEqual(t, colors[0], colors[i])
	}
	assert.Empty(t, palette(0))
}
