// Package plot renders regularisation sweeps and accuracy reports as PNG
// charts (gonum/plot) and interactive HTML pages (go-echarts).
package plot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/YuminosukeSato/titanic-ml/experiments"
	"github.com/YuminosukeSato/titanic-ml/metrics"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	pngWidth  = 14 * vg.Inch
	pngHeight = 6 * vg.Inch
)

var (
	trainColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	testColor  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// errPoints pairs sweep means with their fold standard deviations.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

// SaveSweepPNG draws mean train and test accuracy against log10(C), with one
// standard deviation error bars, and writes the chart to path.
func SaveSweepPNG(result *experiments.SweepResult, path string) error {
	if result == nil || len(result.Points) == 0 {
		return errors.NewEmptyDataError("SaveSweepPNG")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Regularisation sweep (%d folds, %s)", result.Config.Folds, result.Config.Penalty)
	p.X.Label.Text = "log10(C)"
	p.Y.Label.Text = "Accuracy"
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	train := errPoints{XYs: make(plotter.XYs, len(result.Points)), YErrors: make(plotter.YErrors, len(result.Points))}
	test := errPoints{XYs: make(plotter.XYs, len(result.Points)), YErrors: make(plotter.YErrors, len(result.Points))}
	for i, pt := range result.Points {
		x := math.Log10(pt.C)
		train.XYs[i] = plotter.XY{X: x, Y: pt.MeanTrainAccuracy}
		train.YErrors[i].Low, train.YErrors[i].High = pt.StdTrainAccuracy, pt.StdTrainAccuracy
		test.XYs[i] = plotter.XY{X: x, Y: pt.MeanTestAccuracy}
		test.YErrors[i].Low, test.YErrors[i].High = pt.StdTestAccuracy, pt.StdTestAccuracy
	}

	if err := addErrLine(p, "train", train, trainColor); err != nil {
		return err
	}
	if err := addErrLine(p, "test", test, testColor); err != nil {
		return err
	}

	if err := p.Save(pngWidth, pngHeight, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

func addErrLine(p *plot.Plot, name string, pts errPoints, c color.Color) error {
	line, points, err := plotter.NewLinePoints(pts.XYs)
	if err != nil {
		return errors.Wrapf(err, "%s line", name)
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	points.Color = c

	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return errors.Wrapf(err, "%s error bars", name)
	}
	bars.Color = c

	p.Add(line, points, bars)
	p.Legend.Add(name, line, points)
	return nil
}

// SaveCoefficientPathPNG draws the fold averaged coefficient of every feature
// against log10(C). names labels the lines; nil uses result.FeatureNames.
func SaveCoefficientPathPNG(result *experiments.SweepResult, names []string, path string) error {
	if result == nil || len(result.Points) == 0 {
		return errors.NewEmptyDataError("SaveCoefficientPathPNG")
	}
	if names == nil {
		names = result.FeatureNames
	}
	nCoef := len(result.Points[0].MeanCoef)
	if len(names) != nCoef {
		return errors.NewDimensionError("SaveCoefficientPathPNG", nCoef, len(names), 0)
	}

	p := plot.New()
	p.Title.Text = "Coefficient path"
	p.X.Label.Text = "log10(C)"
	p.Y.Label.Text = "Coefficient"
	p.Legend.Top = true
	p.Legend.Left = true

	colors := palette(nCoef)
	for j, name := range names {
		pts := make(plotter.XYs, len(result.Points))
		for i, pt := range result.Points {
			pts[i] = plotter.XY{X: math.Log10(pt.C), Y: pt.MeanCoef[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "coefficient %s", name)
		}
		line.Color = colors[j]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(pngWidth, pngHeight, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// SaveReportBarPNG draws one bar per metric of report, in metrics.Keys order.
// Infinite and NaN values are left out.
func SaveReportBarPNG(report *metrics.AccuracyReport, path string) error {
	if report == nil {
		return errors.NewEmptyDataError("SaveReportBarPNG")
	}

	var (
		values plotter.Values
		labels []string
	)
	for _, key := range metrics.Keys() {
		v, _ := report.Get(key)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		values = append(values, v)
		labels = append(labels, key)
	}
	if len(values) == 0 {
		return errors.NewValueError("SaveReportBarPNG", "no finite metric to draw")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Accuracy measures (%d samples, %s)", report.Counts.Total(), report.PredictiveValues)
	p.Y.Label.Text = "Value"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return errors.Wrap(err, "bar chart")
	}
	bars.Color = testColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1

	if err := p.Save(pngWidth, 8*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// palette spreads n colours evenly around the hue circle.
func palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h*6, 2)-1))
	m := l - c/2

	var rf, gf, bf float64
	switch {
	case h < 1.0/6:
		rf, gf, bf = c, x, 0
	case h < 2.0/6:
		rf, gf, bf = x, c, 0
	case h < 3.0/6:
		rf, gf, bf = 0, c, x
	case h < 4.0/6:
		rf, gf, bf = 0, x, c
	case h < 5.0/6:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	return uint8((rf + m) * 255), uint8((gf + m) * 255), uint8((bf + m) * 255)
}
