package plot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/titanic-ml/experiments"
	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// SaveSweepHTML writes an interactive line chart of the sweep to path.
func SaveSweepHTML(result *experiments.SweepResult, path string) error {
	var buf bytes.Buffer
	if err := RenderSweepHTML(result, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// RenderSweepHTML renders the sweep chart page to w.
func RenderSweepHTML(result *experiments.SweepResult, w io.Writer) error {
	if result == nil || len(result.Points) == 0 {
		return errors.NewEmptyDataError("RenderSweepHTML")
	}

	xs := make([]string, len(result.Points))
	train := make([]opts.LineData, len(result.Points))
	test := make([]opts.LineData, len(result.Points))
	for i, pt := range result.Points {
		xs[i] = strconv.FormatFloat(pt.C, 'g', 3, 64)
		train[i] = opts.LineData{Value: pt.MeanTrainAccuracy}
		test[i] = opts.LineData{Value: pt.MeanTestAccuracy}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Regularisation sweep", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Accuracy against C",
			Subtitle: fmt.Sprintf("run=%s folds=%d penalty=%s best C=%g", result.RunID, result.Config.Folds, result.Config.Penalty, result.Best.C),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "C", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Accuracy", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(xs).
		AddSeries("train", train).
		AddSeries("test", test).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	if err := line.Render(w); err != nil {
		return errors.Wrap(err, "render sweep chart")
	}
	return nil
}
