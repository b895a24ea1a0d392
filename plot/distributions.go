package plot

import (
	"math"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/scigo-housing/dataset"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
	"github.com/YuminosukeSato/scigo-housing/report"
)

// DistributionsFile は出力ディレクトリ内のヒストグラム画像ファイル名
const DistributionsFile = "feature_distributions.png"

// HistogramBins is the number of bins of every histogram.
const HistogramBins = 20

// distributionCols は 1 行あたりのヒストグラム数
const distributionCols = 2

// FeatureDistributions draws one histogram per column of table, two per
// row in column order, and writes a PNG to path. Each row of histograms
// is opts.Height/2 inches tall. NaN values are left out of the counts.
func FeatureDistributions(table *dataset.Table, opts ChartOptions, path string) error {
	if table == nil || table.Rows() == 0 || len(table.Columns) == 0 {
		return errors.NewDataError("FeatureDistributions", "table is empty")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	n := len(table.Columns)
	rows := (n + distributionCols - 1) / distributionCols
	plots := make([][]*gplot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*gplot.Plot, distributionCols)
	}
	for j, name := range table.Columns {
		p, err := histogramPlot(name, observed(table, j), opts)
		if err != nil {
			return err
		}
		plots[j/distributionCols][j%distributionCols] = p
	}

	c := newCanvas(opts.Width, opts.Height/2*float64(rows), opts.DPI)
	pad := vg.Points(opts.FontSize / 2)
	tiles := draw.Tiles{
		Rows: rows, Cols: distributionCols,
		PadX: pad, PadY: pad,
		PadTop: pad, PadBottom: pad, PadLeft: pad, PadRight: pad,
	}
	canvases := gplot.Align(plots, tiles, draw.New(c))
	for i, row := range plots {
		for j, p := range row {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}
	if err := writePNG(c, path); err != nil {
		return err
	}

	log.GetLoggerWithName("plot").Debug("Distributions rendered",
		log.FeaturesKey, n,
		log.SamplesKey, table.Rows(),
	)
	report.LogArtifact(path)
	return nil
}

func observed(table *dataset.Table, j int) plotter.Values {
	r := table.Rows()
	values := make(plotter.Values, 0, r)
	for i := 0; i < r; i++ {
		if v := table.Data.At(i, j); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return values
}

func histogramPlot(name string, values plotter.Values, opts ChartOptions) (*gplot.Plot, error) {
	if len(values) == 0 {
		return nil, errors.NewValueError("FeatureDistributions", "column "+name+" has no observed values")
	}
	for _, v := range values {
		if math.IsInf(v, 0) {
			return nil, errors.NewValueError("FeatureDistributions", "column "+name+" contains an infinite value")
		}
	}

	h, err := plotter.NewHist(values, HistogramBins)
	if err != nil {
		return nil, errors.Wrapf(err, "histogram of %s", name)
	}
	h.LineStyle.Width = vg.Points(0.5)

	p := gplot.New()
	p.Title.Text = "Distribution of " + name
	p.Title.TextStyle.Font.Size = vg.Points(opts.FontSize - 2)
	p.X.Label.Text = name
	p.Y.Label.Text = "Count"
	p.Add(h)
	return p, nil
}
