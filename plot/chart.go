// Package plot renders evaluation results as images using gonum/plot.
package plot

import (
	"math"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
	"github.com/YuminosukeSato/scigo-housing/report"
)

// ChartFile は出力ディレクトリ内のグラフファイル名
const ChartFile = "feature_importance.png"

// ChartOptions controls the size and text of a chart. Width and Height are
// in inches.
type ChartOptions struct {
	Width    float64
	Height   float64
	FontSize float64
	DPI      int
	Title    string
}

// DefaultChartOptions returns a 10x6 inch chart at 300 dpi.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		Width:    10,
		Height:   6,
		FontSize: 12,
		DPI:      300,
		Title:    "Feature Importance in Random Forest Model",
	}
}

func (o ChartOptions) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.NewValidationError("figure_size", "width and height must be positive", []float64{o.Width, o.Height})
	}
	if o.FontSize <= 2 {
		return errors.NewValidationError("font_size", "must be greater than 2", o.FontSize)
	}
	if o.DPI <= 0 {
		return errors.NewValidationError("dpi", "must be positive", o.DPI)
	}
	return nil
}

// FeatureImportanceChart draws the ranking as horizontal bars, first entry
// at the top, and writes a PNG to path.
func FeatureImportanceChart(ranking []metrics.FeatureImportance, opts ChartOptions, path string) error {
	if len(ranking) == 0 {
		return errors.NewDataError("FeatureImportanceChart", "ranking is empty")
	}
	if err := opts.validate(); err != nil {
		return err
	}

	p, err := importancePlot(ranking, opts)
	if err != nil {
		return err
	}
	c := newCanvas(opts.Width, opts.Height, opts.DPI)
	p.Draw(draw.New(c))
	if err := writePNG(c, path); err != nil {
		return err
	}

	log.GetLoggerWithName("plot").Debug("Chart rendered",
		log.FeaturesKey, len(ranking),
		"dpi", opts.DPI,
	)
	report.LogArtifact(path)
	return nil
}

func importancePlot(ranking []metrics.FeatureImportance, opts ChartOptions) (*gplot.Plot, error) {
	n := len(ranking)

	p := gplot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(opts.FontSize)
	p.X.Label.Text = "Importance"
	p.X.Label.TextStyle.Font.Size = vg.Points(opts.FontSize - 2)
	p.Y.Label.Text = "Features"
	p.Y.Label.TextStyle.Font.Size = vg.Points(opts.FontSize - 2)
	p.X.Min = 0

	cmap := moreland.Kindlmann()
	cmap.SetMin(0)
	cmap.SetMax(1)

	// 描画領域のおよそ 7 割を棒で埋める
	barWidth := vg.Length(opts.Height) * vg.Inch * 0.7 * 0.7 / vg.Length(n)

	labels := make([]string, n)
	for rank, fi := range ranking {
		if math.IsNaN(fi.Importance) || math.IsInf(fi.Importance, 0) || fi.Importance < 0 {
			return nil, errors.NewValueError("FeatureImportanceChart",
				"importance of "+fi.Feature+" must be a non-negative number")
		}

		// row 0 is drawn at the bottom
		row := n - 1 - rank
		labels[row] = fi.Feature

		bar, err := plotter.NewBarChart(plotter.Values{fi.Importance}, barWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "bar for %s", fi.Feature)
		}
		bar.Horizontal = true
		bar.XMin = float64(row)
		bar.LineStyle.Width = 0

		shade := 0.2
		if n > 1 {
			shade += 0.65 * float64(rank) / float64(n-1)
		}
		c, err := cmap.At(shade)
		if err != nil {
			return nil, errors.Wrap(err, "colour map")
		}
		bar.Color = c

		p.Add(bar)
	}
	p.NominalY(labels...)
	p.Add(plotter.NewGrid())

	return p, nil
}

// newCanvas は width x height インチの画像キャンバスを作る
func newCanvas(width, height float64, dpi int) *vgimg.Canvas {
	return vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
}

func writePNG(c *vgimg.Canvas, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIOError("mkdir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", path, cerr)
		}
	}()

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		return errors.NewIOError("write", path, err)
	}
	return nil
}
