package plot

import (
	"bytes"
	"image"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

var sampleRanking = []metrics.FeatureImportance{
	{Feature: "RM", Importance: 0.45},
	{Feature: "LSTAT", Importance: 0.3},
	{Feature: "DIS", Importance: 0.15},
	{Feature: "CRIM", Importance: 0.1},
}

func smallOptions() ChartOptions {
	opts := DefaultChartOptions()
	opts.Width = 4
	opts.Height = 2
	opts.DPI = 25
	return opts
}

func TestFeatureImportanceChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", ChartFile)
	require.NoError(t, FeatureImportanceChart(sampleRanking, smallOptions(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestImportancePlotLayout(t *testing.T) {
	opts := smallOptions()
	p, err := importancePlot(sampleRanking, opts)
	require.NoError(t, err)

	assert.Equal(t, opts.Title, p.Title.Text)
	assert.Equal(t, "Importance", p.X.Label.Text)
	assert.Equal(t, "Features", p.Y.Label.Text)

	ticks := p.Y.Tick.Marker.Ticks(p.Y.Min, p.Y.Max)
	byValue := map[float64]string{}
	for _, tick := range ticks {
		if tick.Label != "" {
			byValue[tick.Value] = tick.Label
		}
	}
	require.Len(t, byValue, len(sampleRanking))
	// 重要度の高い特徴量ほど上に並ぶ
	for rank, fi := range sampleRanking {
		assert.Equal(t, fi.Feature, byValue[float64(len(sampleRanking)-1-rank)], "rank %d", rank)
	}
}

func TestFeatureImportanceChartOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ChartFile)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, FeatureImportanceChart(sampleRanking[:1], smallOptions(), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))
}

func TestFeatureImportanceChartZeroScores(t *testing.T) {
	ranking := []metrics.FeatureImportance{
		{Feature: "A", Importance: 0},
		{Feature: "B", Importance: 0},
	}
	path := filepath.Join(t.TempDir(), ChartFile)
	assert.NoError(t, FeatureImportanceChart(ranking, smallOptions(), path))
}

func TestFeatureImportanceChartErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ChartFile)

	t.Run("empty ranking", func(t *testing.T) {
		err := FeatureImportanceChart(nil, smallOptions(), path)
		var de *errors.DataError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("bad options", func(t *testing.T) {
		tests := map[string]func(*ChartOptions){
			"zero width": func(o *ChartOptions) { o.Width = 0 },
			"tiny font":  func(o *ChartOptions) { o.FontSize = 2 },
			"zero dpi":   func(o *ChartOptions) { o.DPI = 0 },
		}
		for name, mutate := range tests {
			t.Run(name, func(t *testing.T) {
				opts := smallOptions()
				mutate(&opts)
				err := FeatureImportanceChart(sampleRanking, opts, path)
				var ve *errors.ValidationError
				assert.True(t, errors.As(err, &ve), "got %v", err)
			})
		}
	})

	t.Run("nan importance", func(t *testing.T) {
		ranking := []metrics.FeatureImportance{{Feature: "RM", Importance: math.NaN()}}
		err := FeatureImportanceChart(ranking, smallOptions(), path)
		var ve *errors.ValueError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("unwritable path", func(t *testing.T) {
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		err := FeatureImportanceChart(sampleRanking, smallOptions(), filepath.Join(blocker, ChartFile))
		var ioErr *errors.IOError
		assert.True(t, errors.As(err, &ioErr))
	})
}

func TestFeatureImportanceChartLogsArtifact(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelDebug)
	original := log.GetLogger()
	log.SetLogger(testLogger)
	defer log.SetLogger(original)

	path := filepath.Join(t.TempDir(), ChartFile)
	require.NoError(t, FeatureImportanceChart(sampleRanking, smallOptions(), path))

	assert.True(t, testLogger.ContainsMessage("Chart rendered"))
	assert.True(t, testLogger.ContainsMessage("Result written"))
	assert.True(t, testLogger.ContainsField(log.PathKey, path))
}
