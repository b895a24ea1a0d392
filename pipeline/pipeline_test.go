package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-housing/config"
	"github.com/YuminosukeSato/scigo-housing/dataset"
	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
	"github.com/YuminosukeSato/scigo-housing/plot"
	"github.com/YuminosukeSato/scigo-housing/report"
	"github.com/YuminosukeSato/scigo-housing/sklearn/ensemble"
)

// writeRawFile writes a synthetic raw file in the Boston layout: 22 header
// lines, then 11 values on the first and 3 on the second physical line of
// every record. MEDV depends mostly on RM and LSTAT.
func writeRawFile(t *testing.T, path string, records int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(11, 11))

	var b strings.Builder
	for i := 0; i < dataset.DefaultHeaderLines; i++ {
		fmt.Fprintf(&b, " header line %d\n", i+1)
	}
	for i := 0; i < records; i++ {
		row := make([]float64, len(dataset.BostonColumns))
		for j := range row {
			row[j] = rng.Float64() * 10
		}
		rm := 4 + rng.Float64()*4
		lstat := rng.Float64() * 30
		row[5], row[12] = rm, lstat
		row[13] = 25 + 6*(rm-6) - 0.4*lstat + rng.NormFloat64()*0.5

		for j, v := range row {
			sep := " "
			if j == 10 || j == len(row)-1 {
				sep = "\n"
			}
			fmt.Fprintf(&b, "%.4f%s", v, sep)
		}
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

type fixture struct {
	dir        string
	rawPath    string
	outputDir  string
	configPath string
}

// newFixture writes a raw file and a settings document into a temp dir.
// extra is appended to the document.
func newFixture(t *testing.T, records int, extra string) (*fixture, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:        dir,
		rawPath:    filepath.Join(dir, "raw_data", "boston.txt"),
		outputDir:  filepath.Join(dir, "output"),
		configPath: filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(f.rawPath), 0o755))
	writeRawFile(t, f.rawPath, records)

	doc := fmt.Sprintf(`base:
  params:
    random_seed: 7
data:
  raw_data: %q
  processed_data: %q
model:
  parameters:
    n_estimators: 10
    max_depth: 6
visualization:
  figure_size: [4, 2]
  font_size: 10
  dpi: 25
output:
  dir: %q
%s`, f.rawPath, filepath.Join(dir, "processed_data", "boston.csv"), f.outputDir, extra)
	require.NoError(t, os.WriteFile(f.configPath, []byte(doc), 0o644))

	cfg, err := config.Load(f.configPath, "")
	require.NoError(t, err)
	return f, cfg
}

func TestRunEndToEnd(t *testing.T) {
	f, cfg := newFixture(t, 80, "")

	result, err := Run(cfg)
	require.NoError(t, err)

	table, err := dataset.LoadCSV(cfg.Data.ProcessedData)
	require.NoError(t, err)
	assert.Equal(t, 80, table.Rows())
	assert.Equal(t, dataset.BostonColumns, table.Columns)

	reports, err := report.ReadMetrics(filepath.Join(f.outputDir, report.MetricsFile))
	require.NoError(t, err)
	require.Contains(t, reports, "training")
	require.Contains(t, reports, "test")
	assert.Equal(t, result.Reports, reports)
	for _, r := range reports {
		assert.InDelta(t, math.Sqrt(r.MSE), r.RMSE, 1e-12)
	}
	assert.Greater(t, reports["training"].R2, 0.7)

	ranking, err := report.ReadImportances(filepath.Join(f.outputDir, report.ImportanceFile))
	require.NoError(t, err)
	require.Len(t, ranking, 13)
	sum := 0.0
	for i, fi := range ranking {
		assert.GreaterOrEqual(t, fi.Importance, 0.0)
		if i > 0 {
			assert.LessOrEqual(t, fi.Importance, ranking[i-1].Importance)
		}
		sum += fi.Importance
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Contains(t, []string{"RM", "LSTAT"}, ranking[0].Feature)

	for _, name := range []string{plot.ChartFile, plot.DistributionsFile} {
		info, err := os.Stat(filepath.Join(f.outputDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	loaded, err := ensemble.Load(filepath.Join(f.outputDir, ModelFile))
	require.NoError(t, err)
	assert.Len(t, loaded.Trees(), 10)
}

func TestRunIsReproducible(t *testing.T) {
	f, cfg := newFixture(t, 60, "")

	read := func() (string, string) {
		_, err := Run(cfg)
		require.NoError(t, err)
		m, err := os.ReadFile(filepath.Join(f.outputDir, report.MetricsFile))
		require.NoError(t, err)
		imp, err := os.ReadFile(filepath.Join(f.outputDir, report.ImportanceFile))
		require.NoError(t, err)
		return string(m), string(imp)
	}

	m1, imp1 := read()
	m2, imp2 := read()
	assert.Equal(t, m1, m2)
	assert.Equal(t, imp1, imp2)
}

func TestRegressWithCrossValidation(t *testing.T) {
	_, cfg := newFixture(t, 60, "")
	cfg.Model.CVFolds = 3
	cfg.Model.Scoring = config.ScoringMSE

	_, err := Process(cfg)
	require.NoError(t, err)
	result, err := Regress(cfg)
	require.NoError(t, err)

	require.NotNil(t, result.CV)
	assert.Len(t, result.CV.Scores, 3)
	for _, s := range result.CV.Scores {
		assert.LessOrEqual(t, s, 0.0)
	}
	assert.InDelta(t, stat.Mean(result.CV.Scores, nil), result.CV.Mean, 1e-12)
}

func TestRegressScalesFeatures(t *testing.T) {
	_, cfg := newFixture(t, 40, "features:\n  scale: true\n")
	require.True(t, cfg.Features.Scale)

	_, err := Process(cfg)
	require.NoError(t, err)
	result, err := Regress(cfg)
	require.NoError(t, err)

	require.NotNil(t, result.Features.Impute)
	require.NotNil(t, result.Features.Scale)
	assert.Len(t, result.Features.Scale.Mean, 13)
}

func TestFitFeatures(t *testing.T) {
	_, cfg := newFixture(t, 10, "")
	cfg.Features.Impute = true
	cfg.Features.Scale = true

	nan := math.NaN()
	train := mat.NewDense(4, 2, []float64{1, 10, nan, 20, 3, 30, 5, 40})
	test := mat.NewDense(1, 2, []float64{nan, 25})

	testLogger, _ := log.NewTestLogger(log.LevelDebug)
	original := log.GetLogger()
	log.SetLogger(testLogger)
	defer log.SetLogger(original)

	trainX, others, params, err := FitFeatures(cfg, train, test)
	require.NoError(t, err)
	assert.True(t, testLogger.ContainsField(log.OperationKey, log.OperationApply))
	assert.True(t, testLogger.ContainsField("transform", "impute"))
	assert.True(t, testLogger.ContainsField("transform", "scale"))
	assert.True(t, testLogger.ContainsField("missing", 1.0))
	assert.Equal(t, []float64{3, 25}, params.Impute.Means)

	// imputed test value equals the training mean, so it scales to 0
	assert.InDelta(t, 0, others[0].At(0, 0), 1e-12)
	assert.InDelta(t, 0, others[0].At(0, 1), 1e-12)
	assert.InDelta(t, 0, stat.Mean(mat.Col(nil, 1, trainX), nil), 1e-12)

	// inputs are left untouched
	assert.True(t, math.IsNaN(train.At(1, 0)))
}

func TestRunStopsAtParseError(t *testing.T) {
	f, cfg := newFixture(t, 20, "")
	data, err := os.ReadFile(f.rawPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.rawPath, append(data, []byte("1 2 3\n")...), 0o644))

	_, err = Run(cfg)
	var pe *errors.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, dataset.DefaultHeaderLines+41, pe.Line)

	_, statErr := os.Stat(filepath.Join(f.outputDir, report.MetricsFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRegressColumnMismatch(t *testing.T) {
	_, cfg := newFixture(t, 10, "")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Data.ProcessedData), 0o755))
	require.NoError(t, os.WriteFile(cfg.Data.ProcessedData, []byte("A,B,MEDV\n1,2,3\n4,5,6\n"), 0o644))

	_, err := Regress(cfg)
	var de *errors.DataError
	assert.True(t, errors.As(err, &de), "got %v", err)
}

func TestRegressMissingProcessedData(t *testing.T) {
	_, cfg := newFixture(t, 10, "")

	_, err := Regress(cfg)
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr), "got %v", err)
}

func TestVisualizeWithoutImportances(t *testing.T) {
	_, cfg := newFixture(t, 10, "")

	_, err := Visualize(cfg)
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestVisualizeWritesBothCharts(t *testing.T) {
	f, cfg := newFixture(t, 30, "")
	_, err := Process(cfg)
	require.NoError(t, err)
	_, err = Regress(cfg)
	require.NoError(t, err)

	paths, err := Visualize(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(f.outputDir, plot.ChartFile),
		filepath.Join(f.outputDir, plot.DistributionsFile),
	}, paths)

	// 13 features in two columns: seven rows of half the figure height
	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	img, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 175, img.Height)
}

func TestVisualizeWithoutProcessedData(t *testing.T) {
	_, cfg := newFixture(t, 20, "")
	_, err := Process(cfg)
	require.NoError(t, err)
	_, err = Regress(cfg)
	require.NoError(t, err)
	require.NoError(t, os.Remove(cfg.Data.ProcessedData))

	_, err = Visualize(cfg)
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr), "got %v", err)
}

func TestTrainRejectsUnknownModelType(t *testing.T) {
	_, cfg := newFixture(t, 10, "")
	cfg.Model.Type = "gradient_boosting"

	X := mat.NewDense(2, 1, []float64{1, 2})
	features, err := dataset.NewTable([]string{"x"}, X)
	require.NoError(t, err)
	_, err = Train(cfg, &dataset.Split{Features: features, Target: mat.NewVecDense(2, []float64{1, 2})})

	var ce *errors.ConfigError
	assert.True(t, errors.As(err, &ce))
}

func TestRunStep(t *testing.T) {
	testLogger, _ := log.NewTestLogger(log.LevelInfo)
	original := log.GetLogger()
	log.SetLogger(testLogger)
	defer log.SetLogger(original)

	require.NoError(t, RunStep(StepProcess, func() error { return nil }))
	assert.True(t, testLogger.ContainsMessage("Step finished"))
	assert.True(t, testLogger.ContainsField(log.StepKey, StepProcess))

	err := RunStep(StepRegress, func() error { panic("boom") })
	var pe *errors.PanicError
	assert.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "regress step")
	assert.True(t, testLogger.ContainsMessage("Step failed"))
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true

	ranking := make([]metrics.FeatureImportance, 0, 7)
	for i, name := range []string{"RM", "LSTAT", "DIS", "CRIM", "NOX", "AGE", "TAX"} {
		ranking = append(ranking, metrics.FeatureImportance{Feature: name, Importance: 0.4 - 0.05*float64(i)})
	}
	result := &Result{
		Reports: map[string]metrics.Report{
			"training": {MSE: 1.234, RMSE: 1.111, R2: 0.987},
			"test":     {MSE: 9.876, RMSE: 3.143, R2: 0.85},
		},
		Ranking: ranking,
		CV:      &CVResult{Scoring: config.ScoringR2, Scores: []float64{0.8, 0.9}, Mean: 0.85, Std: 0.07},
	}

	var buf bytes.Buffer
	PrintSummary(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "training  MSE: 1.23  RMSE: 1.11  R2: 0.99")
	assert.Contains(t, out, "test      MSE: 9.88  RMSE: 3.14  R2: 0.85")
	assert.Contains(t, out, "cv (r2, 2 folds): 0.85")
	assert.Contains(t, out, "Top 5 features")
	assert.Contains(t, out, "5. NOX")
	assert.NotContains(t, out, "AGE")
	assert.Less(t, strings.Index(out, "training"), strings.Index(out, "test"))
}
