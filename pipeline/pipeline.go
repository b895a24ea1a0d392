// Package pipeline wires the housing workflow together. Each step reads
// the artifacts of the previous one from disk:
//
//	Process    raw text file    -> processed CSV
//	Regress    processed CSV    -> metrics.json, feature_importance.csv, model.gob
//	Visualize  importance CSV   -> feature_importance.png
//	           processed CSV    -> feature_distributions.png
//
// Run executes the three steps in order and stops at the first failure.
package pipeline

import (
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/config"
	"github.com/YuminosukeSato/scigo-housing/dataset"
	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
	"github.com/YuminosukeSato/scigo-housing/plot"
	"github.com/YuminosukeSato/scigo-housing/report"
)

// ModelFile は出力ディレクトリ内の学習済みモデルファイル名
const ModelFile = "model.gob"

// Step names used in logs and errors.
const (
	StepProcess   = "process"
	StepRegress   = "regress"
	StepVisualize = "visualize"
)

// Result is what Regress produced.
type Result struct {
	Reports  map[string]metrics.Report
	Ranking  []metrics.FeatureImportance
	Features FeatureParams
	// CV は交差検証を無効にした場合 nil
	CV *CVResult

	MetricsPath    string
	ImportancePath string
	ModelPath      string
}

func columns(cfg *config.Config) []string {
	if len(cfg.Data.Columns) > 0 {
		return cfg.Data.Columns
	}
	return dataset.BostonColumns
}

// Process parses the raw data file and writes the processed table.
func Process(cfg *config.Config) (*dataset.Table, error) {
	return dataset.ProcessRawFile(cfg.Data.RawData, cfg.Data.ProcessedData, dataset.RawOptions{
		HeaderLines: cfg.Data.HeaderLines,
		Columns:     columns(cfg),
	})
}

// Regress loads the processed table, splits it, fits the forest on the
// training rows, evaluates both partitions and writes the results.
func Regress(cfg *config.Config) (*Result, error) {
	logger := log.GetLoggerWithName("pipeline")

	table, err := dataset.LoadCSV(cfg.Data.ProcessedData)
	if err != nil {
		return nil, err
	}
	if err := table.RequireColumns(columns(cfg)); err != nil {
		return nil, err
	}
	data, err := dataset.SplitTarget(table, cfg.Data.Target)
	if err != nil {
		return nil, err
	}
	n, err := data.Rows()
	if err != nil {
		return nil, err
	}

	part, err := dataset.TrainTestSplit(n, cfg.Data.TestSize, cfg.Base.Params.RandomSeed)
	if err != nil {
		return nil, err
	}
	train, err := data.Subset(part.Train)
	if err != nil {
		return nil, err
	}
	test, err := data.Subset(part.Test)
	if err != nil {
		return nil, err
	}
	logger.Info("Data split",
		log.SamplesKey, n,
		"train_samples", len(part.Train),
		"test_samples", len(part.Test),
		log.RandomSeedKey, cfg.Base.Params.RandomSeed,
	)

	result := &Result{}
	if cfg.Model.CVFolds > 0 {
		if result.CV, err = CrossValidate(cfg, train); err != nil {
			return nil, err
		}
	}

	trainX, others, params, err := FitFeatures(cfg, train.Features.Data, test.Features.Data)
	if err != nil {
		return nil, err
	}
	result.Features = params
	if train, err = withFeatures(train, trainX); err != nil {
		return nil, err
	}
	if test, err = withFeatures(test, others[0]); err != nil {
		return nil, err
	}

	forest, err := Train(cfg, train)
	if err != nil {
		return nil, err
	}

	result.Reports = make(map[string]metrics.Report, 2)
	for _, p := range []struct {
		name  string
		split *dataset.Split
	}{
		{log.PartitionTraining, train},
		{log.PartitionTest, test},
	} {
		r, err := Evaluate(forest, p.split.Features.Data, p.split.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate %s", p.name)
		}
		result.Reports[p.name] = r
		logger.Info("Model evaluated",
			log.PartitionKey, p.name,
			log.MSEKey, r.MSE,
			log.RMSEKey, r.RMSE,
			log.R2ScoreKey, r.R2,
		)
	}

	importances, err := forest.FeatureImportances()
	if err != nil {
		return nil, err
	}
	if result.Ranking, err = metrics.RankImportances(train.Features.Columns, importances); err != nil {
		return nil, err
	}

	if result.MetricsPath, err = report.WriteMetrics(cfg.Output.Dir, result.Reports); err != nil {
		return nil, err
	}
	if result.ImportancePath, err = report.WriteImportances(cfg.Output.Dir, result.Ranking); err != nil {
		return nil, err
	}
	result.ModelPath = filepath.Join(cfg.Output.Dir, ModelFile)
	if err := forest.Save(result.ModelPath); err != nil {
		return nil, err
	}
	report.LogArtifact(result.ModelPath)

	return result, nil
}

func withFeatures(s *dataset.Split, X mat.Matrix) (*dataset.Split, error) {
	if X == mat.Matrix(s.Features.Data) {
		return s, nil
	}
	features, err := dataset.NewTable(s.Features.Columns, mat.DenseCopyOf(X))
	if err != nil {
		return nil, err
	}
	return &dataset.Split{Features: features, Target: s.Target, TargetName: s.TargetName}, nil
}

// ChartOptions converts the visualization section of cfg.
func ChartOptions(cfg *config.Config) plot.ChartOptions {
	v := cfg.Visualization
	opts := plot.DefaultChartOptions()
	opts.Width, opts.Height = v.FigureSize[0], v.FigureSize[1]
	opts.FontSize = v.FontSize
	opts.DPI = int(v.DPI)
	if v.Title != "" {
		opts.Title = v.Title
	}
	return opts
}

// Visualize reads the importance ranking written by Regress and renders
// it to <output.dir>/feature_importance.png, then draws the histograms of
// the processed feature columns to <output.dir>/feature_distributions.png.
// It returns the paths of both images.
func Visualize(cfg *config.Config) ([]string, error) {
	ranking, err := report.ReadImportances(filepath.Join(cfg.Output.Dir, report.ImportanceFile))
	if err != nil {
		return nil, err
	}
	opts := ChartOptions(cfg)
	chart := filepath.Join(cfg.Output.Dir, plot.ChartFile)
	if err := plot.FeatureImportanceChart(ranking, opts, chart); err != nil {
		return nil, err
	}

	table, err := dataset.LoadCSV(cfg.Data.ProcessedData)
	if err != nil {
		return nil, err
	}
	data, err := dataset.SplitTarget(table, cfg.Data.Target)
	if err != nil {
		return nil, err
	}
	distributions := filepath.Join(cfg.Output.Dir, plot.DistributionsFile)
	if err := plot.FeatureDistributions(data.Features, opts, distributions); err != nil {
		return nil, err
	}
	return []string{chart, distributions}, nil
}

// Run executes Process, Regress and Visualize in order. A panic inside a
// step is returned as a PanicError.
func Run(cfg *config.Config) (*Result, error) {
	var result *Result
	steps := []struct {
		name string
		fn   func() error
	}{
		{StepProcess, func() error {
			_, err := Process(cfg)
			return err
		}},
		{StepRegress, func() (err error) {
			result, err = Regress(cfg)
			return err
		}},
		{StepVisualize, func() error {
			_, err := Visualize(cfg)
			return err
		}},
	}

	for _, step := range steps {
		if err := RunStep(step.name, step.fn); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RunStep runs one step with start/finish logging and panic recovery. The
// returned error names the step.
func RunStep(name string, fn func() error) error {
	logger := log.GetLoggerWithName("pipeline").With(log.StepKey, name)
	logger.Info("Step started")
	start := time.Now()

	if err := errors.SafeExecute(name, fn); err != nil {
		logger.Error("Step failed", "error", err)
		return errors.Wrapf(err, "%s step", name)
	}
	logger.Info("Step finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}
