package pipeline

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-housing/config"
	"github.com/YuminosukeSato/scigo-housing/core/model"
	"github.com/YuminosukeSato/scigo-housing/dataset"
	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
	"github.com/YuminosukeSato/scigo-housing/preprocessing"
	"github.com/YuminosukeSato/scigo-housing/sklearn/ensemble"
)

// FeatureParams are the transform parameters fitted on the training rows.
// A nil field means the transform is disabled.
type FeatureParams struct {
	Impute *preprocessing.ImputeParams
	Scale  *preprocessing.ScaleParams
}

// NewForest builds an unfitted forest from the model section of cfg.
func NewForest(cfg *config.Config) *ensemble.RandomForestRegressor {
	p := cfg.Model.Parameters
	return ensemble.NewRandomForestRegressor().
		WithNEstimators(p.NEstimators).
		WithMaxDepth(p.Depth()).
		WithMinSamplesSplit(p.MinSamplesSplit).
		WithMinSamplesLeaf(p.MinSamplesLeaf).
		WithMaxFeatures(p.MaxFeatures).
		WithBootstrap(p.Bootstrap).
		WithRandomState(cfg.Base.Params.RandomSeed)
}

// Train fits a forest configured by cfg on the features and target of
// train.
func Train(cfg *config.Config, train *dataset.Split) (*ensemble.RandomForestRegressor, error) {
	if _, err := train.Rows(); err != nil {
		return nil, err
	}
	if cfg.Model.Type != "" && cfg.Model.Type != "random_forest" {
		return nil, errors.NewConfigError(cfg.Path, "model.type", "unsupported model type "+cfg.Model.Type, nil)
	}

	forest := NewForest(cfg)
	if err := forest.Fit(train.Features.Data, train.Target); err != nil {
		return nil, errors.NewModelError("pipeline.Train", "fit", err)
	}
	return forest, nil
}

// FitFeatures fits the enabled transforms on train and applies them to
// train and every matrix in others.
func FitFeatures(cfg *config.Config, train mat.Matrix, others ...mat.Matrix) (mat.Matrix, []mat.Matrix, FeatureParams, error) {
	var params FeatureParams
	out := append([]mat.Matrix(nil), others...)
	logger := log.GetLoggerWithName("pipeline")

	if cfg.Features.Impute {
		imputer := preprocessing.MeanImputer{}
		transformed, p, err := model.FitApply[preprocessing.ImputeParams](imputer, train)
		if err != nil {
			return nil, nil, params, err
		}
		for i, m := range out {
			if out[i], err = imputer.Apply(m, p); err != nil {
				return nil, nil, params, err
			}
		}
		logger.Debug("Features transformed",
			log.OperationKey, log.OperationApply,
			"transform", "impute",
			"missing", preprocessing.Missing(train),
		)
		train, params.Impute = transformed, &p
	}

	if cfg.Features.Scale {
		scaler := preprocessing.NewStandardScaler(true, true)
		transformed, p, err := model.FitApply[preprocessing.ScaleParams](scaler, train)
		if err != nil {
			return nil, nil, params, err
		}
		for i, m := range out {
			if out[i], err = scaler.Apply(m, p); err != nil {
				return nil, nil, params, err
			}
		}
		logger.Debug("Features transformed",
			log.OperationKey, log.OperationApply,
			"transform", "scale",
		)
		train, params.Scale = transformed, &p
	}

	return train, out, params, nil
}

// Evaluate predicts X and compares the predictions with y.
func Evaluate(forest model.Predictor, X mat.Matrix, y *mat.VecDense) (metrics.Report, error) {
	pred, err := forest.Predict(X)
	if err != nil {
		return metrics.Report{}, err
	}
	yPred, err := metrics.ColumnVector(pred)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.Evaluate(y, yPred)
}

// CVResult holds the per-fold scores of a cross-validation run. With the
// neg_mean_squared_error scoring the scores are negated MSE values, so
// larger is better for both scorings.
type CVResult struct {
	Scoring string
	Scores  []float64
	Mean    float64
	Std     float64
}

// CrossValidate runs k-fold cross-validation over data with
// model.cv_folds folds. Transforms are refitted on every training fold.
func CrossValidate(cfg *config.Config, data *dataset.Split) (*CVResult, error) {
	n, err := data.Rows()
	if err != nil {
		return nil, err
	}
	folds, err := dataset.NewKFold(cfg.Model.CVFolds, true, cfg.Base.Params.RandomSeed).Split(n)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("pipeline.cv")
	result := &CVResult{Scoring: cfg.Model.Scoring, Scores: make([]float64, len(folds))}
	for i, fold := range folds {
		train, err := data.Subset(fold.TrainIndices)
		if err != nil {
			return nil, err
		}
		test, err := data.Subset(fold.TestIndices)
		if err != nil {
			return nil, err
		}

		trainX, others, _, err := FitFeatures(cfg, train.Features.Data, test.Features.Data)
		if err != nil {
			return nil, err
		}
		forest := NewForest(cfg)
		if err := forest.Fit(trainX, train.Target); err != nil {
			return nil, errors.NewModelError("pipeline.CrossValidate", "fit", err)
		}
		r, err := Evaluate(forest, others[0], test.Target)
		if err != nil {
			return nil, err
		}

		if cfg.Model.Scoring == config.ScoringMSE {
			result.Scores[i] = -r.MSE
		} else {
			result.Scores[i] = r.R2
		}
		logger.Debug("Fold evaluated", "fold", i, log.SamplesKey, len(fold.TestIndices), "score", result.Scores[i])
	}

	result.Mean, result.Std = stat.MeanStdDev(result.Scores, nil)
	logger.Info("Cross-validation completed",
		"folds", len(folds),
		"scoring", result.Scoring,
		"mean", result.Mean,
		"std", result.Std,
	)
	return result, nil
}
