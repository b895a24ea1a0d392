package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// Report holds the error metrics of one data partition.
// R2 is NaN when the true values have no variance.
type Report struct {
	MSE  float64
	RMSE float64
	R2   float64
}

// Evaluate computes MSE, RMSE and R² for one partition.
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	if !yPred.IsEmpty() {
		if err := errors.CheckNumericalStability("metrics.Evaluate", mat.Col(nil, 0, yPred)); err != nil {
			return Report{}, err
		}
	}

	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	r2, err := R2Score(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	return Report{MSE: mse, RMSE: rmse, R2: r2}, nil
}

// FeatureImportance pairs a feature name with its importance score.
type FeatureImportance struct {
	Feature    string
	Importance float64
}

// RankImportances pairs names with scores and sorts them by descending
// score. Equal scores keep their original column order.
func RankImportances(names []string, scores []float64) ([]FeatureImportance, error) {
	if len(names) != len(scores) {
		return nil, errors.NewDimensionError("RankImportances", len(names), len(scores), 1)
	}
	ranking := make([]FeatureImportance, len(names))
	for i, name := range names {
		ranking[i] = FeatureImportance{Feature: name, Importance: scores[i]}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Importance > ranking[j].Importance
	})
	return ranking, nil
}
