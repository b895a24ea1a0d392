package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-housing/core/model"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// ImputeParams は MeanImputer.Fit が学習した各列の平均値
type ImputeParams struct {
	Means []float64
}

// MeanImputer は欠損値（NaN）を訓練データの列平均で埋める
type MeanImputer struct{}

var _ model.Transformer[ImputeParams] = MeanImputer{}

// Fit は NaN を除いた列平均を計算する。全て NaN の列はエラー。
func (MeanImputer) Fit(X mat.Matrix) (ImputeParams, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return ImputeParams{}, errors.NewModelError("MeanImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	params := ImputeParams{Means: make([]float64, c)}
	observed := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		observed = observed[:0]
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return ImputeParams{}, errors.NewValueError("MeanImputer.Fit", "column has no observed values")
		}
		params.Means[j] = stat.Mean(observed, nil)
	}
	return params, nil
}

// Apply は NaN を params の列平均で置き換えた新しい行列を返す
func (MeanImputer) Apply(X mat.Matrix, params ImputeParams) (mat.Matrix, error) {
	r, c := X.Dims()
	if c != len(params.Means) {
		return nil, errors.NewDimensionError("MeanImputer.Apply", len(params.Means), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if math.IsNaN(v) {
			return params.Means[j]
		}
		return v
	}, X)
	return result, nil
}

// Missing は行列に含まれる NaN の数を返す
func Missing(X mat.Matrix) int {
	r, c := X.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(X.At(i, j)) {
				n++
			}
		}
	}
	return n
}
