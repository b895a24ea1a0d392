// Package preprocessing provides two-phase feature transforms: Fit learns
// plain parameter values from training data, Apply uses them on any data.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-housing/core/model"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// ScaleParams は StandardScaler.Fit が学習したパラメータ
type ScaleParams struct {
	// Mean は各特徴量の平均値
	Mean []float64
	// Scale は各特徴量の標準偏差（定数列では1）
	Scale []float64
}

// StandardScaler は特徴量を平均0、標準偏差1に変換する
type StandardScaler struct {
	// WithMean は平均を引くかどうか
	WithMean bool
	// WithStd は標準偏差で割るかどうか
	WithStd bool
}

var _ model.Transformer[ScaleParams] = StandardScaler{}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	params, err := scaler.Fit(XTrain)
//	XTestScaled, err := scaler.Apply(XTest, params)
func NewStandardScaler(withMean, withStd bool) StandardScaler {
	return StandardScaler{WithMean: withMean, WithStd: withStd}
}

// Fit は訓練データから平均と母標準偏差を計算する
func (s StandardScaler) Fit(X mat.Matrix) (ScaleParams, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return ScaleParams{}, errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix("StandardScaler.Fit", X, r, c); err != nil {
		return ScaleParams{}, err
	}

	params := ScaleParams{Mean: make([]float64, c), Scale: make([]float64, c)}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)

		params.Scale[j] = 1.0
		if s.WithMean {
			params.Mean[j] = mean
		}
		// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
		if s.WithStd && math.Abs(std) >= 1e-8 {
			params.Scale[j] = std
		}
	}
	return params, nil
}

// Apply は学習済みパラメータでデータを標準化する
func (s StandardScaler) Apply(X mat.Matrix, params ScaleParams) (mat.Matrix, error) {
	r, c := X.Dims()
	if c != len(params.Mean) || c != len(params.Scale) {
		return nil, errors.NewDimensionError("StandardScaler.Apply", len(params.Mean), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - params.Mean[j]) / params.Scale[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
}
