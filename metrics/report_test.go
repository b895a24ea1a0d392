package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

func TestEvaluatePerfectPrediction(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	yTrue := mat.NewVecDense(10, values)
	yPred := mat.NewVecDense(10, append([]float64(nil), values...))

	report, err := Evaluate(yTrue, yPred)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.MSE)
	assert.Equal(t, 0.0, report.RMSE)
	assert.Equal(t, 1.0, report.R2)
}

func TestEvaluateKnownValues(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	report, err := Evaluate(yTrue, yPred)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, report.MSE, 1e-12)
	assert.InDelta(t, 0.5, report.RMSE, 1e-12)
	// TSS = 5, RSS = 1
	assert.InDelta(t, 0.8, report.R2, 1e-12)
}

func TestEvaluateRejectsNonFinitePredictions(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(3, []float64{1, math.Inf(1), 3})

	_, err := Evaluate(yTrue, yPred)
	var numErr *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, 1, numErr.Index)
}

func TestEvaluateLengthMismatch(t *testing.T) {
	_, err := Evaluate(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
}

func TestColumnVector(t *testing.T) {
	v, err := ColumnVector(mat.NewDense(3, 1, []float64{4, 5, 6}))
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, mat.Col(nil, 0, v))

	_, err = ColumnVector(mat.NewDense(2, 2, nil))
	require.Error(t, err)
}

func TestRankImportances(t *testing.T) {
	names := []string{"CRIM", "ZN", "RM", "LSTAT", "NOX"}
	scores := []float64{0.1, 0.0, 0.4, 0.4, 0.1}

	ranking, err := RankImportances(names, scores)
	require.NoError(t, err)

	got := make([]string, len(ranking))
	for i, fi := range ranking {
		got[i] = fi.Feature
	}
	// ties keep column order: RM before LSTAT, CRIM before NOX
	assert.Equal(t, []string{"RM", "LSTAT", "CRIM", "NOX", "ZN"}, got)

	for i := 1; i < len(ranking); i++ {
		assert.GreaterOrEqual(t, ranking[i-1].Importance, ranking[i].Importance)
	}

	_, err = RankImportances(names, scores[:2])
	require.Error(t, err)
}
