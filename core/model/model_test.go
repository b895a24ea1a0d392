package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Model", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))

	s.SetFitted(13, 404)
	require.NoError(t, s.RequireFitted("Model", "Predict"))
	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 13, nFeatures)
	assert.Equal(t, 404, nSamples)

	require.NoError(t, s.CheckFeatures("Predict", 13))
	var dim *errors.DimensionError
	require.True(t, errors.As(s.CheckFeatures("Predict", 12), &dim))
	assert.Equal(t, 13, dim.Expected)

	s.Reset()
	assert.False(t, s.IsFitted())
}

type shiftParams struct {
	Offset []float64
}

// shift subtracts the per-column minimum.
type shift struct{}

func (shift) Fit(X mat.Matrix) (shiftParams, error) {
	r, c := X.Dims()
	p := shiftParams{Offset: make([]float64, c)}
	for j := 0; j < c; j++ {
		p.Offset[j] = X.At(0, j)
		for i := 1; i < r; i++ {
			if v := X.At(i, j); v < p.Offset[j] {
				p.Offset[j] = v
			}
		}
	}
	return p, nil
}

func (shift) Apply(X mat.Matrix, p shiftParams) (mat.Matrix, error) {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 { return v - p.Offset[j] }, X)
	return out, nil
}

func TestFitApply(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 20,
		3, 5,
	})

	out, params, err := FitApply[shiftParams](shift{}, X)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5}, params.Offset)
	assert.Equal(t, 15.0, out.At(1, 1))
	assert.Equal(t, 1.0, X.At(0, 0), "input must not be modified")
}

type snapshot struct {
	Name   string
	Values []float64
}

func TestSaveLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.gob")
	in := snapshot{Name: "forest", Values: []float64{0.5, 0.25, 0.25}}

	require.NoError(t, SaveModel(in, path))

	var out snapshot
	require.NoError(t, LoadModel(&out, path))
	assert.Equal(t, in, out)

	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter(in, &buf))
	var out2 snapshot
	require.NoError(t, LoadModelFromReader(&out2, &buf))
	assert.Equal(t, in, out2)

	err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob"))
	var ioErr *errors.IOError
	require.True(t, errors.As(err, &ioErr))
}
