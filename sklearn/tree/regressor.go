package tree

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/core/model"
	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// DecisionTreeRegressor is a CART regression tree.
type DecisionTreeRegressor struct {
	state *model.StateManager

	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	randomState     uint64

	tree *Tree
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the tree depth. 0 or a negative value means unlimited.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) { dt.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) { dt.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples required in a leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) { dt.minSamplesLeaf = n }
}

// WithMaxFeatures sets how many features are examined per split.
// 0 examines every feature.
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeRegressor) { dt.maxFeatures = n }
}

// WithRandomState seeds the feature subsampling.
func WithRandomState(seed uint64) Option {
	return func(dt *DecisionTreeRegressor) { dt.randomState = seed }
}

// NewDecisionTreeRegressor creates a tree with sklearn's defaults:
// unlimited depth, min_samples_split=2, min_samples_leaf=1, all features.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		state:           model.NewStateManager(),
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

func (dt *DecisionTreeRegressor) growParams() growParams {
	return growParams{
		maxDepth:        dt.maxDepth,
		minSamplesSplit: dt.minSamplesSplit,
		minSamplesLeaf:  dt.minSamplesLeaf,
		maxFeatures:     dt.maxFeatures,
	}
}

func (dt *DecisionTreeRegressor) validate() error {
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	if dt.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must not be negative", dt.maxFeatures)
	}
	return nil
}

// Fit grows the tree on X (n_samples × n_features) and y (n_samples × 1).
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	if err := dt.validate(); err != nil {
		return err
	}
	x, target, err := Prepare("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	samples := make([]int, len(target))
	for i := range samples {
		samples[i] = i
	}
	rng := rand.New(rand.NewPCG(dt.randomState, dt.randomState))
	dt.tree = grow(x.RawMatrix(), target, samples, dt.growParams(), rng)

	r, c := x.Dims()
	dt.state.SetFitted(c, r)
	return nil
}

// Predict returns an n_samples × 1 matrix of predictions.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := dt.state.CheckFeatures("DecisionTreeRegressor.Predict", c); err != nil {
		return nil, err
	}

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, dt.tree.Predict(row))
	}
	return out, nil
}

// Score returns the coefficient of determination R² of the prediction.
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return scoreR2(y, pred)
}

// FeatureImportances returns the normalized impurity decrease per feature.
func (dt *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := dt.state.RequireFitted("DecisionTreeRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	return dt.tree.FeatureImportance(), nil
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeRegressor) GetDepth() int {
	if dt.tree == nil {
		return 0
	}
	return dt.tree.MaxDepth
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	if dt.tree == nil {
		return 0
	}
	return dt.tree.NumLeaves
}

// Tree returns the fitted tree, or nil before Fit.
func (dt *DecisionTreeRegressor) Tree() *Tree {
	return dt.tree
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         "squared_error",
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams updates hyperparameters by name. Unknown names or values of
// the wrong type are a ValidationError.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var target *int
		switch key {
		case "max_depth":
			target = &dt.maxDepth
		case "min_samples_split":
			target = &dt.minSamplesSplit
		case "min_samples_leaf":
			target = &dt.minSamplesLeaf
		case "max_features":
			target = &dt.maxFeatures
		case "random_state":
			seed, ok := value.(uint64)
			if !ok {
				return errors.NewValidationError(key, "must be uint64", value)
			}
			dt.randomState = seed
			continue
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		v, ok := value.(int)
		if !ok {
			return errors.NewValidationError(key, "must be int", value)
		}
		*target = v
	}
	return nil
}

// String returns a short description.
func (dt *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		dt.maxDepth, dt.minSamplesSplit, dt.minSamplesLeaf)
}

// Prepare validates training inputs and copies them into dense storage.
func Prepare(op string, X, y mat.Matrix) (*mat.Dense, []float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yr, yc := y.Dims()
	if yc != 1 {
		return nil, nil, errors.NewDimensionError(op, 1, yc, 1)
	}
	if yr != r {
		return nil, nil, errors.NewDimensionError(op, r, yr, 0)
	}
	if err := errors.CheckMatrix(op, X, r, c); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckMatrix(op, y, yr, yc); err != nil {
		return nil, nil, err
	}
	return mat.DenseCopyOf(X), mat.Col(nil, 0, y), nil
}

// Grow fits one tree on the given rows of x. Ensembles call it with
// bootstrap samples and their own random stream.
func Grow(x *mat.Dense, y []float64, samples []int, rng *rand.Rand, opts ...Option) (*Tree, error) {
	dt := NewDecisionTreeRegressor(opts...)
	if err := dt.validate(); err != nil {
		return nil, err
	}
	return grow(x.RawMatrix(), y, samples, dt.growParams(), rng), nil
}

func scoreR2(y, pred mat.Matrix) (float64, error) {
	yv, err := metrics.ColumnVector(y)
	if err != nil {
		return 0, err
	}
	pv, err := metrics.ColumnVector(pred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yv, pv)
}
