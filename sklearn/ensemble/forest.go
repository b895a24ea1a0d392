// Package ensemble provides bagged tree ensembles built on sklearn/tree.
package ensemble

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/core/model"
	"github.com/YuminosukeSato/scigo-housing/metrics"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/pkg/log"
	"github.com/YuminosukeSato/scigo-housing/sklearn/tree"
)

// RandomForestRegressor implements a random forest regressor with scikit-learn compatible API
type RandomForestRegressor struct {
	state *model.StateManager

	// Hyperparameters (matching scikit-learn)
	NEstimators     int    // Number of trees in the forest
	MaxDepth        int    // Maximum tree depth (<= 0: no limit)
	MinSamplesSplit int    // Minimum number of samples to split a node
	MinSamplesLeaf  int    // Minimum number of samples in a leaf
	MaxFeatures     int    // Features examined per split (0: all)
	Bootstrap       bool   // Draw a bootstrap sample for every tree
	RandomState     uint64 // Random seed

	trees []*tree.Tree
}

var _ model.Regressor = (*RandomForestRegressor)(nil)

// NewRandomForestRegressor creates a new random forest regressor with default parameters
func NewRandomForestRegressor() *RandomForestRegressor {
	return &RandomForestRegressor{
		state:           model.NewStateManager(),
		NEstimators:     100,
		MaxDepth:        0, // No limit
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     0,
	}
}

// WithNEstimators sets the number of trees
func (rf *RandomForestRegressor) WithNEstimators(n int) *RandomForestRegressor {
	rf.NEstimators = n
	return rf
}

// WithMaxDepth sets the maximum depth
func (rf *RandomForestRegressor) WithMaxDepth(d int) *RandomForestRegressor {
	rf.MaxDepth = d
	return rf
}

// WithMinSamplesSplit sets the minimum number of samples to split a node
func (rf *RandomForestRegressor) WithMinSamplesSplit(n int) *RandomForestRegressor {
	rf.MinSamplesSplit = n
	return rf
}

// WithMinSamplesLeaf sets the minimum number of samples in a leaf
func (rf *RandomForestRegressor) WithMinSamplesLeaf(n int) *RandomForestRegressor {
	rf.MinSamplesLeaf = n
	return rf
}

// WithMaxFeatures sets the number of features examined per split
func (rf *RandomForestRegressor) WithMaxFeatures(n int) *RandomForestRegressor {
	rf.MaxFeatures = n
	return rf
}

// WithBootstrap enables or disables bootstrap sampling
func (rf *RandomForestRegressor) WithBootstrap(b bool) *RandomForestRegressor {
	rf.Bootstrap = b
	return rf
}

// WithRandomState sets the random seed
func (rf *RandomForestRegressor) WithRandomState(seed uint64) *RandomForestRegressor {
	rf.RandomState = seed
	return rf
}

func (rf *RandomForestRegressor) treeOptions() []tree.Option {
	return []tree.Option{
		tree.WithMaxDepth(rf.MaxDepth),
		tree.WithMinSamplesSplit(rf.MinSamplesSplit),
		tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
		tree.WithMaxFeatures(rf.MaxFeatures),
	}
}

// Fit grows NEstimators trees. Tree i draws its bootstrap sample and its
// feature subsets from a PCG stream seeded with (RandomState, i), so the
// fitted forest depends only on the data and the hyperparameters.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if rf.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.NEstimators)
	}
	x, target, err := tree.Prepare("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()

	logger := log.GetLoggerWithName("ensemble.forest")
	logger.Info("Training RandomForestRegressor",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.HyperParamsKey, rf.GetParams(),
	)
	start := time.Now()

	rf.state.Reset()
	trees := make([]*tree.Tree, rf.NEstimators)
	samples := make([]int, rows)
	opts := rf.treeOptions()
	for i := range trees {
		rng := rand.New(rand.NewPCG(rf.RandomState, uint64(i)))
		for j := range samples {
			if rf.Bootstrap {
				samples[j] = rng.IntN(rows)
			} else {
				samples[j] = j
			}
		}

		t, err := tree.Grow(x, target, samples, rng, opts...)
		if err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
		trees[i] = t
		logger.Debug("Tree grown", "tree", i, "depth", t.MaxDepth, "leaves", t.NumLeaves)
	}

	rf.trees = trees
	rf.state.SetFitted(cols, rows)

	logger.Info("Training completed successfully",
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict averages the predictions of all trees. It returns an
// n_samples × 1 matrix.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := rf.state.CheckFeatures("RandomForestRegressor.Predict", c); err != nil {
		return nil, err
	}
	if err := errors.CheckMatrix("RandomForestRegressor.Predict", X, r, c); err != nil {
		return nil, err
	}

	log.GetLoggerWithName("ensemble.forest").Debug("Predicting",
		log.OperationKey, log.OperationPredict,
		log.SamplesKey, r,
		"trees", len(rf.trees),
	)

	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		sum := 0.0
		for _, t := range rf.trees {
			sum += t.Predict(row)
		}
		out.Set(i, 0, sum/float64(len(rf.trees)))
	}
	return out, nil
}

// Score returns the coefficient of determination R² of the prediction.
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
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

// FeatureImportances averages the per-tree normalized impurity decrease
// and renormalizes the result to sum to 1. When no tree split at all every
// feature gets the same share.
func (rf *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if err := rf.state.RequireFitted("RandomForestRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	nFeatures, _ := rf.state.GetDimensions()

	importance := make([]float64, nFeatures)
	for _, t := range rf.trees {
		for j, v := range t.FeatureImportance() {
			importance[j] += v
		}
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	for j := range importance {
		if total > 0 {
			importance[j] /= total
		} else {
			importance[j] = 1 / float64(nFeatures)
		}
	}
	return importance, nil
}

// Trees returns the fitted trees.
func (rf *RandomForestRegressor) Trees() []*tree.Tree {
	return rf.trees
}

// IsFitted reports whether Fit (or Load) has completed.
func (rf *RandomForestRegressor) IsFitted() bool {
	return rf.state.IsFitted()
}

// GetParams returns the parameters of the regressor
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
	}
}

// String returns a short description.
func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d, random_state=%d)",
		rf.NEstimators, rf.MaxDepth, rf.RandomState)
}
