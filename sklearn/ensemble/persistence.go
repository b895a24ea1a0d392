package ensemble

import (
	"github.com/YuminosukeSato/scigo-housing/core/model"
	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
	"github.com/YuminosukeSato/scigo-housing/sklearn/tree"
)

// ForestSnapshot is the gob-encoded form of a fitted forest.
type ForestSnapshot struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     uint64

	NFeatures int
	NSamples  int
	Trees     []*tree.Tree
}

// Snapshot captures the hyperparameters and trees of a fitted forest.
func (rf *RandomForestRegressor) Snapshot() (*ForestSnapshot, error) {
	if err := rf.state.RequireFitted("RandomForestRegressor", "Snapshot"); err != nil {
		return nil, err
	}
	nFeatures, nSamples := rf.state.GetDimensions()
	return &ForestSnapshot{
		NEstimators:     rf.NEstimators,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MinSamplesLeaf:  rf.MinSamplesLeaf,
		MaxFeatures:     rf.MaxFeatures,
		Bootstrap:       rf.Bootstrap,
		RandomState:     rf.RandomState,
		NFeatures:       nFeatures,
		NSamples:        nSamples,
		Trees:           rf.trees,
	}, nil
}

// Save writes the fitted forest to path in gob format.
func (rf *RandomForestRegressor) Save(path string) error {
	snap, err := rf.Snapshot()
	if err != nil {
		return err
	}
	return model.SaveModel(snap, path)
}

// Load restores a forest written by Save.
func Load(path string) (*RandomForestRegressor, error) {
	var snap ForestSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return nil, err
	}
	if len(snap.Trees) == 0 || snap.NFeatures <= 0 {
		return nil, errors.NewModelError("ensemble.Load", "snapshot has no trees", errors.ErrEmptyData)
	}
	for i, t := range snap.Trees {
		if t == nil || len(t.Nodes) == 0 || t.NFeatures != snap.NFeatures {
			return nil, errors.NewModelError("ensemble.Load", "corrupt snapshot",
				errors.Newf("tree %d does not match %d features", i, snap.NFeatures))
		}
	}

	rf := NewRandomForestRegressor()
	rf.NEstimators = snap.NEstimators
	rf.MaxDepth = snap.MaxDepth
	rf.MinSamplesSplit = snap.MinSamplesSplit
	rf.MinSamplesLeaf = snap.MinSamplesLeaf
	rf.MaxFeatures = snap.MaxFeatures
	rf.Bootstrap = snap.Bootstrap
	rf.RandomState = snap.RandomState
	rf.trees = snap.Trees
	rf.state.SetFitted(snap.NFeatures, snap.NSamples)
	return rf, nil
}
