// Package tree implements CART regression trees grown by variance
// reduction. The trees are the base learners of sklearn/ensemble.
package tree

// Node represents a single node in a regression tree
type Node struct {
	LeftChild  int // Left child node ID (-1 if leaf)
	RightChild int // Right child node ID (-1 if leaf)

	// Split information (for non-leaf nodes)
	SplitFeature int     // Feature index used for splitting
	Threshold    float64 // Samples with value <= Threshold go left
	Gain         float64 // Weighted impurity decrease of the split

	// Value is the mean target of the samples reaching the node
	Value    float64
	NSamples int
	Impurity float64 // Variance of the targets at the node
	Depth    int
}

// IsLeaf reports whether the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild < 0
}

// Tree is a fitted tree stored as a flat node slice; node 0 is the root.
// All fields are exported so trees survive gob encoding.
type Tree struct {
	Nodes     []Node
	NFeatures int
	MaxDepth  int // Depth actually reached
	NumLeaves int
}

// Predict makes a prediction for a single sample using this tree
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.Value
		}
		if features[node.SplitFeature] <= node.Threshold {
			nodeID = node.LeftChild
		} else {
			nodeID = node.RightChild
		}
	}
}

// FeatureImportance sums the split gains per feature and normalizes them to
// sum to 1. A tree without splits returns all zeros.
func (t *Tree) FeatureImportance() []float64 {
	importance := make([]float64, t.NFeatures)
	for _, node := range t.Nodes {
		if !node.IsLeaf() {
			importance[node.SplitFeature] += node.Gain
		}
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance
}
