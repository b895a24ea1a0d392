package tree

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/blas/blas64"
)

// growParams are the stopping rules applied while growing a tree.
type growParams struct {
	maxDepth        int // <= 0: unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // <= 0 or >= n_features: every feature is a candidate
}

// builder grows one tree depth-first. Sample index slices are partitioned
// in place, so a slice passed to build is owned by that subtree.
type builder struct {
	x      blas64.General
	y      []float64
	params growParams
	rng    *rand.Rand
	tree   *Tree
}

type split struct {
	feature     int
	threshold   float64
	improvement float64
}

// grow fits a tree on the rows of x listed in samples. Duplicate indices
// (bootstrap draws) are allowed and count once per occurrence.
func grow(x blas64.General, y []float64, samples []int, params growParams, rng *rand.Rand) *Tree {
	b := &builder{
		x:      x,
		y:      y,
		params: params,
		rng:    rng,
		tree:   &Tree{NFeatures: x.Cols},
	}
	b.build(slices.Clone(samples), 0)
	return b.tree
}

func (b *builder) value(row, feature int) float64 {
	return b.x.Data[row*b.x.Stride+feature]
}

func (b *builder) build(samples []int, depth int) int {
	n := len(samples)
	var sum, sumSq float64
	for _, i := range samples {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	mean := sum / float64(n)
	impurity := max(sumSq/float64(n)-mean*mean, 0)

	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{
		LeftChild:  -1,
		RightChild: -1,
		Value:      mean,
		NSamples:   n,
		Impurity:   impurity,
		Depth:      depth,
	})
	b.tree.MaxDepth = max(b.tree.MaxDepth, depth)

	p := b.params
	stop := (p.maxDepth > 0 && depth >= p.maxDepth) ||
		n < p.minSamplesSplit ||
		n < 2*p.minSamplesLeaf ||
		impurity <= 1e-12
	if stop {
		b.tree.NumLeaves++
		return id
	}

	best, ok := b.bestSplit(samples, sum)
	if !ok {
		b.tree.NumLeaves++
		return id
	}

	// 閾値以下を左に寄せる
	mid := 0
	for j, i := range samples {
		if b.value(i, best.feature) <= best.threshold {
			samples[mid], samples[j] = samples[j], samples[mid]
			mid++
		}
	}

	left := b.build(samples[:mid], depth+1)
	right := b.build(samples[mid:], depth+1)

	node := &b.tree.Nodes[id]
	node.LeftChild = left
	node.RightChild = right
	node.SplitFeature = best.feature
	node.Threshold = best.threshold
	node.Gain = best.improvement
	return id
}

// candidates returns the features examined at one node: all of them, or a
// random subset of maxFeatures drawn without replacement.
func (b *builder) candidates() []int {
	nFeatures := b.tree.NFeatures
	if b.params.maxFeatures <= 0 || b.params.maxFeatures >= nFeatures || b.rng == nil {
		features := make([]int, nFeatures)
		for i := range features {
			features[i] = i
		}
		return features
	}
	return b.rng.Perm(nFeatures)[:b.params.maxFeatures]
}

// bestSplit finds the threshold with the largest decrease in the sum of
// squared errors. Thresholds are midpoints between consecutive distinct
// values; a split leaving fewer than minSamplesLeaf samples on a side is
// skipped.
func (b *builder) bestSplit(samples []int, sum float64) (split, bool) {
	n := len(samples)
	minLeaf := b.params.minSamplesLeaf
	parentProxy := sum * sum / float64(n)

	sorted := make([]int, n)
	best := split{feature: -1}
	bestProxy := parentProxy

	for _, f := range b.candidates() {
		copy(sorted, samples)
		slices.SortStableFunc(sorted, func(a, c int) int {
			va, vc := b.value(a, f), b.value(c, f)
			switch {
			case va < vc:
				return -1
			case va > vc:
				return 1
			}
			return 0
		})

		leftSum := 0.0
		for k := 0; k < n-1; k++ {
			leftSum += b.y[sorted[k]]
			nLeft := k + 1
			nRight := n - nLeft
			if nRight < minLeaf {
				break
			}
			if nLeft < minLeaf {
				continue
			}
			cur, next := b.value(sorted[k], f), b.value(sorted[k+1], f)
			if next <= cur {
				continue
			}

			rightSum := sum - leftSum
			proxy := leftSum*leftSum/float64(nLeft) + rightSum*rightSum/float64(nRight)
			if proxy > bestProxy {
				threshold := cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				bestProxy = proxy
				best = split{feature: f, threshold: threshold, improvement: proxy - parentProxy}
			}
		}
	}
	return best, best.feature >= 0
}
