package dataset

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// Split holds the feature columns and the row-aligned target column.
type Split struct {
	Features *Table
	Target   *mat.VecDense
	// TargetName は目的変数の列名
	TargetName string
}

// SplitTarget removes the target column from t and returns it alongside the
// remaining feature columns, in their original order.
func SplitTarget(t *Table, target string) (*Split, error) {
	idx := t.Index(target)
	if idx < 0 {
		return nil, errors.NewDataError("SplitTarget", "target column "+strconv.Quote(target)+" not in table")
	}
	if len(t.Columns) < 2 {
		return nil, errors.NewDataError("SplitTarget", "table has no feature columns")
	}

	rows := t.Rows()
	names := make([]string, 0, len(t.Columns)-1)
	keep := make([]int, 0, len(t.Columns)-1)
	for j, name := range t.Columns {
		if j != idx {
			names = append(names, name)
			keep = append(keep, j)
		}
	}

	X := mat.NewDense(rows, len(keep), nil)
	for i := 0; i < rows; i++ {
		for k, j := range keep {
			X.Set(i, k, t.Data.At(i, j))
		}
	}
	y := mat.NewVecDense(rows, mat.Col(nil, idx, t.Data))

	features, err := NewTable(names, X)
	if err != nil {
		return nil, err
	}
	return &Split{Features: features, Target: y, TargetName: target}, nil
}

// Rows returns the shared row count, or a DataError if features and target
// disagree.
func (s *Split) Rows() (int, error) {
	n := s.Features.Rows()
	if s.Target.Len() != n {
		return 0, errors.NewDataError("Split",
			"features have "+strconv.Itoa(n)+" rows, target has "+strconv.Itoa(s.Target.Len()))
	}
	return n, nil
}

// Subset returns a new Split containing the given rows in the given order.
func (s *Split) Subset(indices []int) (*Split, error) {
	n, err := s.Rows()
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, errors.NewDataError("Subset", "no rows selected")
	}

	_, c := s.Features.Data.Dims()
	X := mat.NewDense(len(indices), c, nil)
	y := mat.NewVecDense(len(indices), nil)
	for k, i := range indices {
		if i < 0 || i >= n {
			return nil, errors.NewDataError("Subset", "row index "+strconv.Itoa(i)+" out of range")
		}
		X.SetRow(k, s.Features.Data.RawRowView(i))
		y.SetVec(k, s.Target.AtVec(i))
	}

	features, err := NewTable(s.Features.Columns, X)
	if err != nil {
		return nil, err
	}
	return &Split{Features: features, Target: y, TargetName: s.TargetName}, nil
}

// Partition is a disjoint, exhaustive assignment of row indices to the
// training and test sets.
type Partition struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles 0..n-1 with a PCG generator seeded from seed and
// takes the first round(testSize*n) indices as the test set. Both index
// sets are returned sorted ascending, so the partition depends only on
// (n, testSize, seed).
func TrainTestSplit(n int, testSize float64, seed uint64) (Partition, error) {
	if n < 2 {
		return Partition{}, errors.NewValueError("TrainTestSplit", "need at least 2 rows, got "+strconv.Itoa(n))
	}
	if !(testSize > 0 && testSize < 1) {
		return Partition{}, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}

	nTest := int(math.Round(testSize * float64(n)))
	if nTest == 0 || nTest == n {
		return Partition{}, errors.NewValueError("TrainTestSplit",
			"test_size "+strconv.FormatFloat(testSize, 'g', -1, 64)+" leaves an empty partition for "+strconv.Itoa(n)+" rows")
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	test := append([]int(nil), perm[:nTest]...)
	train := append([]int(nil), perm[nTest:]...)
	slices.Sort(test)
	slices.Sort(train)
	return Partition{Train: train, Test: test}, nil
}
