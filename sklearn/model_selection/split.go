// Package model_selection provides cross-validation splitters and helpers.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Splitter generates train/test folds for a label vector.
type Splitter interface {
	Split(y mat.Vector) ([]Fold, error)
	NSplits() int
}

// Fold represents a single fold in cross-validation. Both index slices are ascending.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

type splitConfig struct {
	shuffle bool
	seed    uint64
}

// SplitOption configures a splitter.
type SplitOption func(*splitConfig)

// WithShuffle shuffles indices with the given seed before they are assigned to folds.
func WithShuffle(seed uint64) SplitOption {
	return func(c *splitConfig) {
		c.shuffle = true
		c.seed = seed
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	nSplits int
	cfg     splitConfig
}

var _ Splitter = (*KFold)(nil)

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, opts ...SplitOption) *KFold {
	kf := &KFold{nSplits: nSplits}
	for _, opt := range opts {
		opt(&kf.cfg)
	}
	return kf
}

// NSplits returns the number of splits
func (kf *KFold) NSplits() int {
	return kf.nSplits
}

// Split assigns contiguous (optionally shuffled) blocks of indices to the test folds.
// The first n % k folds receive one extra sample.
func (kf *KFold) Split(y mat.Vector) ([]Fold, error) {
	n, err := checkSplitInput("KFold.Split", y, kf.nSplits)
	if err != nil {
		return nil, err
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.cfg.shuffle {
		r := newRand(kf.cfg.seed)
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	assignment := make([]int, n)
	foldSize := n / kf.nSplits
	remainder := n % kf.nSplits
	current := 0
	for f := 0; f < kf.nSplits; f++ {
		testSize := foldSize
		if f < remainder {
			testSize++
		}
		for _, idx := range indices[current : current+testSize] {
			assignment[idx] = f
		}
		current += testSize
	}

	return buildFolds(assignment, kf.nSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation.
// Each test fold holds every class in proportion; per class the fold counts differ by at most one.
type StratifiedKFold struct {
	nSplits int
	cfg     splitConfig
}

var _ Splitter = (*StratifiedKFold)(nil)

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, opts ...SplitOption) *StratifiedKFold {
	skf := &StratifiedKFold{nSplits: nSplits}
	for _, opt := range opts {
		opt(&skf.cfg)
	}
	return skf
}

// NSplits returns the number of splits
func (skf *StratifiedKFold) NSplits() int {
	return skf.nSplits
}

// Split generates stratified train/test indices for each fold
func (skf *StratifiedKFold) Split(y mat.Vector) ([]Fold, error) {
	const op = "StratifiedKFold.Split"

	n, err := checkSplitInput(op, y, skf.nSplits)
	if err != nil {
		return nil, err
	}

	classes, byClass := groupByClass(y)
	for _, c := range classes {
		if len(byClass[c]) < skf.nSplits {
			return nil, errors.NewValidationError("n_splits",
				"greater than the number of members in the least populated class", skf.nSplits)
		}
	}

	if skf.cfg.shuffle {
		r := newRand(skf.cfg.seed)
		for _, c := range classes {
			indices := byClass[c]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	// The folds that take a class's remainder rotate so that overall fold sizes stay balanced.
	assignment := make([]int, n)
	offset := 0
	for _, c := range classes {
		indices := byClass[c]
		base := len(indices) / skf.nSplits
		remainder := len(indices) % skf.nSplits

		current := 0
		for k := 0; k < skf.nSplits; k++ {
			f := (offset + k) % skf.nSplits
			size := base
			if k < remainder {
				size++
			}
			for _, idx := range indices[current : current+size] {
				assignment[idx] = f
			}
			current += size
		}
		offset = (offset + remainder) % skf.nSplits
	}

	return buildFolds(assignment, skf.nSplits), nil
}

// TrainTestSplit returns a single train/test partition of len(y) samples.
// The test set holds ceil(testSize*n) samples. When stratify is true each class contributes
// in proportion, with rounding left-overs going to the classes with the largest fractional share.
func TrainTestSplit(y mat.Vector, testSize float64, stratify bool, seed uint64) (train, test []int, err error) {
	const op = "TrainTestSplit"

	if !(testSize > 0 && testSize < 1) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if y == nil || y.Len() == 0 {
		return nil, nil, errors.NewEmptyDataError(op)
	}
	n := y.Len()
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, nil, errors.NewValueError(op, "test_size leaves no training samples")
	}

	r := newRand(seed)
	isTest := make([]bool, n)

	if !stratify {
		perm := r.Perm(n)
		for _, idx := range perm[:nTest] {
			isTest[idx] = true
		}
	} else {
		classes, byClass := groupByClass(y)
		quota := make([]int, len(classes))
		frac := make([]float64, len(classes))
		allocated := 0
		for i, c := range classes {
			exact := testSize * float64(len(byClass[c]))
			quota[i] = int(math.Floor(exact))
			frac[i] = exact - float64(quota[i])
			allocated += quota[i]
		}

		order := make([]int, len(classes))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return frac[order[a]] > frac[order[b]] })
		for k := 0; allocated < nTest; k = (k + 1) % len(order) {
			i := order[k]
			if quota[i] < len(byClass[classes[i]]) {
				quota[i]++
				allocated++
			}
		}

		for i, c := range classes {
			indices := byClass[c]
			r.Shuffle(len(indices), func(a, b int) {
				indices[a], indices[b] = indices[b], indices[a]
			})
			for _, idx := range indices[:quota[i]] {
				isTest[idx] = true
			}
		}
	}

	for i := 0; i < n; i++ {
		if isTest[i] {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return train, test, nil
}

func checkSplitInput(op string, y mat.Vector, nSplits int) (int, error) {
	if nSplits < 2 {
		return 0, errors.NewValidationError("n_splits", "must be at least 2", nSplits)
	}
	if y == nil || y.Len() == 0 {
		return 0, errors.NewEmptyDataError(op)
	}
	if y.Len() < nSplits {
		return 0, errors.NewValueError(op, "n_splits is greater than the number of samples")
	}
	return y.Len(), nil
}

// groupByClass returns the sorted distinct labels and the ascending indices of each
func groupByClass(y mat.Vector) ([]float64, map[float64][]int) {
	byClass := make(map[float64][]int)
	for i := 0; i < y.Len(); i++ {
		label := y.AtVec(i)
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Float64s(classes)
	return classes, byClass
}

// buildFolds turns a sample → test fold assignment into ascending index slices
func buildFolds(assignment []int, nSplits int) []Fold {
	folds := make([]Fold, nSplits)
	for idx, f := range assignment {
		folds[f].TestIndices = append(folds[f].TestIndices, idx)
	}
	for f := range folds {
		folds[f].TrainIndices = make([]int, 0, len(assignment)-len(folds[f].TestIndices))
		for idx, g := range assignment {
			if g != f {
				folds[f].TrainIndices = append(folds[f].TrainIndices, idx)
			}
		}
	}
	return folds
}

// TakeRows copies the given rows of X into a new matrix, in index order
func TakeRows(X mat.Matrix, indices []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

// TakeVec copies the given elements of y into a new vector, in index order
func TakeVec(y mat.Vector, indices []int) *mat.VecDense {
	out := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		out.SetVec(i, y.AtVec(idx))
	}
	return out
}
