package model_selection

import (
	"sort"
	"testing"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func labels(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

// checkPartition verifies that every index appears in exactly one test fold and
// that train/test are complementary within each fold.
func checkPartition(t *testing.T, folds []Fold, n int) {
	t.Helper()
	seen := make([]int, n)
	for f, fold := range folds {
		require.NotEmpty(t, fold.TestIndices, "fold %d test set is empty", f)
		assert.True(t, sort.IntsAreSorted(fold.TestIndices))
		assert.True(t, sort.IntsAreSorted(fold.TrainIndices))
		assert.Equal(t, n, len(fold.TrainIndices)+len(fold.TestIndices))

		inTest := make(map[int]bool, len(fold.TestIndices))
		for _, idx := range fold.TestIndices {
			seen[idx]++
			inTest[idx] = true
		}
		for _, idx := range fold.TrainIndices {
			assert.False(t, inTest[idx], "fold %d: index %d in both train and test", f, idx)
		}
	}
	for idx, count := range seen {
		assert.Equal(t, 1, count, "index %d appears in %d test folds", idx, count)
	}
}

func TestKFold_Split(t *testing.T) {
	kf := NewKFold(3)
	assert.Equal(t, 3, kf.NSplits())

	folds, err := kf.Split(labels(0, 1, 0, 1, 0, 1, 0))
	require.NoError(t, err)
	require.Len(t, folds, 3)

	want := []Fold{
		{TrainIndices: []int{3, 4, 5, 6}, TestIndices: []int{0, 1, 2}},
		{TrainIndices: []int{0, 1, 2, 5, 6}, TestIndices: []int{3, 4}},
		{TrainIndices: []int{0, 1, 2, 3, 4}, TestIndices: []int{5, 6}},
	}
	if diff := cmp.Diff(want, folds); diff != "" {
		t.Errorf("KFold.Split() mismatch (-want +got):\n%s", diff)
	}
}

func TestKFold_Shuffle(t *testing.T) {
	y := mat.NewVecDense(20, nil)

	a, err := NewKFold(4, WithShuffle(7)).Split(y)
	require.NoError(t, err)
	b, err := NewKFold(4, WithShuffle(7)).Split(y)
	require.NoError(t, err)
	c, err := NewKFold(4, WithShuffle(8)).Split(y)
	require.NoError(t, err)

	checkPartition(t, a, 20)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different folds:\n%s", diff)
	}
	assert.NotEqual(t, a, c)

	plain, err := NewKFold(4).Split(y)
	require.NoError(t, err)
	assert.NotEqual(t, plain, a)
}

func TestStratifiedKFold_PreservesProportions(t *testing.T) {
	// 62 negatives, 38 positives with labels interleaved irregularly
	n := 100
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		if (i*7)%100 < 38 {
			y.SetVec(i, 1)
		}
	}

	for _, opts := range [][]SplitOption{nil, {WithShuffle(42)}} {
		folds, err := NewStratifiedKFold(5, opts...).Split(y)
		require.NoError(t, err)
		require.Len(t, folds, 5)
		checkPartition(t, folds, n)

		var posCounts, sizes []int
		for _, fold := range folds {
			pos := 0
			for _, idx := range fold.TestIndices {
				if y.AtVec(idx) == 1 {
					pos++
				}
			}
			posCounts = append(posCounts, pos)
			sizes = append(sizes, len(fold.TestIndices))
		}

		sort.Ints(posCounts)
		sort.Ints(sizes)
		assert.LessOrEqual(t, posCounts[len(posCounts)-1]-posCounts[0], 1, "positives per fold: %v", posCounts)
		assert.LessOrEqual(t, sizes[len(sizes)-1]-sizes[0], 1, "fold sizes: %v", sizes)
	}
}

func TestStratifiedKFold_RemainderRotation(t *testing.T) {
	// 2 classes of 4: each class's leftover sample lands in a different fold
	folds, err := NewStratifiedKFold(3).Split(labels(0, 0, 0, 0, 1, 1, 1, 1))
	require.NoError(t, err)

	want := [][]int{
		{0, 1, 7},
		{2, 4, 5},
		{3, 6},
	}
	got := make([][]int, len(folds))
	for i, f := range folds {
		got[i] = f.TestIndices
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("test folds mismatch (-want +got):\n%s", diff)
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		splitter Splitter
		y        mat.Vector
		check    func(t *testing.T, err error)
	}{
		{
			name:     "too few splits",
			splitter: NewKFold(1),
			y:        labels(0, 1),
			check: func(t *testing.T, err error) {
				var vErr *errors.ValidationError
				assert.True(t, errors.As(err, &vErr))
			},
		},
		{
			name:     "more splits than samples",
			splitter: NewKFold(5),
			y:        labels(0, 1, 0),
			check: func(t *testing.T, err error) {
				var vErr *errors.ValueError
				assert.True(t, errors.As(err, &vErr))
			},
		},
		{
			name:     "empty labels",
			splitter: NewStratifiedKFold(2),
			y:        nil,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errors.ErrEmptyData))
			},
		},
		{
			name:     "class smaller than n_splits",
			splitter: NewStratifiedKFold(3),
			y:        labels(0, 0, 0, 0, 1, 1),
			check: func(t *testing.T, err error) {
				var vErr *errors.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, "n_splits", vErr.ParamName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folds, err := tt.splitter.Split(tt.y)
			require.Error(t, err)
			assert.Nil(t, folds)
			tt.check(t, err)
		})
	}
}

func TestTrainTestSplit(t *testing.T) {
	n := 50
	y := mat.NewVecDense(n, nil)
	for i := 0; i < 20; i++ {
		y.SetVec(i*2, 1)
	}

	train, test, err := TrainTestSplit(y, 0.3, true, 1)
	require.NoError(t, err)
	assert.Len(t, test, 15)
	assert.Len(t, train, 35)
	checkPartition(t, []Fold{{TrainIndices: train, TestIndices: test}}, n)

	pos := 0
	for _, idx := range test {
		if y.AtVec(idx) == 1 {
			pos++
		}
	}
	assert.Equal(t, 6, pos, "0.3 of 20 positives")

	again, _, err := TrainTestSplit(y, 0.3, true, 1)
	require.NoError(t, err)
	if diff := cmp.Diff(train, again); diff != "" {
		t.Errorf("same seed produced different split:\n%s", diff)
	}

	train, test, err = TrainTestSplit(y, 0.25, false, 3)
	require.NoError(t, err)
	assert.Len(t, test, 13)
	assert.Len(t, train, 37)

	_, _, err = TrainTestSplit(y, 1.0, false, 0)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, _, err = TrainTestSplit(labels(1), 0.5, false, 0)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
}

func TestTakeRows(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	got := TakeRows(X, []int{2, 0})
	assert.Equal(t, []float64{5, 6, 1, 2}, got.RawMatrix().Data)

	v := TakeVec(labels(7, 8, 9), []int{1, 1, 2})
	assert.Equal(t, []float64{8, 8, 9}, v.RawVector().Data)
}
