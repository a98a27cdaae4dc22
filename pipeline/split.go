package pipeline

import (
	"fmt"
	"math/rand"
)

//////
// Cross-validation splitting.
//////

// Fold is one train/test partition of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter produces the cross-validation partitions for a dataset of n rows.
// The tuner accepts any Splitter; KFold is the built-in default.
type Splitter interface {
	Split(n int) ([]Fold, error)
}

// KFold shuffles row indices with a fixed seed and deals them into K folds.
// Split is deterministic: repeated calls produce identical partitions.
type KFold struct {
	K    int
	Seed int64
}

// NewKFold returns a K-fold splitter with the given shuffle seed.
func NewKFold(k int, seed int64) *KFold {
	return &KFold{K: k, Seed: seed}
}

// Split implements Splitter.
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.K < 2 {
		return nil, fmt.Errorf("kfold: need at least 2 folds, got %d", kf.K)
	}

	if n < kf.K {
		return nil, fmt.Errorf("kfold: %d samples cannot fill %d folds", n, kf.K)
	}

	rng := rand.New(rand.NewSource(kf.Seed))
	perm := rng.Perm(n)

	test := make([][]int, kf.K)
	for i, idx := range perm {
		f := i % kf.K
		test[f] = append(test[f], idx)
	}

	folds := make([]Fold, kf.K)
	for f := range folds {
		folds[f].Test = test[f]

		for other := range test {
			if other != f {
				folds[f].Train = append(folds[f].Train, test[other]...)
			}
		}
	}

	return folds, nil
}

// TrainTestSplit partitions n row indices into a shuffled train/test split
// with the given test fraction. At least one row lands on each side.
func TrainTestSplit(rng *rand.Rand, n int, testFrac float64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("train_test_split: need at least 2 samples, got %d", n)
	}

	if testFrac <= 0 || testFrac >= 1 {
		return nil, nil, fmt.Errorf("train_test_split: test fraction must be in (0, 1), got %v", testFrac)
	}

	nTest := int(float64(n) * testFrac)
	if nTest == 0 {
		nTest = 1
	}

	perm := rng.Perm(n)

	return perm[nTest:], perm[:nTest], nil
}

// Subset gathers the rows and labels addressed by idx.
func Subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	subX := make([][]float64, len(idx))
	subY := make([]float64, len(idx))

	for i, j := range idx {
		subX[i] = X[j]
		subY[i] = y[j]
	}

	return subX, subY
}
