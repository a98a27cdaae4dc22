package pipeline

import (
	"fmt"
	"math"
)

//////
// Scoring metrics.
//////

// Scorer computes a score from true and predicted labels. Higher is always
// better; error-style metrics are exposed negated (neg_mean_squared_error) so
// every scorer obeys the same convention, matching how the tuner converts
// scores to losses.
type Scorer func(yTrue, yPred []float64) float64

// ScorerByName resolves a scoring-metric name. Supported names: "accuracy",
// "f1", "r2", "neg_mean_squared_error".
func ScorerByName(name string) (Scorer, error) {
	switch name {
	case "accuracy":
		return Accuracy, nil
	case "f1":
		return F1, nil
	case "r2":
		return R2, nil
	case "neg_mean_squared_error":
		return NegMeanSquaredError, nil
	default:
		return nil, fmt.Errorf("unknown scoring metric %q", name)
	}
}

// Accuracy is the fraction of exactly matching labels.
func Accuracy(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}

	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}

	return float64(hits) / float64(len(yTrue))
}

// F1 is the binary F1 score for labels in {0, 1} with 1 as the positive
// class.
func F1(yTrue, yPred []float64) float64 {
	tp, fp, fn := 0, 0, 0

	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}

	if 2*tp+fp+fn == 0 {
		return 0
	}

	return 2 * float64(tp) / float64(2*tp+fp+fn)
}

// R2 is the coefficient of determination.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	ssTot, ssRes := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - mean
		ssTot += d * d

		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}

	if ssTot == 0 {
		return 0
	}

	return 1 - ssRes/ssTot
}

// NegMeanSquaredError is the negated mean squared error.
func NegMeanSquaredError(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}

	s := 0.0
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		s += d * d
	}

	return -s / float64(len(yTrue))
}

// logLossEps clamps predicted probabilities away from 0 and 1 so the log
// never overflows.
const logLossEps = 1e-15

// LogLoss is the multinomial cross-entropy of predicted class probabilities
// against integer class labels. proba rows are indexed by class label; a
// label outside the row's class range is an error.
func LogLoss(yTrue []float64, proba [][]float64) (float64, error) {
	if len(yTrue) == 0 || len(yTrue) != len(proba) {
		return 0, fmt.Errorf("log_loss: %d labels against %d probability rows", len(yTrue), len(proba))
	}

	total := 0.0

	for i, label := range yTrue {
		c := int(label)
		if float64(c) != label || c < 0 || c >= len(proba[i]) {
			return 0, fmt.Errorf("log_loss: label %v has no probability column", label)
		}

		p := proba[i][c]
		if p < logLossEps {
			p = logLossEps
		} else if p > 1-logLossEps {
			p = 1 - logLossEps
		}

		total -= math.Log(p)
	}

	return total / float64(len(yTrue)), nil
}
