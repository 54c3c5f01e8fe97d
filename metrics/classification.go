package metrics

import (
	"sort"

	"github.com/YuminosukeSato/titanic-ml/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Accuracy は正解率（予測が観測と一致した割合）を計算する。多クラスのラベルも受け付ける。
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix は n×1 の行列に対して正解率を計算する
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := columnToVec("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := columnToVec("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// ClassificationError は誤分類率（1 - 正解率）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// BinaryLogLoss は二値分類の対数損失を計算する。
// yPred は陽性クラスの確率で、log(0) を避けるため [eps, 1-eps] にクリップされる。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	const eps = 1e-15

	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := validateBinaryLabels("BinaryLogLoss", vecToSlice(yTrue)); err != nil {
		return 0, err
	}

	// LogLoss = -(1/n) * Σ[y*log(p) + (1-y)*log(1-p)]
	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), eps, 1-eps)
		if yTrue.AtVec(i) == 1 {
			sum += errors.StabilizeLog(p)
		} else {
			sum += errors.StabilizeLog(1 - p)
		}
	}
	return -sum / float64(n), nil
}

// AUC はROC曲線下面積を順位和（Mann-Whitney U）から計算する。
// 同じスコアには平均順位を与える。片方のクラスしかない場合は0.5を返し警告する。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	labels := vecToSlice(yTrue)
	if err := validateBinaryLabels("AUC", labels); err != nil {
		return 0, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	// 同順位をまとめて平均順位を割り当てる
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}

	var nPos, nNeg, rankSum float64
	for i, y := range labels {
		if y == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する。最初の列のみを使う。
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	t, err := columnToVec("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	s, err := columnToVec("AUCMatrix", yScore)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

// checkPair は2つのベクトルが空でなく同じ長さであることを確認する
func checkPair(op string, a, b *mat.VecDense) (int, error) {
	if a == nil || b == nil || a.Len() == 0 || b.Len() == 0 {
		return 0, errors.NewEmptyDataError(op)
	}
	if a.Len() != b.Len() {
		return 0, errors.NewDimensionError(op, a.Len(), b.Len(), 0)
	}
	return a.Len(), nil
}

// validateBinaryLabels はすべての値が0か1であることを確認する
func validateBinaryLabels(op string, labels []float64) error {
	for i, v := range labels {
		if v != 0 && v != 1 {
			return errors.NewInvalidLabelError(op, i, v)
		}
	}
	return nil
}

// vecToSlice はベクトルを固定長のスライスへコピーする。nilは空スライスになる。
func vecToSlice(v *mat.VecDense) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// columnToVec は行列の最初の列をベクトルとして取り出す
func columnToVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewEmptyDataError(op)
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewEmptyDataError(op)
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}
