// Package model はモデル共通のインターフェースと学習状態の管理を提供する。
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測ラベルを n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は二値分類モデルのインターフェース。
// 交差検証や正則化スイープはこのインターフェース越しにモデルを扱う。
type Classifier interface {
	Fitter
	Predictor

	// PredictProba は各クラスの確率を n×2 の行列で返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// LinearClassifier は係数を公開する線形分類器
type LinearClassifier interface {
	Classifier

	// Coef は特徴量ごとの係数を返す
	Coef() []float64

	// Intercept は切片を返す
	Intercept() float64
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
