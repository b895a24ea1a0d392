package model

import "gonum.org/v1/gonum/mat"

// Transformer はデータ変換の2段階インターフェース
//
// Fit は学習データから変換パラメータ P を計算して値として返し、
// Apply はそのパラメータを使って任意のデータを変換する。
// パラメータはインスタンス内部に隠されないため、検査や保存が容易になる。
type Transformer[P any] interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) (P, error)

	// Apply は学習済みパラメータでデータを変換する（X は変更しない）
	Apply(X mat.Matrix, params P) (mat.Matrix, error)
}

// FitApply は Fit と Apply を続けて実行し、変換結果とパラメータの両方を返す
func FitApply[P any](t Transformer[P], X mat.Matrix) (mat.Matrix, P, error) {
	params, err := t.Fit(X)
	if err != nil {
		var zero P
		return nil, zero, err
	}
	out, err := t.Apply(X, params)
	if err != nil {
		return nil, params, err
	}
	return out, params, nil
}
