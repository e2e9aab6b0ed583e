package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData 統計計算に必要なデータ点（2点以上、分散が0でない）が不足しています。
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDivisionByZero 比率の分母が0です。
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidRange 年・月・予測期間などの範囲指定が不正です。
	ErrInvalidRange = errors.New("invalid range")
	// ErrLengthMismatch 2つの系列の長さが一致しません。
	ErrLengthMismatch = errors.New("series length mismatch")
	// ErrSessionNotFound セッションが存在しないか期限切れです。
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigurationError はリモート接続パラメータの欠落・不正を表します。
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}
