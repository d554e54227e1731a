package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestNew はNew関数を検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("本番設定ではDebugが無効になること", func(t *testing.T) {
		t.Parallel()

		logger, err := New("web", true)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("本番設定でDebugレベルが有効になっている")
		}
	})

	t.Run("開発設定ではDebugが有効になること", func(t *testing.T) {
		t.Parallel()

		logger, err := New("web", false)
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("開発設定でDebugレベルが無効になっている")
		}
	})
}
