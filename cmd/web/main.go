// webサービスのエントリポイント。
// ブラウザからのログイン・登録・ログアウトをIDサービスへ中継し、
// セッションCookieで保護されたページとバックエンドAPIを提供する。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nao1215/barmanager/internal/config"
	"github.com/nao1215/barmanager/internal/logging"
	"github.com/nao1215/barmanager/internal/web"
)

// shutdownTimeout は処理中のリクエストを待つ最大時間。
const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New("web", cfg.Production())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := web.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("webサーバーの初期化に失敗", zap.Error(err))
	}

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatal("webサービスの起動に失敗", zap.Error(err))
		}
	}()
	logger.Info("webサービスを起動しました",
		zap.String("port", cfg.Port),
		zap.String("auth_api_url", cfg.AuthAPIURL),
		zap.Bool("production", cfg.Production()))

	<-ctx.Done()
	logger.Info("停止シグナルを受信しました")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("webサービスの停止に失敗", zap.Error(err))
		return
	}
	logger.Info("webサービスを停止しました")
}
