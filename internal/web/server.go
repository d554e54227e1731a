package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nao1215/barmanager/internal/audit"
	"github.com/nao1215/barmanager/internal/auth"
	"github.com/nao1215/barmanager/internal/config"
	"github.com/nao1215/barmanager/internal/sessioncache"
	"github.com/nao1215/barmanager/pkg/httpclient"
	"github.com/nao1215/barmanager/pkg/middleware"
)

// redisPingTimeout は起動時のRedis疎通確認のタイムアウト。
const redisPingTimeout = 5 * time.Second

// Server はwebサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はrouterを配信するHTTPサーバー。
	httpServer *http.Server
	// gateway はIDサービスとのやり取りをまとめる。
	gateway *auth.Gateway
	// cacheStore はセッションキャッシュの保存先。内部エンドポイントからのタグ無効化に使う。
	cacheStore sessioncache.Store
	// recorder は認証監査ログ。
	recorder *audit.Recorder
	// api はCookieを転送するバックエンドAPIクライアント。未設定の場合はnil。
	api *httpclient.Client
	// cms はサービストークンで呼び出すCMSクライアント。未設定の場合はnil。
	cms *httpclient.Client
	// jwtSecret はサービス間JWTの署名鍵。
	jwtSecret string
	// logger はリクエスト処理中の失敗を記録する。
	logger *zap.Logger
	// closers はShutdown時に解放するリソース。
	closers []func() error
}

// NewServer は設定から依存を組み立てて新しいwebサーバーを生成する。
// REDIS_ADDRが設定されている場合はセッションキャッシュをRedisで共有する。
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	recorder, err := audit.Open(ctx, cfg.AuditDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("監査ログの初期化に失敗: %w", err)
	}
	closers := []func() error{recorder.Close}

	var store sessioncache.Store = sessioncache.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			_ = recorder.Close()
			return nil, fmt.Errorf("Redisへの接続に失敗: addr=%s: %w", cfg.RedisAddr, err)
		}
		store = sessioncache.NewRedisStore(rdb, "")
		closers = append(closers, rdb.Close)
		logger.Info("セッションキャッシュにRedisを使用します", zap.String("addr", cfg.RedisAddr))
	}

	s := newServer(cfg, logger, store, recorder)
	s.closers = closers
	return s, nil
}

// newServer は組み立て済みの依存からサーバーを生成する。
func newServer(cfg *config.Config, logger *zap.Logger, store sessioncache.Store, recorder *audit.Recorder) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	var events auth.Recorder
	if recorder != nil {
		events = recorder
	}
	cache := sessioncache.New[auth.SessionEnvelope](store, sessioncache.TagSession, cfg.SessionCacheTTL, logger)
	gateway := auth.New(auth.Config{
		IdentityURL:   cfg.AuthAPIURL,
		CookiePrefix:  cfg.SessionCookiePrefix,
		SecureCookies: cfg.Production(),
		Timeout:       cfg.RequestTimeout,
	}, cache, events, logger)

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	s := &Server{
		router:     router,
		gateway:    gateway,
		cacheStore: store,
		recorder:   recorder,
		jwtSecret:  cfg.ServiceJWTSecret,
		logger:     logger,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if cfg.APIURL != "" {
		s.api = httpclient.New(cfg.APIURL, httpclient.ForwardCookies(), httpclient.WithTimeout(cfg.RequestTimeout))
	}
	if cfg.CMSAPIURL != "" {
		s.cms = httpclient.New(cfg.CMSAPIURL, s.cmsAuthenticator(cfg.CMSAccessToken), httpclient.WithTimeout(cfg.RequestTimeout))
	}
	s.setupRoutes()

	return s
}

// Handler はルーターを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。Shutdownが呼ばれるまで戻らない。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	}
	return nil
}

// Shutdown は処理中のリクエストを待ってサーバーを停止し、リソースを解放する。
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	for _, closeFn := range s.closers {
		err = errors.Join(err, closeFn())
	}
	return err
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証フォーム（認証不要）
	s.router.GET("/login", s.handleLoginPage())
	s.router.POST("/login", s.handleLogin())
	s.router.POST("/signup", s.handleSignup())
	s.router.POST("/logout", s.handleLogout())
	s.router.GET("/session", s.handleGetSession())

	// 保護されたページ（未認証は/loginへリダイレクト）
	pages := s.router.Group("")
	pages.Use(s.requireSession(true))
	{
		pages.GET("/dashboard", s.handleDashboard())
		pages.GET("/account", s.handleAccount())
	}

	// バックエンドAPIプロキシ（未認証は401）
	api := s.router.Group("")
	api.Use(s.requireSession(false))
	{
		api.Any("/api/v1/*path", s.handleProxy(s.api))
		api.Any("/cms/*path", s.handleProxy(s.cms))
		api.POST("/uploads", s.handleUpload())
	}

	// サービス間の内部エンドポイント
	internal := s.router.Group("/internal")
	internal.Use(middleware.JWTAuth(s.jwtSecret))
	{
		internal.POST("/revalidate", s.handleRevalidate())
		internal.GET("/audit", s.handleListAudit())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "web"})
	})
}
