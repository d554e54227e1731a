package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nao1215/barmanager/internal/sessioncache"
	"github.com/nao1215/barmanager/pkg/cookiestore"
	"github.com/nao1215/barmanager/pkg/event"
	"github.com/nao1215/barmanager/pkg/setcookie"
)

// IDサービスのエンドポイント。
const (
	// PathSignIn はユーザー名とパスワードでサインインするエンドポイント。
	PathSignIn = "/api/auth/sign-in/username"
	// PathSignUp はアカウントを登録するエンドポイント。
	PathSignUp = "/api/auth/sign-up"
	// PathSignOut はサーバー側のセッションを破棄するエンドポイント。
	PathSignOut = "/api/auth/sign-out"
	// PathGetSession は現在のセッションとユーザーを返すエンドポイント。
	PathGetSession = "/api/auth/get-session"
)

// リダイレクト先。
const (
	// TargetDashboard はログイン・登録成功後のリダイレクト先。
	TargetDashboard = "/dashboard"
	// TargetHome はログアウト後のリダイレクト先。
	TargetHome = "/"
	// TargetLogin は未認証時のリダイレクト先。
	TargetLogin = "/login"
)

// 利用者に返すメッセージ。
const (
	MessageCredentialsRequired = "Username and password are required"
	MessageSignupFieldsMissing = "Email and password are required"
	MessageLoginFailed         = "Login failed"
	MessageSignupFailed        = "Signup failed"
	MessageUnexpected          = "An unexpected error occurred"
)

const (
	// DefaultIdentityURL はIDサービスのデフォルトのベースURL。
	DefaultIdentityURL = "http://localhost:3001"
	// DefaultCookiePrefix はセッション関連Cookieの予約接頭辞。
	DefaultCookiePrefix = "better-auth"
	// defaultTimeout はIDサービス呼び出しのタイムアウト。
	defaultTimeout = 30 * time.Second
)

// Recorder は監査イベントの記録先。
type Recorder interface {
	Record(ctx context.Context, e *event.Event) error
}

// Config はGatewayの設定。
type Config struct {
	// IdentityURL はIDサービスのベースURL。
	IdentityURL string
	// CookiePrefix はログアウト時に一括削除するCookie名の接頭辞。
	CookiePrefix string
	// SecureCookies はリレーするCookieに常にSecure属性を付けるか（本番環境）。
	SecureCookies bool
	// Timeout はIDサービス呼び出しのタイムアウト。
	Timeout time.Duration
}

// Gateway はIDサービスとのやり取りをまとめる。
// 起動時に1度生成し、すべてのハンドラで共有する。
type Gateway struct {
	// identityURL はIDサービスのベースURL。
	identityURL string
	// httpClient はIDサービスへの直接呼び出しに使うHTTPクライアント。
	httpClient *http.Client
	// cache は現在のセッション問い合わせのキャッシュ。
	cache *sessioncache.Cache[SessionEnvelope]
	// cookiePrefix はセッション関連Cookieの接頭辞。
	cookiePrefix string
	// secureCookies はSecure属性を強制するか。
	secureCookies bool
	// recorder は監査イベントの記録先。nilの場合は記録しない。
	recorder Recorder
	// logger は握りつぶした失敗を記録する。
	logger *zap.Logger
}

// New は新しいGatewayを生成する。
func New(cfg Config, cache *sessioncache.Cache[SessionEnvelope], recorder Recorder, logger *zap.Logger) *Gateway {
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = DefaultIdentityURL
	}
	if cfg.CookiePrefix == "" {
		cfg.CookiePrefix = DefaultCookiePrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		identityURL:   strings.TrimRight(cfg.IdentityURL, "/"),
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		cache:         cache,
		cookiePrefix:  cfg.CookiePrefix,
		secureCookies: cfg.SecureCookies,
		recorder:      recorder,
		logger:        logger,
	}
}

// credentialFlow はLoginとSignupの差分。
type credentialFlow struct {
	path      string
	subject   string
	body      any
	fallback  string
	succeeded event.Type
	failed    event.Type
}

// Login はユーザー名とパスワードでサインインし、セッションCookieをストアへリレーする。
// 成功時は/dashboardへのリダイレクトを返す。
func (g *Gateway) Login(ctx context.Context, store cookiestore.Store, username, password string) Outcome {
	if username == "" || password == "" {
		g.record(ctx, event.TypeLoginFailed, username, event.FailureData{
			Reason:  event.ReasonValidation,
			Message: MessageCredentialsRequired,
		})
		return Failure(MessageCredentialsRequired)
	}

	return g.authenticate(ctx, store, credentialFlow{
		path:    PathSignIn,
		subject: username,
		body: map[string]string{
			"username": username,
			"password": password,
		},
		fallback:  MessageLoginFailed,
		succeeded: event.TypeLoginSucceeded,
		failed:    event.TypeLoginFailed,
	})
}

// Signup はアカウントを登録し、セッションCookieをストアへリレーする。
// nameは任意。
func (g *Gateway) Signup(ctx context.Context, store cookiestore.Store, email, password, name string) Outcome {
	if email == "" || password == "" {
		g.record(ctx, event.TypeSignupFailed, email, event.FailureData{
			Reason:  event.ReasonValidation,
			Message: MessageSignupFieldsMissing,
		})
		return Failure(MessageSignupFieldsMissing)
	}

	return g.authenticate(ctx, store, credentialFlow{
		path:    PathSignUp,
		subject: email,
		body: map[string]string{
			"email":    email,
			"password": password,
			"name":     name,
		},
		fallback:  MessageSignupFailed,
		succeeded: event.TypeSignupSucceeded,
		failed:    event.TypeSignupFailed,
	})
}

// authenticate はIDサービスに資格情報を送り、成功時にCookieをリレーする。
// すべてのCookieを書き込んでからリダイレクトを返す。
func (g *Gateway) authenticate(ctx context.Context, store cookiestore.Store, flow credentialFlow) Outcome {
	unexpected := func(err error) Outcome {
		g.logger.Error("IDサービスとの通信に失敗",
			zap.String("path", flow.path), zap.Error(err))
		g.record(ctx, flow.failed, flow.subject, event.FailureData{
			Reason:  event.ReasonTransport,
			Message: MessageUnexpected,
			Detail:  err.Error(),
		})
		return Failure(MessageUnexpected)
	}

	payload, err := json.Marshal(flow.body)
	if err != nil {
		return unexpected(fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.identityURL+flow.path, bytes.NewReader(payload))
	if err != nil {
		return unexpected(fmt.Errorf("HTTPリクエストの作成に失敗: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return unexpected(fmt.Errorf("HTTPリクエストの送信に失敗: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return unexpected(fmt.Errorf("エラーレスポンスのデシリアライズに失敗: status=%d: %w", resp.StatusCode, err))
		}
		message := body.Message
		if message == "" {
			message = flow.fallback
		}
		g.record(ctx, flow.failed, flow.subject, event.FailureData{
			Reason:  event.ReasonUpstream,
			Message: message,
			Status:  resp.StatusCode,
		})
		return Failure(message)
	}

	cookies, err := setcookie.FromHeader(resp.Header)
	if err != nil {
		return unexpected(fmt.Errorf("Set-Cookieヘッダーの解析に失敗: %w", err))
	}
	relayed := g.relay(store, cookies)

	g.record(ctx, flow.succeeded, flow.subject, event.SessionData{Cookies: relayed})
	return Redirect(TargetDashboard)
}

// relay はIDサービスのCookieをストアに書き込み、書き込んだCookie名を返す。
func (g *Gateway) relay(store cookiestore.Store, cookies []setcookie.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		out := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			HttpOnly: c.Flag(setcookie.AttrHTTPOnly),
			Secure:   g.secureCookies || c.Flag(setcookie.AttrSecure),
			SameSite: sameSite(c),
			Path:     "/",
		}
		if path, ok := c.Attr(setcookie.AttrPath); ok && path != "" {
			out.Path = path
		}
		if raw, ok := c.Attr(setcookie.AttrMaxAge); ok {
			if maxAge, err := strconv.Atoi(raw); err == nil {
				if maxAge <= 0 {
					// net/httpでは負の値が Max-Age=0 を表す
					out.MaxAge = -1
				} else {
					out.MaxAge = maxAge
				}
			}
		}
		store.Set(out)
		names = append(names, c.Name)
	}
	return names
}

// sameSite はSameSite属性を変換する。未指定・不明な値はLax。
func sameSite(c setcookie.Cookie) http.SameSite {
	v, _ := c.Attr(setcookie.AttrSameSite)
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Logout はIDサービスへのサインアウトを試み、結果に関わらず
// 予約接頭辞のCookieを削除してセッションキャッシュを無効化する。
// 常に/へのリダイレクトを返す。
func (g *Gateway) Logout(ctx context.Context, store cookiestore.Store) Outcome {
	if err := g.signOut(ctx, store.Header()); err != nil {
		g.logger.Warn("IDサービスへのサインアウトに失敗", zap.Error(err))
		g.record(ctx, event.TypeSignOutFailed, "", event.FailureData{
			Reason: event.ReasonTransport,
			Detail: err.Error(),
		})
	}

	var cleared []string
	for _, c := range store.All() {
		if !strings.HasPrefix(c.Name, g.cookiePrefix) {
			continue
		}
		store.Set(&http.Cookie{Name: c.Name, Value: "", Path: "/", MaxAge: -1})
		cleared = append(cleared, c.Name)
	}

	if err := g.cache.Invalidate(ctx); err != nil {
		g.logger.Warn("セッションキャッシュの無効化に失敗", zap.Error(err))
	}

	g.record(ctx, event.TypeLogoutCompleted, "", event.SessionData{Cleared: cleared})
	return Redirect(TargetHome)
}

// signOut はクライアントのCookieを転送してサインアウトを通知する。
func (g *Gateway) signOut(ctx context.Context, cookieHeader string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.identityURL+PathSignOut, nil)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTPエラー: status=%d", resp.StatusCode)
	}
	return nil
}

// GetSession は現在のセッションを返す。無い場合はnil。
// 結果はクライアントのCookieごとにキャッシュされる。
func (g *Gateway) GetSession(ctx context.Context, store cookiestore.Store) *SessionEnvelope {
	cookieHeader := store.Header()
	env := g.cache.Get(ctx, sessioncache.Key(cookieHeader), func(ctx context.Context) (*SessionEnvelope, error) {
		return g.fetchSession(ctx, cookieHeader)
	})
	if !env.complete() {
		return nil
	}
	return env
}

// fetchSession はIDサービスに現在のセッションを問い合わせる。
// 非2xxやセッションを含まない応答はnilを返す。
func (g *Gateway) fetchSession(ctx context.Context, cookieHeader string) (*SessionEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.identityURL+PathGetSession, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.record(ctx, event.TypeSessionLookupFailed, "", event.FailureData{
			Reason: event.ReasonTransport,
			Detail: err.Error(),
		})
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil
	}

	var env *SessionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("セッションのデシリアライズに失敗: %w", err)
	}
	if !env.complete() {
		return nil, nil
	}
	return env, nil
}

// RequireAuth は保護されたリソースのガード。
// セッションがあればSuccess、無ければ/loginへのリダイレクトを返す。
func (g *Gateway) RequireAuth(ctx context.Context, store cookiestore.Store) Outcome {
	env := g.GetSession(ctx, store)
	if env == nil {
		return Redirect(TargetLogin)
	}
	return Success(env)
}

// GetUser は現在のユーザーを返す。セッションが無い場合はnil。
func (g *Gateway) GetUser(ctx context.Context, store cookiestore.Store) *User {
	env := g.GetSession(ctx, store)
	if env == nil {
		return nil
	}
	return env.User
}

// record は監査イベントを記録する。失敗はログに残すだけで呼び出し元には返さない。
func (g *Gateway) record(ctx context.Context, eventType event.Type, subject string, data any) {
	if g.recorder == nil {
		return
	}
	e, err := event.New(eventType, subject, data)
	if err != nil {
		g.logger.Warn("監査イベントの生成に失敗", zap.String("type", string(eventType)), zap.Error(err))
		return
	}
	if err := g.recorder.Record(ctx, e); err != nil {
		g.logger.Warn("監査イベントの記録に失敗", zap.String("type", string(eventType)), zap.Error(err))
	}
}
