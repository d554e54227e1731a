package httpclient

import (
	"context"
	"net/http"

	"github.com/nao1215/barmanager/pkg/cookiestore"
)

// Authenticator はリクエストに認証情報を付与する方式。
// 1つのクライアントにつき1つの方式だけが有効になる。
type Authenticator interface {
	// Authenticate はリクエストヘッダーに認証情報を設定する。
	Authenticate(req *http.Request)
}

// bearerToken は静的なBearerトークンを付与する方式。
type bearerToken struct {
	// token は設定から読み込んだサービス用トークン。
	token string
}

// BearerToken はサービス間通信用の静的トークンを付与するAuthenticatorを返す。
// トークンが空の場合は何も付与しない。
func BearerToken(token string) Authenticator {
	return bearerToken{token: token}
}

// Authenticate はAuthorizationヘッダーを設定する。
func (b bearerToken) Authenticate(req *http.Request) {
	if b.token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
}

// forwardCookies はコンテキストのCookieをそのまま転送する方式。
type forwardCookies struct{}

// ForwardCookies はWithCookiesで設定されたクライアントのCookieを
// Cookieヘッダーとして転送するAuthenticatorを返す。
func ForwardCookies() Authenticator {
	return forwardCookies{}
}

// Authenticate はコンテキストのCookieストアからCookieヘッダーを設定する。
func (forwardCookies) Authenticate(req *http.Request) {
	store, ok := req.Context().Value(contextKeyCookies).(cookiestore.Store)
	if !ok || store == nil {
		return
	}
	if header := store.Header(); header != "" {
		req.Header.Set("Cookie", header)
	}
}

// contextKey はコンテキストキーの型。
type contextKey string

const (
	// contextKeyUserID はコンテキストにユーザーIDを格納するためのキー。
	contextKeyUserID contextKey = "user_id"
	// contextKeyCookies はコンテキストにCookieストアを格納するためのキー。
	contextKeyCookies contextKey = "cookies"
)

// WithUserID はコンテキストにユーザーIDを設定する。
// バックエンド呼び出し時にX-User-IDヘッダーとして伝播される。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// WithCookies はコンテキストにクライアントのCookieストアを設定する。
// ForwardCookiesを使うクライアントはこのストアのCookieを転送する。
func WithCookies(ctx context.Context, store cookiestore.Store) context.Context {
	return context.WithValue(ctx, contextKeyCookies, store)
}
