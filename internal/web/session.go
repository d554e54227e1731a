package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/barmanager/internal/auth"
	"github.com/nao1215/barmanager/pkg/cookiestore"
	"github.com/nao1215/barmanager/pkg/httpclient"
)

// Ginコンテキストのキー。
const (
	contextKeySession = "session"
	contextKeyCookies = "cookies"
)

// requireSession はリクエストごとにセッションを確認するGinミドルウェアを返す。
// redirectがtrueの場合は未認証を/loginへリダイレクトし、falseの場合は401を返す。
// 認証済みの場合はセッションとCookieストアをコンテキストに設定し、
// バックエンド呼び出しにCookieとユーザーIDが伝播するようにする。
func (s *Server) requireSession(redirect bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := cookiestore.NewRequestStore(c.Writer, c.Request)
		outcome := s.gateway.RequireAuth(c.Request.Context(), store)
		if outcome.IsRedirect() {
			if redirect {
				c.Redirect(http.StatusSeeOther, outcome.Target)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "認証が必要です"})
			return
		}

		ctx := httpclient.WithCookies(c.Request.Context(), store)
		ctx = httpclient.WithUserID(ctx, outcome.Session.User.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKeySession, outcome.Session)
		c.Set(contextKeyCookies, store)
		c.Next()
	}
}

// sessionFrom はrequireSessionが設定したセッションを返す。
func sessionFrom(c *gin.Context) *auth.SessionEnvelope {
	v, _ := c.Get(contextKeySession)
	env, _ := v.(*auth.SessionEnvelope)
	return env
}

// cookieStoreFrom はrequireSessionが設定したCookieストアを返す。
// 設定されていない場合はリクエストから新たに生成する。
func cookieStoreFrom(c *gin.Context) cookiestore.Store {
	if v, ok := c.Get(contextKeyCookies); ok {
		if store, ok := v.(cookiestore.Store); ok {
			return store
		}
	}
	return cookiestore.NewRequestStore(c.Writer, c.Request)
}
