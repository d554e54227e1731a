package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/barmanager/internal/auth"
	"github.com/nao1215/barmanager/pkg/cookiestore"
)

// loginForm はログインフォームの入力。
type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// signupForm は登録フォームの入力。
type signupForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
}

// respond はOutcomeをHTTPレスポンスに変換する。
// リダイレクトは303、失敗は400でフォームに表示するメッセージを返す。
func respond(c *gin.Context, o auth.Outcome) {
	switch o.Kind {
	case auth.OutcomeRedirect:
		c.Redirect(http.StatusSeeOther, o.Target)
	case auth.OutcomeFailure:
		c.JSON(http.StatusBadRequest, gin.H{"error": o.Message})
	case auth.OutcomeSuccess:
		c.JSON(http.StatusOK, o.Session)
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": auth.MessageUnexpected})
	}
}

// handleLoginPage はログインページのハンドラを返す。
// 認証済みのクライアントは/dashboardへリダイレクトする。
func (s *Server) handleLoginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := cookiestore.NewRequestStore(c.Writer, c.Request)
		if s.gateway.GetSession(c.Request.Context(), store) != nil {
			c.Redirect(http.StatusSeeOther, auth.TargetDashboard)
			return
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
	}
}

// handleLogin はログインフォームの送信を処理するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var form loginForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": auth.MessageCredentialsRequired})
			return
		}
		store := cookiestore.NewRequestStore(c.Writer, c.Request)
		respond(c, s.gateway.Login(c.Request.Context(), store, form.Username, form.Password))
	}
}

// handleSignup は登録フォームの送信を処理するハンドラを返す。
func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var form signupForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": auth.MessageSignupFieldsMissing})
			return
		}
		store := cookiestore.NewRequestStore(c.Writer, c.Request)
		respond(c, s.gateway.Signup(c.Request.Context(), store, form.Email, form.Password, form.Name))
	}
}

// handleLogout はログアウトを処理するハンドラを返す。常に/へリダイレクトする。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := cookiestore.NewRequestStore(c.Writer, c.Request)
		respond(c, s.gateway.Logout(c.Request.Context(), store))
	}
}

// handleGetSession は現在のセッションを返すハンドラを返す。
// セッションが無い場合はnullを返す。
func (s *Server) handleGetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		store := cookiestore.NewRequestStore(c.Writer, c.Request)
		env := s.gateway.GetSession(c.Request.Context(), store)
		if env == nil {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusOK, env)
	}
}

// handleDashboard はダッシュボードのハンドラを返す。
func (s *Server) handleDashboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		env := sessionFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"user":      env.User,
			"expiresAt": env.Session.ExpiresAt,
		})
	}
}

// handleAccount は現在のユーザー情報を返すハンドラを返す。
func (s *Server) handleAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.gateway.GetUser(c.Request.Context(), cookieStoreFrom(c))
		if user == nil {
			c.Redirect(http.StatusSeeOther, auth.TargetLogin)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
