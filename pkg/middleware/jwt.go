package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ServiceClaims はサービス間通信用JWTのクレーム。
// 呼び出し元サービス名をSubjectに持つ。
type ServiceClaims struct {
	jwt.RegisteredClaims
}

const (
	// tokenIssuer はこのサービスが発行するトークンの発行者。
	tokenIssuer = "barmanager-web"
	// DefaultTokenTTL はサービストークンのデフォルト有効期間。
	DefaultTokenTTL = time.Hour
	// contextKeyService はGinコンテキストに呼び出し元サービス名を格納するキー。
	contextKeyService = "service"
)

// GenerateJWT はサービス間通信用のJWTトークンを生成する。
// ttlが0以下の場合はDefaultTokenTTLを使う。
func GenerateJWT(secret, service string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth はサービストークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに呼び出し元サービス名を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &ServiceClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set(contextKeyService, claims.Subject)
		c.Next()
	}
}

// GetService はGinコンテキストから呼び出し元サービス名を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetService(c *gin.Context) string {
	service, _ := c.Get(contextKeyService)
	if s, ok := service.(string); ok {
		return s
	}
	return ""
}
