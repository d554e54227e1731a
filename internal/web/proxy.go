package web

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/barmanager/pkg/httpclient"
	"github.com/nao1215/barmanager/pkg/middleware"
)

const (
	// serviceName はサービストークンのSubjectに使うこのサービスの名前。
	serviceName = "web"
	// serviceTokenTTL は都度発行するサービストークンの有効期間。
	serviceTokenTTL = 5 * time.Minute
	// maxProxyBody はプロキシで受け付けるリクエストボディの上限。
	maxProxyBody = 10 << 20
)

// mintedToken はリクエストごとにサービストークンを発行して付与するAuthenticator。
type mintedToken struct {
	// secret はサービス間JWTの署名鍵。
	secret string
	// logger は署名の失敗を記録する。
	logger *zap.Logger
}

// Authenticate は新しいサービストークンをAuthorizationヘッダーに設定する。
func (m mintedToken) Authenticate(req *http.Request) {
	token, err := middleware.GenerateJWT(m.secret, serviceName, serviceTokenTTL)
	if err != nil {
		m.logger.Warn("サービストークンの発行に失敗", zap.Error(err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// cmsAuthenticator はCMSクライアントの認証方式を返す。
// 静的トークンが設定されていればそれを使い、無ければサービストークンを都度発行する。
func (s *Server) cmsAuthenticator(staticToken string) httpclient.Authenticator {
	if staticToken != "" {
		return httpclient.BearerToken(staticToken)
	}
	return mintedToken{secret: s.jwtSecret, logger: s.logger}
}

// handleProxy はリクエストをclientの接続先へ転送するハンドラを返す。
// ワイルドカード部分のパスとクエリをそのまま引き継ぐ。
func (s *Server) handleProxy(client *httpclient.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "接続先が設定されていません"})
			return
		}

		endpoint := proxyEndpoint(c.Param("path"))
		opts := []httpclient.RequestOption{
			httpclient.WithParams(firstValues(c.Request.URL.Query())),
		}
		if id := middleware.GetRequestID(c); id != "" {
			opts = append(opts, httpclient.WithHeader(middleware.HeaderRequestID, id))
		}

		ctx := c.Request.Context()
		var resp *httpclient.Response
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			resp = client.Get(ctx, endpoint, opts...)
		case http.MethodDelete:
			resp = client.Delete(ctx, endpoint, opts...)
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			body, ok := readJSONBody(c)
			if !ok {
				return
			}
			switch c.Request.Method {
			case http.MethodPost:
				resp = client.Post(ctx, endpoint, body, opts...)
			case http.MethodPut:
				resp = client.Put(ctx, endpoint, body, opts...)
			default:
				resp = client.Patch(ctx, endpoint, body, opts...)
			}
		default:
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "サポートされていないメソッドです"})
			return
		}

		s.writeProxyResponse(c, endpoint, resp)
	}
}

// handleUpload はmultipartで受け取ったファイルをバックエンドへアップロードするハンドラを返す。
// ファイル以外のフォーム値は追加フィールドとして転送する。
func (s *Server) handleUpload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.api == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "接続先が設定されていません"})
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fileフィールドが必要です"})
			return
		}
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルの読み込みに失敗しました"})
			return
		}
		defer file.Close()

		fields := map[string]string{}
		if form, err := c.MultipartForm(); err == nil {
			for k, values := range form.Value {
				if len(values) > 0 {
					fields[k] = values[0]
				}
			}
		}

		endpoint := "/uploads"
		resp := s.api.Upload(c.Request.Context(), endpoint, httpclient.File{
			Filename: header.Filename,
			Content:  file,
		}, fields)
		s.writeProxyResponse(c, endpoint, resp)
	}
}

// writeProxyResponse は正規化されたレスポンスをクライアントに返す。
// 通信失敗（ステータス0）は502に変換する。
func (s *Server) writeProxyResponse(c *gin.Context, endpoint string, resp *httpclient.Response) {
	if resp.Status == 0 {
		s.logger.Warn("バックエンドとの通信に失敗",
			zap.String("endpoint", endpoint),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(resp.Cause))
		c.JSON(http.StatusBadGateway, gin.H{"error": resp.Error})
		return
	}
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Data)
}

// readJSONBody はリクエストボディをJSONとして読み込む。空の場合はnilを返す。
// 不正な場合は400を書き込んでfalseを返す。
func readJSONBody(c *gin.Context) (any, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProxyBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディの読み込みに失敗しました"})
		return nil, false
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, true
	}
	if !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディがJSONではありません"})
		return nil, false
	}
	return json.RawMessage(raw), true
}

// proxyEndpoint はワイルドカード部分を接続先内の絶対パスに正規化する。
// 先頭のスラッシュを1つにまとめ、"//host" による接続先の切り替えや".."を取り除く。
func proxyEndpoint(p string) string {
	return path.Clean("/" + strings.TrimLeft(p, "/"))
}

// firstValues はクエリの各キーの最初の値を取り出す。
func firstValues(q map[string][]string) map[string]string {
	out := make(map[string]string, len(q))
	for k, values := range q {
		if len(values) > 0 {
			out[k] = values[0]
		}
	}
	return out
}
