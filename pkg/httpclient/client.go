package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"time"
)

const (
	// defaultTimeout はリクエストのデフォルトタイムアウト。
	defaultTimeout = 30 * time.Second
	// messageNetworkError は通信失敗時のエラーメッセージ。
	messageNetworkError = "Network error"
	// messageRequestFailed はエラーボディにmessageが無い場合のエラーメッセージ。
	messageRequestFailed = "Request failed"
)

// Client はバックエンドサービス用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
	// auth は認証情報の付与方式。
	auth Authenticator
	// timeout はWithTimeoutで指定されたタイムアウト。0の場合は変更しない。
	timeout time.Duration
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTimeout はリクエストのタイムアウトを設定する。
// WithHTTPClientで渡したクライアントは変更せず、複製に適用する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New は新しいHTTPクライアントを生成する。
// baseURLには接続先のベースURL（例: "http://api:8080"）を指定する。
// authがnilの場合は認証情報を付与しない。
func New(baseURL string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = BearerToken("")
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: baseURL,
		auth:    auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Response はすべての呼び出し結果を正規化した値。
type Response struct {
	// Data はJSONレスポンスボディ。通信失敗時は空オブジェクト。
	Data json.RawMessage `json:"data"`
	// Status はHTTPステータスコード。通信失敗時は0。
	Status int `json:"status"`
	// Error はステータスが0または非2xxの場合のエラーメッセージ。
	Error string `json:"error,omitempty"`
	// Cause は通信失敗の原因。
	Cause error `json:"-"`
}

// OK はステータスが2xxかつエラーが無いかを返す。
func (r *Response) OK() bool {
	return r.Error == "" && r.Status >= 200 && r.Status < 300
}

// DecodeData はResponseのDataを指定された型にデシリアライズする。
func DecodeData[T any](r *Response) (*T, error) {
	var data T
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, fmt.Errorf("レスポンスデータのデシリアライズに失敗: %w", err)
	}
	return &data, nil
}

// requestConfig は1回のリクエストの追加設定。
type requestConfig struct {
	// params はURLに追加するクエリパラメータ。
	params map[string]string
	// headers は追加・上書きするリクエストヘッダー。
	headers http.Header
}

// RequestOption はリクエスト単位の設定を変更する関数。
type RequestOption func(*requestConfig)

// WithParams はURLにクエリパラメータを追加する。
func WithParams(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		if rc.params == nil {
			rc.params = make(map[string]string, len(params))
		}
		for k, v := range params {
			rc.params[k] = v
		}
	}
}

// WithHeader はリクエストヘッダーを設定する。デフォルトと認証ヘッダーより優先される。
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.headers == nil {
			rc.headers = http.Header{}
		}
		rc.headers.Set(key, value)
	}
}

// Get はGETリクエストを送信する。
func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) *Response {
	return c.doJSON(ctx, http.MethodGet, endpoint, nil, opts)
}

// Post はJSONボディでPOSTリクエストを送信する。bodyがnilの場合はボディを送らない。
func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) *Response {
	return c.doJSON(ctx, http.MethodPost, endpoint, body, opts)
}

// Put はJSONボディでPUTリクエストを送信する。
func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) *Response {
	return c.doJSON(ctx, http.MethodPut, endpoint, body, opts)
}

// Patch はJSONボディでPATCHリクエストを送信する。
func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) *Response {
	return c.doJSON(ctx, http.MethodPatch, endpoint, body, opts)
}

// Delete はDELETEリクエストを送信する。
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) *Response {
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, opts)
}

// File はUploadで送信するファイル。
type File struct {
	// Filename はmultipartに記載するファイル名。
	Filename string
	// Content はファイルの内容。
	Content io.Reader
}

// Upload はファイルと追加フィールドをmultipart/form-dataでPOSTする。
// Content-Typeはmultipartのboundaryを含む値が自動的に設定される。
func (c *Client) Upload(ctx context.Context, endpoint string, file File, fields map[string]string, opts ...RequestOption) *Response {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", file.Filename)
	if err != nil {
		return transportFailure(fmt.Errorf("multipartの作成に失敗: %w", err))
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return transportFailure(fmt.Errorf("ファイルの読み込みに失敗: %w", err))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return transportFailure(fmt.Errorf("フィールド %s の書き込みに失敗: %w", k, err))
		}
	}
	if err := mw.Close(); err != nil {
		return transportFailure(fmt.Errorf("multipartの終端に失敗: %w", err))
	}

	return c.do(ctx, http.MethodPost, endpoint, &buf, mw.FormDataContentType(), opts)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, opts []RequestOption) *Response {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return transportFailure(fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err))
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	return c.do(ctx, method, endpoint, bodyReader, "application/json", opts)
}

// do はリクエストを組み立てて送信し、結果をResponseに正規化する。
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, opts []RequestOption) *Response {
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	target, err := c.buildURL(endpoint, rc.params)
	if err != nil {
		return transportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return transportFailure(fmt.Errorf("HTTPリクエストの作成に失敗: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	c.auth.Authenticate(req)

	// コンテキストからユーザーIDを伝播する
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok && userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	for k, values := range rc.headers {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(fmt.Errorf("HTTPリクエストの送信に失敗: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(fmt.Errorf("レスポンスボディの読み込みに失敗: %w", err))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		return transportFailure(errors.New("レスポンスボディがJSONではありません"))
	}

	result := &Response{Data: raw, Status: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = errorMessage(raw)
	}
	return result
}

// ErrForeignHost は解決したURLがベースURLと異なる接続先を指す場合のエラー。
var ErrForeignHost = errors.New("エンドポイントがベースURL以外の接続先を指しています")

// buildURL はベースURLに対してendpointを解決し、クエリパラメータを追加する。
// "//host/..." や絶対URLで接続先が変わる場合はErrForeignHostを返す。
func (c *Client) buildURL(endpoint string, params map[string]string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("ベースURLの解析に失敗: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("エンドポイントの解析に失敗: %w", err)
	}

	u := base.ResolveReference(ref)
	if u.Scheme != base.Scheme || u.Host != base.Host {
		return "", fmt.Errorf("%w: %s", ErrForeignHost, endpoint)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Add(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// errorMessage はエラーボディのmessageフィールドを取り出す。
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return messageRequestFailed
	}
	return body.Message
}

// transportFailure は通信失敗を表すResponseを返す。
func transportFailure(err error) *Response {
	return &Response{
		Data:   json.RawMessage("{}"),
		Status: 0,
		Error:  messageNetworkError,
		Cause:  err,
	}
}
