// Package config はwebサービスの設定を環境変数（と任意の設定ファイル）から読み込む。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvProduction はAPP_ENVの本番環境を表す値。
const EnvProduction = "production"

// Config はwebサービスの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `mapstructure:"port"`
	// AuthAPIURL はIDサービスのベースURL。
	AuthAPIURL string `mapstructure:"auth_api_url"`
	// APIURL はCookieを転送するバックエンドAPIのベースURL。空の場合はプロキシを無効にする。
	APIURL string `mapstructure:"api_url"`
	// CMSAPIURL はサービストークンで呼び出すCMSのベースURL。空の場合はAPIURLを使う。
	CMSAPIURL string `mapstructure:"cms_api_url"`
	// CMSAccessToken はCMS呼び出し用の静的トークン。
	CMSAccessToken string `mapstructure:"cms_access_token"`
	// AppEnv は実行環境（production等）。
	AppEnv string `mapstructure:"app_env"`
	// SessionCookiePrefix はログアウト時に削除するCookie名の接頭辞。
	SessionCookiePrefix string `mapstructure:"session_cookie_prefix"`
	// SessionCacheTTL はセッション問い合わせのキャッシュ有効期間。
	SessionCacheTTL time.Duration `mapstructure:"session_cache_ttl"`
	// RedisAddr は共有キャッシュのRedisアドレス。空の場合はプロセス内キャッシュを使う。
	RedisAddr string `mapstructure:"redis_addr"`
	// RedisPassword はRedisのパスワード。
	RedisPassword string `mapstructure:"redis_password"`
	// AuditDBPath は認証監査ログのSQLiteファイルパス。
	AuditDBPath string `mapstructure:"audit_db_path"`
	// FrontendURL はCORSで許可するフロントエンドのオリジン。
	FrontendURL string `mapstructure:"frontend_url"`
	// ServiceJWTSecret はサービス間JWTの署名鍵。
	ServiceJWTSecret string `mapstructure:"service_jwt_secret"`
	// RequestTimeout は外部サービス呼び出しのタイムアウト。
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// defaults は各設定キーのデフォルト値。
var defaults = map[string]any{
	"port":                  "8080",
	"auth_api_url":          "http://localhost:3001",
	"api_url":               "",
	"cms_api_url":           "",
	"cms_access_token":      "",
	"app_env":               "development",
	"session_cookie_prefix": "better-auth",
	"session_cache_ttl":     "30s",
	"redis_addr":            "",
	"redis_password":        "",
	"audit_db_path":         "/data/web.db",
	"frontend_url":          "http://localhost:3000",
	"service_jwt_secret":    "dev-secret-key",
	"request_timeout":       "30s",
}

// Load は環境変数から設定を読み込む。
// CONFIG_FILEが指定されている場合はそのファイルを読み込み、環境変数で上書きする。
func Load() (*Config, error) {
	return load(viper.New())
}

// load は渡されたviperインスタンスで設定を読み込む。
func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("環境変数のバインドに失敗: %w", err)
	}
	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定のデコードに失敗: %w", err)
	}
	if cfg.CMSAPIURL == "" {
		cfg.CMSAPIURL = cfg.APIURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値の妥当性を検証する。
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORTが空です"))
	}
	if c.AuthAPIURL == "" {
		errs = append(errs, errors.New("AUTH_API_URLが空です"))
	}
	for name, raw := range map[string]string{
		"AUTH_API_URL": c.AuthAPIURL,
		"API_URL":      c.APIURL,
		"CMS_API_URL":  c.CMSAPIURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%sが不正なURLです: %q", name, raw))
		}
	}
	if c.SessionCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_CACHE_TTLは正の値である必要があります: %s", c.SessionCacheTTL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUTは正の値である必要があります: %s", c.RequestTimeout))
	}
	if c.ServiceJWTSecret == "" {
		errs = append(errs, errors.New("SERVICE_JWT_SECRETが空です"))
	}
	return errors.Join(errs...)
}

// Production は本番環境かを返す。本番ではリレーするCookieに常にSecure属性を付ける。
func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}
