package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestLoad はLoad関数を検証する。t.Setenvを使うため並列実行しない。
func TestLoad(t *testing.T) {
	t.Run("環境変数が無い場合はデフォルト値になること", func(t *testing.T) {
		got, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}

		want := &Config{
			Port:                "8080",
			AuthAPIURL:          "http://localhost:3001",
			AppEnv:              "development",
			SessionCookiePrefix: "better-auth",
			SessionCacheTTL:     30 * time.Second,
			AuditDBPath:         "/data/web.db",
			FrontendURL:         "http://localhost:3000",
			ServiceJWTSecret:    "dev-secret-key",
			RequestTimeout:      30 * time.Second,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
		if got.Production() {
			t.Error("デフォルトで本番環境と判定された")
		}
	})

	t.Run("環境変数で上書きできること", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("AUTH_API_URL", "http://auth:3001")
		t.Setenv("API_URL", "http://api:4000")
		t.Setenv("APP_ENV", "production")
		t.Setenv("SESSION_CACHE_TTL", "45s")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("REQUEST_TIMEOUT", "5s")

		got, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if got.Port != "9090" || got.AuthAPIURL != "http://auth:3001" || got.RedisAddr != "redis:6379" {
			t.Errorf("got %+v", got)
		}
		if got.SessionCacheTTL != 45*time.Second || got.RequestTimeout != 5*time.Second {
			t.Errorf("durations = %s, %s", got.SessionCacheTTL, got.RequestTimeout)
		}
		if !got.Production() {
			t.Error("APP_ENV=productionで本番環境と判定されない")
		}
	})

	t.Run("CMS_API_URLが未指定の場合はAPI_URLを使うこと", func(t *testing.T) {
		t.Setenv("API_URL", "http://api:4000")

		got, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if got.CMSAPIURL != "http://api:4000" {
			t.Errorf("CMSAPIURL = %q, want %q", got.CMSAPIURL, "http://api:4000")
		}
	})

	t.Run("設定ファイルを読み込み環境変数が優先されること", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "web.yaml")
		content := "port: \"7070\"\nfrontend_url: https://bar.example.com\ncms_access_token: from-file\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("設定ファイルの作成に失敗: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("CMS_ACCESS_TOKEN", "from-env")

		got, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if got.Port != "7070" || got.FrontendURL != "https://bar.example.com" {
			t.Errorf("got %+v", got)
		}
		if got.CMSAccessToken != "from-env" {
			t.Errorf("CMSAccessToken = %q, want from-env", got.CMSAccessToken)
		}
	})

	t.Run("不正な値はエラーになること", func(t *testing.T) {
		t.Setenv("AUTH_API_URL", "not a url")
		t.Setenv("SESSION_CACHE_TTL", "0s")

		_, err := Load()
		if err == nil {
			t.Fatal("Load()がエラーを返すべきだが、nilが返った")
		}
		for _, want := range []string{"AUTH_API_URL", "SESSION_CACHE_TTL"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error = %v, want mention of %s", err, want)
			}
		}
	})
}
