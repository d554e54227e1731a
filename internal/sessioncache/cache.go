package sessioncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	// TagSession は現在のセッション問い合わせに使うタグ。
	TagSession = "session"
	// DefaultTTL はエントリのデフォルト有効期間。
	DefaultTTL = 30 * time.Second
)

// Fetcher はキャッシュミス時に値を取得する関数。nilは「値なし」を表す。
type Fetcher[V any] func(ctx context.Context) (*V, error)

// Cache は1つのタグに属する値を型付きで読み書きするリードスルーキャッシュ。
// 同時にミスした呼び出しはそれぞれFetcherを呼ぶ（後勝ち）。
type Cache[V any] struct {
	// store はエントリの保存先。
	store Store
	// tag はこのキャッシュが使うタグ。
	tag string
	// ttl はエントリの有効期間。
	ttl time.Duration
	// logger は保存先やFetcherの失敗を記録する。
	logger *zap.Logger
}

// New はタグに紐づくCacheを生成する。ttlが0以下の場合はDefaultTTLを使う。
func New[V any](store Store, tag string, ttl time.Duration, logger *zap.Logger) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[V]{store: store, tag: tag, ttl: ttl, logger: logger}
}

// Tag はこのキャッシュのタグを返す。
func (c *Cache[V]) Tag() string {
	return c.tag
}

// Get はTTL内のエントリがあればその値を返し、無ければfetchを呼んで結果を保存する。
// 値なし（nil）も保存する。fetchが失敗した場合は値なしとして保存し、エラーは返さない。
// 呼び出し元のコンテキストが終了している場合は失敗を保存しない。
func (c *Cache[V]) Get(ctx context.Context, key string, fetch Fetcher[V]) *V {
	if raw, ok, err := c.store.Load(ctx, c.tag, key); err != nil {
		c.logger.Warn("キャッシュの読み込みに失敗", zap.String("tag", c.tag), zap.Error(err))
	} else if ok {
		var v *V
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
		c.logger.Warn("キャッシュエントリの復元に失敗", zap.String("tag", c.tag))
	}

	v, err := fetch(ctx)
	if err != nil {
		c.logger.Warn("キャッシュ対象の取得に失敗", zap.String("tag", c.tag), zap.Error(err))
		if ctx.Err() != nil {
			return nil
		}
		v = nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("キャッシュエントリのシリアライズに失敗", zap.String("tag", c.tag), zap.Error(err))
		return v
	}
	if err := c.store.Save(ctx, c.tag, key, raw, c.ttl); err != nil {
		c.logger.Warn("キャッシュの保存に失敗", zap.String("tag", c.tag), zap.Error(err))
	}
	return v
}

// Invalidate はこのキャッシュのタグに属するエントリをすべて破棄する。
func (c *Cache[V]) Invalidate(ctx context.Context) error {
	return c.store.Invalidate(ctx, c.tag)
}

// Key は認証情報（Cookieヘッダー等）からキャッシュキーを導出する。
// 保存先には認証情報のSHA-256ハッシュだけが残る。
func Key(credentials string) string {
	sum := sha256.Sum256([]byte(credentials))
	return hex.EncodeToString(sum[:])
}
