package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore は複数のwebインスタンスでキャッシュを共有するためのStore。
// 各エントリはSET EXで保存し、タグごとのSETでキーを索引する。
type RedisStore struct {
	// client はRedisクライアント。
	client *redis.Client
	// prefix はキーの接頭辞。
	prefix string
}

// NewRedisStore はRedisを使うStoreを生成する。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "barmanager:cache"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) entryKey(tag, key string) string {
	return r.prefix + ":" + tag + ":" + key
}

func (r *RedisStore) tagKey(tag string) string {
	return r.prefix + ":tag:" + tag
}

// Load はエントリを取得する。TTLはRedisのキー期限で管理される。
func (r *RedisStore) Load(ctx context.Context, tag, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.entryKey(tag, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("キャッシュの取得に失敗: %w", err)
	}
	return data, true, nil
}

// Save はエントリを保存し、タグの索引に登録する。
func (r *RedisStore) Save(ctx context.Context, tag, key string, value []byte, ttl time.Duration) error {
	entryKey := r.entryKey(tag, key)
	tagKey := r.tagKey(tag)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, entryKey, value, ttl)
		pipe.SAdd(ctx, tagKey, entryKey)
		pipe.Expire(ctx, tagKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュの保存に失敗: %w", err)
	}
	return nil
}

// maxInvalidateRetries は索引が並行して更新された場合に無効化を再試行する回数。
const maxInvalidateRetries = 5

// Invalidate はタグの索引に登録されたエントリと索引自体を削除する。
// 索引をWATCHし、読み取りから削除までの間にSaveが割り込んだ場合はやり直す。
func (r *RedisStore) Invalidate(ctx context.Context, tag string) error {
	tagKey := r.tagKey(tag)

	invalidate := func(tx *redis.Tx) error {
		keys, err := tx.SMembers(ctx, tagKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("タグ索引の取得に失敗: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, append(keys, tagKey)...)
			return nil
		})
		return err
	}

	for range maxInvalidateRetries {
		err := r.client.Watch(ctx, invalidate, tagKey)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("タグ %s の無効化に失敗: %w", tag, err)
	}
	return fmt.Errorf("タグ %s の無効化に失敗: %w", tag, redis.TxFailedErr)
}
