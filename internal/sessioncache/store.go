package sessioncache

import (
	"context"
	"sync"
	"time"
)

// Store はタグ単位でグループ化されたキャッシュエントリの保存先。
type Store interface {
	// Load はTTL内のエントリを返す。存在しない・期限切れの場合はokがfalse。
	Load(ctx context.Context, tag, key string) (value []byte, ok bool, err error)
	// Save はエントリを現在時刻で保存する。
	Save(ctx context.Context, tag, key string, value []byte, ttl time.Duration) error
	// Invalidate はタグに属するすべてのエントリを削除する。
	Invalidate(ctx context.Context, tag string) error
}

// entry はMemoryStoreが保持する1件のエントリ。
type entry struct {
	// value はシリアライズ済みの値。
	value []byte
	// insertedAt は保存した時刻。
	insertedAt time.Time
	// ttl は保存時に指定された有効期間。
	ttl time.Duration
}

// MemoryStore はプロセス内のマップで保持するStore。
type MemoryStore struct {
	// mu はentriesを保護する。
	mu sync.Mutex
	// entries はタグからキー、エントリへのマップ。
	entries map[string]map[string]entry
	// now は現在時刻を返す関数。テストで差し替える。
	now func() time.Time
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]map[string]entry),
		now:     time.Now,
	}
}

// Load は経過時間がTTL以下のエントリを返す。期限切れのエントリは削除する。
func (m *MemoryStore) Load(_ context.Context, tag, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[tag][key]
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.insertedAt) > e.ttl {
		delete(m.entries[tag], key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Save はエントリを保存する。同じキーのエントリは上書きされる。
func (m *MemoryStore) Save(_ context.Context, tag, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKey, ok := m.entries[tag]
	if !ok {
		byKey = make(map[string]entry)
		m.entries[tag] = byKey
	}
	byKey[key] = entry{value: value, insertedAt: m.now(), ttl: ttl}
	return nil
}

// Invalidate はタグに属するエントリをすべて削除する。
func (m *MemoryStore) Invalidate(_ context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, tag)
	return nil
}
