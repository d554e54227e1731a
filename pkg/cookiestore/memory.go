package cookiestore

import (
	"net/http"
	"sync"
)

// MemoryStore はメモリ上で完結するStore。
// 書き込まれたCookieを属性付きで記録する。
type MemoryStore struct {
	jar
	// writtenMu はwrittenを保護する。
	writtenMu sync.Mutex
	// written は書き込まれたCookieの履歴。
	written []*http.Cookie
}

// NewMemoryStore は初期Cookieを持つMemoryStoreを生成する。
func NewMemoryStore(initial ...*http.Cookie) *MemoryStore {
	s := &MemoryStore{}
	for _, c := range initial {
		s.put(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return s
}

// Get は指定した名前のCookie値を返す。
func (s *MemoryStore) Get(name string) (string, bool) { return s.get(name) }

// All は提示中のCookie一覧を返す。
func (s *MemoryStore) All() []*http.Cookie { return s.all() }

// Header は転送用のCookieヘッダー値を返す。
func (s *MemoryStore) Header() string { return s.header() }

// Set はCookieを記録し、提示中の集合に反映する。
func (s *MemoryStore) Set(c *http.Cookie) {
	cp := *c
	s.writtenMu.Lock()
	s.written = append(s.written, &cp)
	s.writtenMu.Unlock()
	s.put(c)
}

// Written は書き込まれたCookieを書き込み順に返す。
func (s *MemoryStore) Written() []*http.Cookie {
	s.writtenMu.Lock()
	defer s.writtenMu.Unlock()
	out := make([]*http.Cookie, len(s.written))
	copy(out, s.written)
	return out
}

// Lookup は指定した名前で最後に書き込まれたCookieを返す。
func (s *MemoryStore) Lookup(name string) (*http.Cookie, bool) {
	s.writtenMu.Lock()
	defer s.writtenMu.Unlock()
	for i := len(s.written) - 1; i >= 0; i-- {
		if s.written[i].Name == name {
			return s.written[i], true
		}
	}
	return nil, false
}
