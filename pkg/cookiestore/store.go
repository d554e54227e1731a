package cookiestore

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Store はクライアントが提示するCookieの読み書きを抽象化する。
type Store interface {
	// Get は指定した名前のCookie値（デコード済み）を返す。
	Get(name string) (string, bool)
	// All は現在提示しているCookieの名前と値の一覧を返す。
	All() []*http.Cookie
	// Set はCookieを書き込む。MaxAgeが負の場合は削除として扱う。
	Set(c *http.Cookie)
	// Header は転送用のCookieヘッダー値（"a=1; b=2" 形式）を返す。
	Header() string
}

// jar は名前順序を保ったCookieの集合。
type jar struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

func (j *jar) get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range j.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func (j *jar) all() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// put は書き込まれたCookieを提示中の集合に反映する。
func (j *jar) put(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, existing := range j.cookies {
		if existing.Name != c.Name {
			continue
		}
		if c.MaxAge < 0 {
			j.cookies = append(j.cookies[:i], j.cookies[i+1:]...)
			return
		}
		existing.Value = c.Value
		return
	}
	if c.MaxAge < 0 {
		return
	}
	j.cookies = append(j.cookies, &http.Cookie{Name: c.Name, Value: c.Value})
}

func (j *jar) header() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	pairs := make([]string, 0, len(j.cookies))
	for _, c := range j.cookies {
		pairs = append(pairs, c.Name+"="+EncodeValue(c.Value))
	}
	return strings.Join(pairs, "; ")
}

// EncodeValue はCookie値をencodeURIComponent相当でエンコードする。
func EncodeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// DecodeValue はCookie値をデコードする。不正なエンコードの場合は元の値を返す。
func DecodeValue(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
