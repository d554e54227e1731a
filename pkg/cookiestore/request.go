package cookiestore

import "net/http"

// RequestStore は受信リクエストのCookieを起点とし、
// 書き込みをレスポンスのSet-Cookieとして出力するStore。
type RequestStore struct {
	jar
	// w はSet-Cookieを書き込むレスポンス。
	w http.ResponseWriter
}

// NewRequestStore はリクエストのCookieヘッダーからStoreを生成する。
// 同名のCookieが複数ある場合は先頭のものを採用する。
func NewRequestStore(w http.ResponseWriter, r *http.Request) *RequestStore {
	s := &RequestStore{w: w}
	seen := make(map[string]struct{})
	for _, c := range r.Cookies() {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		s.cookies = append(s.cookies, &http.Cookie{Name: c.Name, Value: DecodeValue(c.Value)})
	}
	return s
}

// Get は指定した名前のCookie値を返す。
func (s *RequestStore) Get(name string) (string, bool) { return s.get(name) }

// All は提示中のCookie一覧を返す。
func (s *RequestStore) All() []*http.Cookie { return s.all() }

// Header は転送用のCookieヘッダー値を返す。
func (s *RequestStore) Header() string { return s.header() }

// Set はCookieをレスポンスに書き込み、以降の読み取りにも反映する。
func (s *RequestStore) Set(c *http.Cookie) {
	out := *c
	out.Value = EncodeValue(c.Value)
	http.SetCookie(s.w, &out)
	s.put(c)
}
