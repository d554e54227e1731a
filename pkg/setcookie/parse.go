package setcookie

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// 認識する属性名（小文字）。
const (
	// AttrHTTPOnly はHttpOnly属性。
	AttrHTTPOnly = "httponly"
	// AttrSecure はSecure属性。
	AttrSecure = "secure"
	// AttrSameSite はSameSite属性。
	AttrSameSite = "samesite"
	// AttrPath はPath属性。
	AttrPath = "path"
	// AttrMaxAge はMax-Age属性。
	AttrMaxAge = "max-age"
	// AttrDomain はDomain属性。
	AttrDomain = "domain"
)

// flagValue は値を持たない属性に記録される値。
const flagValue = "true"

// Cookie はSet-Cookieディレクティブ1件を表す。
type Cookie struct {
	// Name はCookie名。
	Name string
	// Value はパーセントデコード済みのCookie値。
	Value string
	// Attributes は小文字の属性名から値へのマップ。値のない属性は "true"。
	Attributes map[string]string
}

// Attr は指定した属性の値を返す。属性名は大文字小文字を区別しない。
func (c Cookie) Attr(name string) (string, bool) {
	v, ok := c.Attributes[strings.ToLower(name)]
	return v, ok
}

// Flag は属性が存在し、かつ値が "true" であるかを返す。
func (c Cookie) Flag(name string) bool {
	v, ok := c.Attr(name)
	return ok && v == flagValue
}

// Parse はカンマ区切りで連結されたSet-Cookieヘッダー文字列を解析する。
// 各ディレクティブは ";" で区切られ、先頭が name=value、残りが属性となる。
// 値のパーセントエンコードが不正な場合はエラーを返す。
func Parse(raw string) ([]Cookie, error) {
	var cookies []Cookie
	for _, directive := range strings.Split(raw, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		parts := strings.Split(directive, ";")
		name, value, _ := strings.Cut(strings.TrimSpace(parts[0]), "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		decoded, err := url.PathUnescape(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("Cookie %q の値のデコードに失敗: %w", name, err)
		}

		attrs := make(map[string]string, len(parts)-1)
		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key, val, found := strings.Cut(part, "=")
			key = strings.ToLower(strings.TrimSpace(key))
			val = strings.TrimSpace(val)
			if !found || val == "" {
				val = flagValue
			}
			attrs[key] = val
		}

		cookies = append(cookies, Cookie{Name: name, Value: decoded, Attributes: attrs})
	}
	return cookies, nil
}

// FromHeader はレスポンスヘッダーの全Set-Cookie値を ", " で連結して解析する。
// Set-Cookieが無い場合は空の結果を返す。
func FromHeader(h http.Header) ([]Cookie, error) {
	values := h.Values("Set-Cookie")
	if len(values) == 0 {
		return nil, nil
	}
	return Parse(strings.Join(values, ", "))
}
