package setcookie

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestParse はParse関数を検証する。
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("単一のディレクティブを名前・値・属性に分解できること", func(t *testing.T) {
		t.Parallel()

		got, err := Parse("session=abc123; HttpOnly; Path=/; Max-Age=3600")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}

		want := []Cookie{{
			Name:  "session",
			Value: "abc123",
			Attributes: map[string]string{
				"httponly": "true",
				"path":     "/",
				"max-age":  "3600",
			},
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("カンマ区切りの複数ディレクティブを順序通りに返すこと", func(t *testing.T) {
		t.Parallel()

		raw := "better-auth.session_token=tok%2Bsig%3D; Path=/; HttpOnly; SameSite=Lax, " +
			"better-auth.session_data=data; Max-Age=300; Secure"
		got, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}

		want := []Cookie{
			{
				Name:  "better-auth.session_token",
				Value: "tok+sig=",
				Attributes: map[string]string{
					"path":     "/",
					"httponly": "true",
					"samesite": "Lax",
				},
			},
			{
				Name:  "better-auth.session_data",
				Value: "data",
				Attributes: map[string]string{
					"max-age": "300",
					"secure":  "true",
				},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("属性名が小文字に正規化されること", func(t *testing.T) {
		t.Parallel()

		got, err := Parse("a=b; DOMAIN=example.com; SameSite=Strict")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		if v, ok := got[0].Attr(AttrDomain); !ok || v != "example.com" {
			t.Errorf("domain = %q (ok=%v), want %q", v, ok, "example.com")
		}
		if v, _ := got[0].Attr("SAMESITE"); v != "Strict" {
			t.Errorf("samesite = %q, want %q", v, "Strict")
		}
	})

	t.Run("プラス記号は空白にデコードされないこと", func(t *testing.T) {
		t.Parallel()

		got, err := Parse("a=x+y%20z")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if got[0].Value != "x+y z" {
			t.Errorf("Value = %q, want %q", got[0].Value, "x+y z")
		}
	})

	t.Run("値に=を含む場合は最初の=で分割されること", func(t *testing.T) {
		t.Parallel()

		got, err := Parse("a=b=c; Path=/")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if got[0].Name != "a" || got[0].Value != "b=c" {
			t.Errorf("got %q=%q, want a=b=c", got[0].Name, got[0].Value)
		}
	})

	t.Run("空文字列や空のディレクティブは無視されること", func(t *testing.T) {
		t.Parallel()

		got, err := Parse(" , a=1,, ")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if len(got) != 1 || got[0].Name != "a" {
			t.Errorf("got %+v, want a single cookie a", got)
		}

		empty, err := Parse("")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("len = %d, want 0", len(empty))
		}
	})

	t.Run("不正なパーセントエンコードでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		if _, err := Parse("a=%zz"); err == nil {
			t.Fatal("Parse()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("Expires属性のカンマで余分なディレクティブに分割されること", func(t *testing.T) {
		t.Parallel()

		// Expiresの曜日の後ろのカンマでも分割される既知の挙動
		got, err := Parse("id=42; Expires=Wed, 21 Oct 2026 07:28:00 GMT; Path=/")
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if v, _ := got[0].Attr("expires"); v != "Wed" {
			t.Errorf("expires = %q, want %q", v, "Wed")
		}
		if got[1].Name != "21 Oct 2026 07:28:00 GMT" || got[1].Value != "" {
			t.Errorf("got %q=%q, want spurious directive", got[1].Name, got[1].Value)
		}
		if v, _ := got[1].Attr(AttrPath); v != "/" {
			t.Errorf("path = %q, want %q", v, "/")
		}
	})
}

// TestCookieFlag はFlagメソッドを検証する。
func TestCookieFlag(t *testing.T) {
	t.Parallel()

	c := Cookie{Attributes: map[string]string{"httponly": "true", "secure": "false"}}
	if !c.Flag(AttrHTTPOnly) {
		t.Error("HttpOnlyはtrueであるべき")
	}
	if c.Flag(AttrSecure) {
		t.Error("値がfalseのSecureはtrueであるべきではない")
	}
	if c.Flag(AttrSameSite) {
		t.Error("存在しない属性はtrueであるべきではない")
	}
}

// TestFromHeader はFromHeader関数を検証する。
func TestFromHeader(t *testing.T) {
	t.Parallel()

	t.Run("複数のSet-Cookieヘッダーをまとめて解析できること", func(t *testing.T) {
		t.Parallel()

		h := http.Header{}
		h.Add("Set-Cookie", "a=1; Path=/")
		h.Add("Set-Cookie", "b=2; HttpOnly")

		got, err := FromHeader(h)
		if err != nil {
			t.Fatalf("FromHeader()でエラーが発生: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].Name != "a" || got[1].Name != "b" {
			t.Errorf("names = %q, %q, want a, b", got[0].Name, got[1].Name)
		}
	})

	t.Run("Set-Cookieが無い場合は空の結果を返すこと", func(t *testing.T) {
		t.Parallel()

		got, err := FromHeader(http.Header{})
		if err != nil {
			t.Fatalf("FromHeader()でエラーが発生: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}
