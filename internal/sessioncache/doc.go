// Package sessioncache は「有効なセッションがあるか」の問い合わせ結果を短時間キャッシュする。
//
// エントリはタグ単位でまとめて保持され、TTL経過またはタグ指定の無効化で破棄される。
// キャッシュは派生データにすぎず、無効化後の値を正として扱ってはならない。
// 取得関数の失敗は「セッション無し」として保存され、呼び出し元にエラーは返らない。
package sessioncache
