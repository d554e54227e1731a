// Package auth はリモートのIDサービスを使ったログイン・登録・ログアウトと、
// 保護されたページでのセッション確認を提供する。
//
// IDサービスが返すSet-CookieをクライアントのCookieストアへリレーし、
// 以降の「現在のセッション」問い合わせは短時間キャッシュする。
// 各操作の結果はOutcome（リダイレクト・失敗・成功）として返り、
// 遠隔の失敗が呼び出し元に例外として伝播することはない。
//
// 状態遷移:
//
//	匿名 --Login/Signup成功--> 認証済み --Logout/Cookie失効--> 匿名
//
// RequireAuthは保存された状態ではなく、保護リソースを取得するたびに評価されるガードである。
package auth
