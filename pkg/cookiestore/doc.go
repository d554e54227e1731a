// Package cookiestore はクライアントが提示しているCookieの集合を扱う。
//
// 1リクエストの間、受信したCookieヘッダーを起点に読み書きでき、
// 書き込みはSet-Cookieとしてレスポンスに反映される。
// 認証情報として何を提示しているかの唯一の情報源となる。
package cookiestore
