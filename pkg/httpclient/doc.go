// Package httpclient はバックエンドサービスへの認証付きHTTP通信を行うクライアントを提供する。
//
// クライアントはベースURLと認証方式（静的Bearerトークン、またはクライアントの
// Cookie転送）を1つ持ち、起動時に1度だけ生成して各ハンドラで共有する。
// すべての呼び出し結果はResponseに正規化され、通信エラーも値として返る。
package httpclient
