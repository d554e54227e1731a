// Package web はブラウザ向けwebサービス（BFF）の内部実装を提供する。
//
// ログイン・登録・ログアウトのフォーム送信をIDサービスへ中継し、
// IDサービスが発行したセッションCookieをブラウザへリレーする。
// 保護されたページとバックエンドAPIへのプロキシはセッションで守られ、
// ブラウザのCookieをそのままバックエンドへ転送する。
package web
