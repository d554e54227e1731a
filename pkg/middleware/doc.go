// Package middleware はwebサービスのGinルーターで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストログ、フロントエンド向けのCORS設定、
// 内部エンドポイント用のサービス間JWT検証を含む。
package middleware
