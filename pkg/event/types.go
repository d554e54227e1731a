package event

import (
	"encoding/json"
	"time"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeLoginSucceeded はログインに成功したことを表す。
	TypeLoginSucceeded Type = "LoginSucceeded"
	// TypeLoginFailed はログインに失敗したことを表す。
	TypeLoginFailed Type = "LoginFailed"
	// TypeSignupSucceeded はアカウント登録に成功したことを表す。
	TypeSignupSucceeded Type = "SignupSucceeded"
	// TypeSignupFailed はアカウント登録に失敗したことを表す。
	TypeSignupFailed Type = "SignupFailed"
	// TypeLogoutCompleted はローカルのセッション情報を破棄したことを表す。
	TypeLogoutCompleted Type = "LogoutCompleted"
	// TypeSignOutFailed はIDサービスへのサインアウト通知が失敗したことを表す。
	// ログアウト自体は継続される。
	TypeSignOutFailed Type = "SignOutFailed"
	// TypeSessionLookupFailed はセッション問い合わせが通信エラーで失敗したことを表す。
	TypeSessionLookupFailed Type = "SessionLookupFailed"
)

// Reason は失敗の分類を表す。
type Reason string

const (
	// ReasonValidation は必須入力の欠落。
	ReasonValidation Reason = "validation"
	// ReasonUpstream はIDサービスが非2xxを返したこと。
	ReasonUpstream Reason = "upstream"
	// ReasonTransport は通信失敗や不正なレスポンス。
	ReasonTransport Reason = "transport"
)

// Event は監査ログに記録される不変のイベントレコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Type はイベントの種類。
	Type Type `json:"type"`
	// Subject は対象の利用者（ユーザー名・メールアドレス等）。不明な場合は空。
	Subject string `json:"subject"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// FailureData は失敗系イベントのデータ。
type FailureData struct {
	// Reason は失敗の分類。
	Reason Reason `json:"reason"`
	// Message は利用者に返したメッセージ。
	Message string `json:"message"`
	// Status はIDサービスのHTTPステータス。通信失敗時は0。
	Status int `json:"status,omitempty"`
	// Detail は内部向けの詳細（エラー文字列等）。
	Detail string `json:"detail,omitempty"`
}

// SessionData は成功系イベントのデータ。
type SessionData struct {
	// Cookies はリレーしたCookie名の一覧。
	Cookies []string `json:"cookies,omitempty"`
	// Cleared は削除したCookie名の一覧。
	Cleared []string `json:"cleared,omitempty"`
}
