package auth

import "time"

// Session はIDサービスが発行したセッション。Tokenは不透明な値として扱う。
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// User はセッションに紐づく利用者。
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	EmailVerified   bool      `json:"emailVerified"`
	Username        string    `json:"username"`
	DisplayUsername string    `json:"displayUsername"`
	Image           *string   `json:"image"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SessionEnvelope は「現在のセッション」問い合わせの結果。
// SessionとUserの両方が揃っている場合だけ有効とみなす。
type SessionEnvelope struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
}

// complete はセッションとユーザーが両方揃っているかを返す。
func (e *SessionEnvelope) complete() bool {
	return e != nil && e.Session != nil && e.User != nil
}

// OutcomeKind はOutcomeの種類。
type OutcomeKind int

const (
	// OutcomeRedirect は指定先へのリダイレクト。
	OutcomeRedirect OutcomeKind = iota + 1
	// OutcomeFailure はフォーム付近に表示するエラー。
	OutcomeFailure
	// OutcomeSuccess はセッションを伴う成功。
	OutcomeSuccess
)

// String はOutcomeKindの文字列表現を返す。
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeFailure:
		return "failure"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Outcome は各操作の結果。呼び出し側の層が解釈して応答に変換する。
type Outcome struct {
	// Kind は結果の種類。
	Kind OutcomeKind
	// Target はリダイレクト先のパス。
	Target string
	// Message は失敗時に利用者へ表示するメッセージ。
	Message string
	// Session は成功時のセッション。
	Session *SessionEnvelope
}

// Redirect はリダイレクトを表すOutcomeを返す。
func Redirect(target string) Outcome {
	return Outcome{Kind: OutcomeRedirect, Target: target}
}

// Failure は失敗を表すOutcomeを返す。
func Failure(message string) Outcome {
	return Outcome{Kind: OutcomeFailure, Message: message}
}

// Success はセッションを伴う成功を表すOutcomeを返す。
func Success(session *SessionEnvelope) Outcome {
	return Outcome{Kind: OutcomeSuccess, Session: session}
}

// IsRedirect はリダイレクトかを返す。
func (o Outcome) IsRedirect() bool { return o.Kind == OutcomeRedirect }

// IsFailure は失敗かを返す。
func (o Outcome) IsFailure() bool { return o.Kind == OutcomeFailure }
