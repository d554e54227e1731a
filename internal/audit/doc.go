// Package audit は認証フローの監査イベントをSQLiteに記録する。
//
// ログイン・登録・ログアウトの結果や、握りつぶされたサインアウト失敗などの
// 補助的な失敗を後から確認できるようにする。記録の失敗は呼び出し元の
// 認証フローを妨げない。
package audit
