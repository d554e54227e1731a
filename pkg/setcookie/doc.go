// Package setcookie はIDサービスが返すSet-Cookieレスポンスヘッダーを解析する。
//
// fetch系クライアントが複数のSet-Cookieをカンマ区切りの1文字列として扱う形式を
// そのまま受け付け、Cookie名・値・属性の列に分解する。
// Expires属性の値に含まれるカンマでも分割される点に注意すること。
package setcookie
