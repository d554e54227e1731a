// Package event は認証フローで発生する監査イベントの型を定義する。
package event
