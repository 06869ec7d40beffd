// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// OpenIDは外部IdPが発行するアイデンティティ文字列で、
// ユーザー検索の唯一の外部キーとして使用する。ストレージ層で一意制約を持つ。
type User struct {
	ID        string
	OpenID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// OpenIDには認証済みアイデンティティ文字列をそのまま保持する。
type Session struct {
	ID        string
	OpenID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
