// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/joshpeterson/whatsfordinner/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByOpenID はアイデンティティ文字列でユーザーを検索する。見つからない場合はnilを返す。
	FindByOpenID(ctx context.Context, openid string) (*model.User, error)

	// FindOrCreateByOpenID はアイデンティティ文字列でユーザーを検索し、
	// 存在しない場合は新規作成する。同時リクエストとの競合でopenidの一意制約に
	// 違反した場合は「既に存在する」とみなし、既存レコードを取得し直して返す。
	FindOrCreateByOpenID(ctx context.Context, openid string) (*model.User, error)
}

// DinnerRepository は夕食データの永続化インターフェース。
type DinnerRepository interface {
	// ListByUserID はユーザーの夕食一覧をcreated_at昇順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Dinner, error)

	// Create は夕食を作成する。
	Create(ctx context.Context, dinner *model.Dinner) error

	// DeleteByID は指定IDの夕食を削除する。存在しない場合もエラーにしない。
	// 所有権の検証は呼び出し側の責務。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは不存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
