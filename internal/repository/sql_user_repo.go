package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joshpeterson/whatsfordinner/internal/model"
)

// SQLUserRepo はdatabase/sqlを使用したユーザーリポジトリ。
// PostgreSQLとSQLiteの両ドライバで動作する。
type SQLUserRepo struct {
	db *sql.DB
}

// NewSQLUserRepo はSQLUserRepoを生成する。
func NewSQLUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db}
}

// FindByOpenID はアイデンティティ文字列でユーザーを検索する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByOpenID(ctx context.Context, openid string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, openid, created_at, updated_at FROM users WHERE openid = $1`,
		openid,
	).Scan(&user.ID, &user.OpenID, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by openid: %w", err)
	}

	return user, nil
}

// FindOrCreateByOpenID はアイデンティティ文字列でユーザーを検索し、
// 存在しない場合は新規作成する。
// SELECTとINSERTは非アトミックだが、openidの一意制約により同時リクエストが
// 重複ユーザーを作ることはない。制約違反時は既存レコードを取得し直す。
func (r *SQLUserRepo) FindOrCreateByOpenID(ctx context.Context, openid string) (*model.User, error) {
	user, err := r.FindByOpenID(ctx, openid)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	now := time.Now()
	newUser := &model.User{
		ID:        uuid.New().String(),
		OpenID:    openid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, openid, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		newUser.ID, newUser.OpenID, newUser.CreatedAt, newUser.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// 同時リクエストが先に作成した。既存レコードを返す。
			existing, findErr := r.FindByOpenID(ctx, openid)
			if findErr != nil {
				return nil, findErr
			}
			if existing == nil {
				return nil, fmt.Errorf("user vanished after unique violation: %s", openid)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return newUser, nil
}

// isUniqueViolation は一意制約違反エラーかどうかを判定する。
// PostgreSQLはSQLSTATE 23505、SQLite（modernc.org/sqlite）はエラーメッセージで判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// compile-time interface check
var _ UserRepository = (*SQLUserRepo)(nil)
