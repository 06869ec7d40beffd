package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joshpeterson/whatsfordinner/internal/model"
)

// SQLDinnerRepo はdatabase/sqlを使用した夕食リポジトリ。
type SQLDinnerRepo struct {
	db *sql.DB
}

// NewSQLDinnerRepo はSQLDinnerRepoを生成する。
func NewSQLDinnerRepo(db *sql.DB) *SQLDinnerRepo {
	return &SQLDinnerRepo{db: db}
}

// ListByUserID はユーザーの夕食一覧をcreated_at昇順で返す。
func (r *SQLDinnerRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Dinner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, text, created_at FROM dinners
		 WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dinners: %w", err)
	}
	defer rows.Close()

	var dinners []*model.Dinner
	for rows.Next() {
		d := &model.Dinner{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Text, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dinner: %w", err)
		}
		dinners = append(dinners, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dinners: %w", err)
	}

	return dinners, nil
}

// Create は夕食を作成する。
func (r *SQLDinnerRepo) Create(ctx context.Context, dinner *model.Dinner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dinners (id, user_id, text, created_at)
		 VALUES ($1, $2, $3, $4)`,
		dinner.ID, dinner.UserID, dinner.Text, dinner.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dinner: %w", err)
	}

	return nil
}

// DeleteByID は指定IDの夕食を削除する。存在しない場合もエラーにしない。
func (r *SQLDinnerRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dinners WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dinner: %w", err)
	}

	return nil
}

// compile-time interface check
var _ DinnerRepository = (*SQLDinnerRepo)(nil)
