package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
)

// 不存在のopenidでnilが返ることを検証
func TestSQLUserRepo_FindByOpenID_NotFound(t *testing.T) {
	repo := NewSQLUserRepo(newTestDB(t))

	user, err := repo.FindByOpenID(context.Background(), "https://example.com/nobody")
	if err != nil {
		t.Fatalf("FindByOpenID returned error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for unknown openid, got %v", user)
	}
}

// 初回は作成、2回目以降は既存ユーザーを返すことを検証
func TestSQLUserRepo_FindOrCreateByOpenID(t *testing.T) {
	repo := NewSQLUserRepo(newTestDB(t))
	ctx := context.Background()

	created, err := repo.FindOrCreateByOpenID(ctx, "https://example.com/alice")
	if err != nil {
		t.Fatalf("FindOrCreateByOpenID returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty user ID")
	}
	if created.OpenID != "https://example.com/alice" {
		t.Errorf("expected openid preserved, got %q", created.OpenID)
	}

	again, err := repo.FindOrCreateByOpenID(ctx, "https://example.com/alice")
	if err != nil {
		t.Fatalf("second FindOrCreateByOpenID returned error: %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("expected same user on repeat login, got %s and %s", created.ID, again.ID)
	}
}

// 異なるopenidには別ユーザーが作られることを検証
func TestSQLUserRepo_FindOrCreateByOpenID_DistinctIdentities(t *testing.T) {
	repo := NewSQLUserRepo(newTestDB(t))
	ctx := context.Background()

	alice, err := repo.FindOrCreateByOpenID(ctx, "https://example.com/alice")
	if err != nil {
		t.Fatalf("FindOrCreateByOpenID returned error: %v", err)
	}
	bob, err := repo.FindOrCreateByOpenID(ctx, "https://example.com/bob")
	if err != nil {
		t.Fatalf("FindOrCreateByOpenID returned error: %v", err)
	}

	if alice.ID == bob.ID {
		t.Error("expected distinct users for distinct identities")
	}
}

// openidの一意制約が直接INSERTでも効くことを検証
func TestSQLUserRepo_OpenIDUniqueConstraint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	insert := func(id string) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (id, openid, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
			id, "https://example.com/alice", now, now,
		)
		return err
	}

	if err := insert("user-1"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	err := insert("user-2")
	if err == nil {
		t.Fatal("expected unique violation on duplicate openid")
	}
	if !isUniqueViolation(err) {
		t.Errorf("expected isUniqueViolation to classify driver error, got: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "PostgreSQLの一意制約違反",
			err:  &pq.Error{Code: "23505"},
			want: true,
		},
		{
			name: "ラップされたPostgreSQLエラー",
			err:  fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505"}),
			want: true,
		},
		{
			name: "PostgreSQLの別エラー",
			err:  &pq.Error{Code: "23503"},
			want: false,
		},
		{
			name: "SQLiteの一意制約違反",
			err:  errors.New("constraint failed: UNIQUE constraint failed: users.openid (2067)"),
			want: true,
		},
		{
			name: "無関係なエラー",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// タイムスタンプが保存・復元できることを検証
func TestSQLUserRepo_TimestampRoundTrip(t *testing.T) {
	repo := NewSQLUserRepo(newTestDB(t))
	ctx := context.Background()

	created, err := repo.FindOrCreateByOpenID(ctx, "https://example.com/alice")
	if err != nil {
		t.Fatalf("FindOrCreateByOpenID returned error: %v", err)
	}

	found, err := repo.FindByOpenID(ctx, "https://example.com/alice")
	if err != nil {
		t.Fatalf("FindByOpenID returned error: %v", err)
	}
	if found == nil {
		t.Fatal("expected user to be found")
	}
	if found.CreatedAt.IsZero() {
		t.Error("expected non-zero created_at")
	}
	if diff := found.CreatedAt.Sub(created.CreatedAt); diff > time.Second || diff < -time.Second {
		t.Errorf("created_at drifted through storage: %v", diff)
	}
}
