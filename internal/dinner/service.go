// Package dinner は夕食候補のドメインロジックを提供する。
// 所有権ゲート（セッションのアイデンティティからユーザーと夕食一覧を解決する）、
// 夕食の作成・削除、ランダム選択を担う。
package dinner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/joshpeterson/whatsfordinner/internal/model"
	"github.com/joshpeterson/whatsfordinner/internal/repository"
)

// Sanitizer は保存前のテキストサニタイズに必要なインターフェース。
// security.TextSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// Service は夕食管理のサービス層。
type Service struct {
	userRepo   repository.UserRepository
	dinnerRepo repository.DinnerRepository
	sanitizer  Sanitizer
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	dinnerRepo repository.DinnerRepository,
	sanitizer Sanitizer,
) *Service {
	return &Service{
		userRepo:   userRepo,
		dinnerRepo: dinnerRepo,
		sanitizer:  sanitizer,
	}
}

// ResolveDinners はセッションのアイデンティティ文字列から所有ユーザーと
// その夕食一覧を解決する。アイデンティティが空、または該当ユーザーが
// 存在しない場合は(nil, nil, nil)を返し、「未ログイン」を示す。
// 夕食データに触れる全ルートはまずこれを呼び、userがnilの場合は
// /loginへリダイレクトしなければならない。本システム唯一の認可ゲート。
func (s *Service) ResolveDinners(ctx context.Context, identity string) (*model.User, []*model.Dinner, error) {
	if identity == "" {
		return nil, nil, nil
	}

	user, err := s.userRepo.FindByOpenID(ctx, identity)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return nil, nil, nil
	}

	dinners, err := s.dinnerRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list dinners: %w", err)
	}

	return user, dinners, nil
}

// AddDinner はサニタイズ済みテキストで夕食を作成する。
// サニタイズ後に空になったテキストは黙って捨てる（エラーにしない）。
// 同一テキストが既にユーザーの一覧に存在する場合は作成をスキップする。
// この重複排除は完全一致の線形走査によるベストエフォートで、
// 同時リクエストはすり抜けうる。一意制約はない。
func (s *Service) AddDinner(ctx context.Context, user *model.User, rawText string) error {
	text := s.sanitizer.Sanitize(rawText)
	if text == "" {
		return nil
	}

	existing, err := s.dinnerRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list dinners: %w", err)
	}
	for _, d := range existing {
		if d.Text == text {
			return nil
		}
	}

	d := &model.Dinner{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.dinnerRepo.Create(ctx, d); err != nil {
		return fmt.Errorf("failed to create dinner: %w", err)
	}

	return nil
}

// DeleteDinner は解決済みの夕食一覧にidが含まれる場合のみ削除する。
// 含まれない場合（存在しない、または他ユーザーの所有）は何もしない。
// 一覧への所属確認が所有権の強制そのもので、削除対象のidを
// そのままリポジトリに渡すのは確認を通過した後だけ。
func (s *Service) DeleteDinner(ctx context.Context, dinners []*model.Dinner, id string) error {
	if Find(dinners, id) == nil {
		return nil
	}

	if err := s.dinnerRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dinner: %w", err)
	}

	return nil
}

// Find は夕食一覧からidが一致する1件を返す。見つからない場合はnilを返す。
func Find(dinners []*model.Dinner, id string) *model.Dinner {
	for _, d := range dinners {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// PickRandom は夕食一覧から一様ランダムに1件を選ぶ。空の場合はnilを返す。
// シャッフルして先頭を取る方式で、直接の一様サンプリングと分布は等価。
func PickRandom(dinners []*model.Dinner) *model.Dinner {
	if len(dinners) == 0 {
		return nil
	}

	shuffled := make([]*model.Dinner, len(dinners))
	copy(shuffled, dinners)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[0]
}
