package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joshpeterson/whatsfordinner/internal/model"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// ミドルウェアを通過した後のコンテキストからアイデンティティを取り出すハンドラー
func identityCapturingHandler(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// 有効なセッションCookieからアイデンティティが注入されることを検証
func TestSessionMiddleware_ValidSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id != "sess-1" {
				t.Errorf("unexpected session lookup: %s", id)
			}
			return &model.Session{
				ID:        "sess-1",
				OpenID:    "https://example.com/alice",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}

	var captured string
	handler := NewSessionMiddleware(finder)(identityCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if captured != "https://example.com/alice" {
		t.Errorf("expected identity injected, got %q", captured)
	}
}

// Cookieなしでもリクエストが通り、アイデンティティは空になることを検証
func TestSessionMiddleware_NoCookie(t *testing.T) {
	var captured string
	handler := NewSessionMiddleware(&mockSessionFinder{})(identityCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected request to pass through, got %d", rec.Code)
	}
	if captured != "" {
		t.Errorf("expected empty identity, got %q", captured)
	}
}

// 不明なセッションIDは未ログインとして通すことを検証
func TestSessionMiddleware_UnknownSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}

	var captured string
	handler := NewSessionMiddleware(finder)(identityCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "expired-or-forged"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected request to pass through, got %d", rec.Code)
	}
	if captured != "" {
		t.Errorf("expected empty identity, got %q", captured)
	}
}

// セッション検索エラーでもリクエストを落とさないことを検証
func TestSessionMiddleware_FinderError(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}

	var captured string
	handler := NewSessionMiddleware(finder)(identityCapturingHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected request to pass through, got %d", rec.Code)
	}
	if captured != "" {
		t.Errorf("expected empty identity on finder error, got %q", captured)
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	if got := IdentityFromContext(context.Background()); got != "" {
		t.Errorf("expected empty identity for bare context, got %q", got)
	}
}

func TestContextWithIdentity_RoundTrip(t *testing.T) {
	ctx := ContextWithIdentity(context.Background(), "https://example.com/alice")
	if got := IdentityFromContext(ctx); got != "https://example.com/alice" {
		t.Errorf("expected identity round-trip, got %q", got)
	}
}
