// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/joshpeterson/whatsfordinner/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストにアイデンティティ文字列を格納するためのキー。
var identityContextKey = contextKey("identity")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効な場合は認証済みアイデンティティ文字列をリクエストコンテキストに
// 注入するミドルウェアを返す。
// セッションが無い・無効な場合でもリクエストはそのまま通す。
// 未ログインの扱いは401ではなく/loginへのリダイレクトであり、
// その判断は各ハンドラーの所有権ゲートが行う。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				// 期限切れまたは不明なセッションIDは未ログインとして扱う
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithIdentity(r.Context(), session.OpenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストからアイデンティティ文字列を取得する。
// 未ログインの場合は空文字列を返す。
func IdentityFromContext(ctx context.Context) string {
	identity, ok := ctx.Value(identityContextKey).(string)
	if !ok {
		return ""
	}
	return identity
}

// ContextWithIdentity はコンテキストにアイデンティティ文字列を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
