// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/joshpeterson/whatsfordinner/internal/auth"
	"github.com/joshpeterson/whatsfordinner/internal/middleware"
)

// openidCallbackPath はIdPに渡すコールバックルート。
const openidCallbackPath = "/login/openid/complete"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	BeginLogin(identifier, callbackURL, realm string) (string, error)
	HandleCallback(ctx context.Context, requestURL string, params url.Values) (*auth.CallbackResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// LoginRecorder はログイン試行のメトリクス記録に必要なインターフェース。
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOpenID認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer *Renderer
	metrics  LoginRecorder
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(service AuthServiceInterface, renderer *Renderer, metrics LoginRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		metrics:  metrics,
		config:   config,
	}
}

// LoginForm はログインフォームを表示する。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, "login.html", pageData{
		LoggedIn: middleware.IdentityFromContext(r.Context()) != "",
	})
}

// BeginOpenID はOpenID認証フローを開始する。
// POST /login/openid (フォームフィールド openid_identifier)
// ディスカバリ成功時はIdPへリダイレクトし、失敗時はidentifierを明示した
// インラインメッセージを表示する（リダイレクトしない）。
func (h *AuthHandler) BeginOpenID(w http.ResponseWriter, r *http.Request) {
	identifier := r.FormValue("openid_identifier")

	redirectURL, err := h.service.BeginLogin(
		identifier,
		h.config.BaseURL+openidCallbackPath,
		h.config.BaseURL,
	)
	if err != nil {
		var discoveryErr *auth.DiscoveryError
		if errors.As(err, &discoveryErr) {
			slog.Warn("openid discovery failed",
				slog.String("identifier", identifier),
				slog.String("error", err.Error()),
			)
			h.recordLogin("discovery_failure")
			h.renderer.render(w, http.StatusOK, "message.html", pageData{
				Message: fmt.Sprintf("Sorry, we couldn't find your identifier '%s'", identifier),
			})
			return
		}

		slog.Error("failed to begin openid login", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// CompleteOpenID はIdPからのコールバックを処理する。
// GET /login/openid/complete
// 成功時はセッションCookieを設定してホームへリダイレクトし、
// 取り消し・失敗・setup_neededはそれぞれインラインメッセージを表示する。
func (h *AuthHandler) CompleteOpenID(w http.ResponseWriter, r *http.Request) {
	// アサーション検証はreturn_toと完全一致するURLを要求するため、
	// 外部から見えるBaseURLでリクエストURLを再構成する
	requestURL := h.config.BaseURL + r.URL.RequestURI()

	result, err := h.service.HandleCallback(r.Context(), requestURL, r.URL.Query())
	if err != nil {
		slog.Error("openid callback failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.recordLogin(string(result.Status))

	switch result.Status {
	case auth.StatusSuccess:
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    result.Session.ID,
			Path:     "/",
			Domain:   h.config.CookieDomain,
			MaxAge:   h.config.SessionMaxAge,
			HttpOnly: true,
			Secure:   h.config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/", http.StatusFound)

	case auth.StatusCancelled:
		h.renderer.render(w, http.StatusOK, "message.html", pageData{
			Message: "Login cancelled.",
		})

	case auth.StatusSetupNeeded:
		h.renderer.render(w, http.StatusOK, "message.html", pageData{
			Message: "Immediate request failed - Setup Needed",
		})

	default:
		message := "Sorry, we could not authenticate you."
		if claimed := r.URL.Query().Get("openid.claimed_id"); claimed != "" {
			message = fmt.Sprintf("Sorry, we could not authenticate you with the identifier '%s'.", claimed)
		}
		h.renderer.render(w, http.StatusOK, "message.html", pageData{
			Message: message,
		})
	}
}

// Logout はセッションを破棄してログインページへリダイレクトする。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッション削除に失敗してもCookieはクリアする
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/login", http.StatusFound)
}

// recordLogin はメトリクスコレクタが設定されている場合のみ記録する。
func (h *AuthHandler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}
