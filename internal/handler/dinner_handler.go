package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joshpeterson/whatsfordinner/internal/dinner"
	"github.com/joshpeterson/whatsfordinner/internal/middleware"
	"github.com/joshpeterson/whatsfordinner/internal/model"
)

// DinnerServiceInterface は夕食ハンドラーが必要とするサービスインターフェース。
type DinnerServiceInterface interface {
	// ResolveDinners は所有権ゲート。userがnilの場合は未ログインを意味する。
	ResolveDinners(ctx context.Context, identity string) (*model.User, []*model.Dinner, error)
	AddDinner(ctx context.Context, user *model.User, rawText string) error
	DeleteDinner(ctx context.Context, dinners []*model.Dinner, id string) error
}

// DinnerRecorder は夕食操作のメトリクス記録に必要なインターフェース。
type DinnerRecorder interface {
	RecordDinnerCreated()
	RecordDinnerDeleted()
	RecordSuggestionServed()
}

// DinnerHandler は夕食管理のHTTPハンドラー。
// 全ルートが所有権ゲートを最初に通し、未ログインは/loginへリダイレクトする。
type DinnerHandler struct {
	service  DinnerServiceInterface
	renderer *Renderer
	metrics  DinnerRecorder
}

// NewDinnerHandler はDinnerHandlerを生成する。metricsはnil可。
func NewDinnerHandler(service DinnerServiceInterface, renderer *Renderer, metrics DinnerRecorder) *DinnerHandler {
	return &DinnerHandler{
		service:  service,
		renderer: renderer,
		metrics:  metrics,
	}
}

// Home はランダムな夕食提案を表示する。
// GET /
// 未ログインは/loginへ、夕食が1件もない場合は/dinnersへリダイレクトする。
func (h *DinnerHandler) Home(w http.ResponseWriter, r *http.Request) {
	_, dinners, ok := h.resolve(w, r)
	if !ok {
		return
	}

	pick := dinner.PickRandom(dinners)
	if pick == nil {
		http.Redirect(w, r, "/dinners", http.StatusFound)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSuggestionServed()
	}

	h.renderer.render(w, http.StatusOK, "index.html", pageData{
		LoggedIn:          true,
		ShowNewDinnerForm: true,
		Dinner:            pick,
	})
}

// List は夕食一覧を表示する。
// GET /dinners
func (h *DinnerHandler) List(w http.ResponseWriter, r *http.Request) {
	_, dinners, ok := h.resolve(w, r)
	if !ok {
		return
	}

	h.renderer.render(w, http.StatusOK, "dinners.html", pageData{
		LoggedIn:          true,
		ShowNewDinnerForm: true,
		Dinners:           dinners,
	})
}

// Create は夕食を作成して一覧へリダイレクトする。
// POST /dinner/create (フォームフィールド text)
// 空テキストや重複はサービス層が黙って捨てる。どちらの場合もリダイレクト先は同じ。
func (h *DinnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := h.service.AddDinner(r.Context(), user, r.FormValue("text")); err != nil {
		slog.Error("failed to add dinner", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDinnerCreated()
	}

	http.Redirect(w, r, "/dinners", http.StatusFound)
}

// ConfirmDelete は削除確認ページを表示する。
// GET /dinner/{id}/delete
// idが自分の一覧に含まれない場合は/dinnersへリダイレクトする。
// 「存在しない」と「他人の所有」をユーザーに区別して見せることはない。
func (h *DinnerHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	_, dinners, ok := h.resolve(w, r)
	if !ok {
		return
	}

	d := dinner.Find(dinners, chi.URLParam(r, "id"))
	if d == nil {
		http.Redirect(w, r, "/dinners", http.StatusFound)
		return
	}

	h.renderer.render(w, http.StatusOK, "delete.html", pageData{
		LoggedIn:          true,
		ShowNewDinnerForm: true,
		Dinner:            d,
	})
}

// Delete は夕食を削除して一覧へリダイレクトする。
// DELETE /dinner/{id}
// 所有権の確認はサービス層が行い、自分の一覧にないidは何もしない。
func (h *DinnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, dinners, ok := h.resolve(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	owned := dinner.Find(dinners, id) != nil

	if err := h.service.DeleteDinner(r.Context(), dinners, id); err != nil {
		slog.Error("failed to delete dinner", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if owned && h.metrics != nil {
		h.metrics.RecordDinnerDeleted()
	}

	http.Redirect(w, r, "/dinners", http.StatusFound)
}

// About は静的な説明ページを表示する。
// GET /about
// 認証不要の唯一の夕食系ページ。
func (h *DinnerHandler) About(w http.ResponseWriter, r *http.Request) {
	loggedIn := middleware.IdentityFromContext(r.Context()) != ""
	h.renderer.render(w, http.StatusOK, "about.html", pageData{
		LoggedIn:          loggedIn,
		ShowNewDinnerForm: loggedIn,
	})
}

// resolve は所有権ゲートを通し、未ログインの場合は/loginへリダイレクトして
// falseを返す。内部エラーの場合は500を返してfalseを返す。
func (h *DinnerHandler) resolve(w http.ResponseWriter, r *http.Request) (*model.User, []*model.Dinner, bool) {
	identity := middleware.IdentityFromContext(r.Context())

	user, dinners, err := h.service.ResolveDinners(r.Context(), identity)
	if err != nil {
		slog.Error("failed to resolve dinners", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, nil, false
	}
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, nil, false
	}

	return user, dinners, true
}
