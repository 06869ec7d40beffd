package handler

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/joshpeterson/whatsfordinner/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pages は各ページテンプレートのファイル名。
// いずれもlayout.htmlと組み合わせて描画する。
var pages = []string{
	"index.html",
	"dinners.html",
	"delete.html",
	"login.html",
	"about.html",
	"message.html",
}

// pageData はテンプレートに渡す描画データ。
// 夕食テキストはDB保存時点でサニタイズ済みだが、
// html/templateのコンテキストエスケープも通常どおり効く。
type pageData struct {
	LoggedIn          bool
	ShowNewDinnerForm bool
	Dinner            *model.Dinner
	Dinners           []*model.Dinner
	Message           string
}

// Renderer は埋め込みテンプレートによるHTML描画を提供する。
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer は全ページテンプレートをパースしたRendererを生成する。
// テンプレートはバイナリに埋め込まれているため、パース失敗は起動時に検出される。
func NewRenderer() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = t
	}

	return &Renderer{templates: templates}, nil
}

// render は指定ページをレイアウト込みで描画する。
func (rd *Renderer) render(w http.ResponseWriter, status int, page string, data pageData) {
	t, ok := rd.templates[page]
	if !ok {
		slog.Error("unknown template", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}
