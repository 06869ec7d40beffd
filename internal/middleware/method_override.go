package middleware

import (
	"net/http"
	"strings"
)

// methodOverrideField はフォームでHTTPメソッドを指定するためのフィールド名。
const methodOverrideField = "_method"

// NewMethodOverrideMiddleware はHTMLフォームからのPOSTに含まれる_methodフィールドで
// リクエストメソッドを上書きするミドルウェアを返す。
// ブラウザのフォームはGETとPOSTしか送信できないため、削除フォームは
// _method=DELETEを添えてPOSTする。上書きを許可するのはDELETEのみ。
func NewMethodOverrideMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				if v := r.PostFormValue(methodOverrideField); strings.EqualFold(v, http.MethodDelete) {
					r.Method = http.MethodDelete
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
