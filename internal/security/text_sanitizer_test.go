package security

import "testing"

// タグが除去されテキストだけ残ることを検証
func TestTextSanitizer_StripsMarkup(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "プレーンテキストはそのまま", raw: "pizza", want: "pizza"},
		{name: "boldタグ除去", raw: "<b>hi</b>", want: "hi"},
		{name: "scriptタグ除去", raw: "<script>alert('x')</script>tacos", want: "tacos"},
		{name: "属性付きタグ除去", raw: `<a href="https://evil.example/">curry</a>`, want: "curry"},
		{name: "タグのみは空になる", raw: "<img src=x onerror=alert(1)>", want: ""},
		{name: "前後の空白を除去", raw: "  sushi  ", want: "sushi"},
		{name: "空文字列", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.raw); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// サニタイズが冪等であることを検証
func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	inputs := []string{"pizza", "<b>hi</b>", "  sushi  ", "a < b"}
	for _, raw := range inputs {
		once := s.Sanitize(raw)
		twice := s.Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}
