package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// openid.modeによる終端状態の分類を検証
func TestOpenIDProvider_CompleteAuth_ModeClassification(t *testing.T) {
	provider := NewOpenIDProvider(http.DefaultClient)

	tests := []struct {
		name   string
		params url.Values
		want   AssertionStatus
	}{
		{
			name:   "ユーザーによる取り消し",
			params: url.Values{"openid.mode": {"cancel"}},
			want:   StatusCancelled,
		},
		{
			name:   "immediateリクエスト失敗",
			params: url.Values{"openid.mode": {"setup_needed"}},
			want:   StatusSetupNeeded,
		},
		{
			name:   "検証に失敗する不完全なアサーション",
			params: url.Values{"openid.mode": {"id_res"}},
			want:   StatusFailure,
		},
		{
			name:   "modeなしも検証失敗として扱う",
			params: url.Values{},
			want:   StatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestURL := "http://localhost:8080/login/openid/complete?" + tt.params.Encode()
			assertion := provider.CompleteAuth(requestURL, tt.params)
			if assertion.Status != tt.want {
				t.Errorf("expected status %s, got %s", tt.want, assertion.Status)
			}
			if assertion.Identity != "" {
				t.Errorf("expected empty identity on non-success, got %q", assertion.Identity)
			}
		})
	}
}

// OpenIDエンドポイントを持たないidentifierでディスカバリが失敗することを検証
func TestOpenIDProvider_BeginAuth_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Yadisドキュメントでもlinkタグ付きHTMLでもないレスポンス
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>not an identity page</body></html>"))
	}))
	defer srv.Close()

	provider := NewOpenIDProvider(srv.Client())

	_, err := provider.BeginAuth(srv.URL+"/alice", "http://localhost:8080/login/openid/complete", "http://localhost:8080")
	if err == nil {
		t.Fatal("expected discovery error, got nil")
	}

	var discoveryErr *DiscoveryError
	if !errors.As(err, &discoveryErr) {
		t.Fatalf("expected *DiscoveryError, got %T", err)
	}
	if discoveryErr.Identifier != srv.URL+"/alice" {
		t.Errorf("expected identifier in error, got %q", discoveryErr.Identifier)
	}
}

// 到達できないidentifierでディスカバリが失敗することを検証
func TestOpenIDProvider_BeginAuth_UnreachableIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := srv.Client()
	srv.Close()

	provider := NewOpenIDProvider(client)

	_, err := provider.BeginAuth(srv.URL, "http://localhost:8080/login/openid/complete", "http://localhost:8080")
	if err == nil {
		t.Fatal("expected error for unreachable identifier, got nil")
	}
}
