package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/yohcop/openid-go"
)

// AssertionStatus は認証コールバックの終端状態を表す。
type AssertionStatus string

const (
	// StatusSuccess はIdPがアイデンティティを検証済みであることを示す。
	StatusSuccess AssertionStatus = "success"
	// StatusCancelled はユーザーがIdP側でログインを取り消したことを示す。
	StatusCancelled AssertionStatus = "cancelled"
	// StatusFailure は検証失敗を示す。
	StatusFailure AssertionStatus = "failure"
	// StatusSetupNeeded はimmediateリクエストが失敗し、対話的な認証が必要なことを示す。
	StatusSetupNeeded AssertionStatus = "setup_needed"
)

// Assertion はIdPからのコールバック検証結果を表す。
type Assertion struct {
	Status AssertionStatus
	// Identity は検証済みアイデンティティ文字列。Statusがsuccessの場合のみ設定される。
	Identity string
}

// DiscoveryError はユーザー入力のidentifierに対するディスカバリ失敗を表す。
// ハンドラーはこのエラーをリダイレクトではなくインラインメッセージとして表示する。
type DiscoveryError struct {
	Identifier string
	Err        error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for identifier %q: %v", e.Identifier, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Provider はOpenID認証プロバイダーのインターフェース。
// プロトコルの実装はライブラリに委譲し、本システムは終端状態の分類のみを担う。
type Provider interface {
	// BeginAuth はidentifierに対するディスカバリを行い、IdPへのリダイレクトURLを返す。
	// ディスカバリに失敗した場合は*DiscoveryErrorを返す。
	BeginAuth(identifier, callbackURL, realm string) (string, error)
	// CompleteAuth はIdPからのコールバックを検証し、終端状態を返す。
	CompleteAuth(requestURL string, params url.Values) *Assertion
}

// OpenIDProvider はOpenID 2.0プロトコルによる認証を提供する。
// ディスカバリ、リダイレクトURL構築、アサーション検証の全てを
// yohcop/openid-goに委譲する。
type OpenIDProvider struct {
	oid        *openid.OpenID
	cache      openid.DiscoveryCache
	nonceStore openid.NonceStore
}

// NewOpenIDProvider はOpenIDProviderを生成する。
// clientにはSSRF防止付きのHTTPクライアントを渡すこと。
// ディスカバリはユーザーが入力したURLへサーバーからリクエストを送るため、
// 素のhttp.DefaultClientを使ってはならない。
func NewOpenIDProvider(client *http.Client) *OpenIDProvider {
	return &OpenIDProvider{
		oid:        openid.NewOpenID(client),
		cache:      openid.NewSimpleDiscoveryCache(),
		nonceStore: openid.NewSimpleNonceStore(),
	}
}

// BeginAuth はidentifierに対するディスカバリを行い、IdPへのリダイレクトURLを返す。
func (p *OpenIDProvider) BeginAuth(identifier, callbackURL, realm string) (string, error) {
	redirectURL, err := p.oid.RedirectURL(identifier, callbackURL, realm)
	if err != nil {
		return "", &DiscoveryError{Identifier: identifier, Err: err}
	}
	return redirectURL, nil
}

// CompleteAuth はIdPからのコールバックを検証し、終端状態を返す。
// openid.modeによる明示的な取り消し・setup_neededを先に分類し、
// それ以外はアサーション検証の成否でsuccess/failureに分ける。
func (p *OpenIDProvider) CompleteAuth(requestURL string, params url.Values) *Assertion {
	switch params.Get("openid.mode") {
	case "cancel":
		return &Assertion{Status: StatusCancelled}
	case "setup_needed":
		return &Assertion{Status: StatusSetupNeeded}
	}

	identity, err := p.oid.Verify(requestURL, p.cache, p.nonceStore)
	if err != nil {
		return &Assertion{Status: StatusFailure}
	}

	return &Assertion{Status: StatusSuccess, Identity: identity}
}

// compile-time interface check
var _ Provider = (*OpenIDProvider)(nil)
