package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/AlibekovAA/session-auth/internal/common/config"
)

type fakeProvider struct {
	server       *httptest.Server
	userinfo     map[string]any
	gotVerifier  string
	gotCode      string
	userinfoCode int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{userinfoCode: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		fp.gotCode = r.PostForm.Get("code")
		fp.gotVerifier = r.PostForm.Get("code_verifier")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fp.userinfoCode)
		_ = json.NewEncoder(w).Encode(fp.userinfo)
	})

	fp.server = httptest.NewServer(mux)
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakeProvider) registry() *Registry {
	return NewRegistry([]config.OAuthProviderConfig{{
		ID:                "GitHub",
		ClientID:          "client",
		ClientSecret:      "secret",
		AuthURL:           fp.server.URL + "/authorize",
		TokenURL:          fp.server.URL + "/token",
		UserInfoURL:       fp.server.URL + "/userinfo",
		Scopes:            []string{"read:user", "user:email"},
		AllowEmailLinking: true,
	}}, fp.server.Client())
}

func TestRegistry_Lookup(t *testing.T) {
	fp := newFakeProvider(t)
	reg := fp.registry()

	p, err := reg.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.ID())
	assert.True(t, p.AllowEmailLinking())
	assert.False(t, p.HasRedirectURL())
	assert.Equal(t, []string{"github"}, reg.IDs())

	_, err = reg.Get("gitlab")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestProvider_AuthCodeURLCarriesPKCE(t *testing.T) {
	fp := newFakeProvider(t)
	p, err := fp.registry().Get("github")
	require.NoError(t, err)

	flow, err := NewFlow()
	require.NoError(t, err)

	raw := p.AuthCodeURL(flow.State, flow.Verifier, "https://app.example.com/auth/callback/github")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, flow.State, q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(flow.Verifier), q.Get("code_challenge"))
	assert.Equal(t, "https://app.example.com/auth/callback/github", q.Get("redirect_uri"))
}

func TestProvider_ExchangeAndFetchProfile(t *testing.T) {
	fp := newFakeProvider(t)
	fp.userinfo = map[string]any{
		"id":         12345,
		"login":      "octocat",
		"email":      "octo@example.com",
		"avatar_url": "https://avatars.example.com/octo.png",
	}
	p, err := fp.registry().Get("github")
	require.NoError(t, err)

	ctx := context.Background()
	token, err := p.Exchange(ctx, "the-code", "the-verifier", "https://app.example.com/auth/callback/github")
	require.NoError(t, err)
	assert.Equal(t, "the-code", fp.gotCode)
	assert.Equal(t, "the-verifier", fp.gotVerifier)

	profile, err := p.FetchProfile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Profile{
		Provider:          "github",
		ProviderAccountID: "12345",
		Email:             "octo@example.com",
		Name:              "octocat",
		Image:             "https://avatars.example.com/octo.png",
	}, profile)
}

func TestProvider_FetchProfileOIDCShape(t *testing.T) {
	fp := newFakeProvider(t)
	fp.userinfo = map[string]any{
		"sub":            "g-1",
		"email":          "ada@example.com",
		"email_verified": true,
		"name":           "Ada Lovelace",
		"given_name":     "Ada",
		"family_name":    "Lovelace",
		"picture":        "https://img.example.com/ada.png",
	}
	p, err := fp.registry().Get("github")
	require.NoError(t, err)

	profile, err := p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "provider-access"})
	require.NoError(t, err)
	assert.Equal(t, "g-1", profile.ProviderAccountID)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Ada", profile.GivenName)
	assert.Equal(t, "Lovelace", profile.FamilyName)
}

func TestProvider_FetchProfileErrors(t *testing.T) {
	fp := newFakeProvider(t)
	p, err := fp.registry().Get("github")
	require.NoError(t, err)
	token := &oauth2.Token{AccessToken: "provider-access"}

	fp.userinfo = map[string]any{"email": "nobody@example.com"}
	_, err = p.FetchProfile(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserInfo)

	fp.userinfo = map[string]any{"sub": "x"}
	fp.userinfoCode = http.StatusInternalServerError
	_, err = p.FetchProfile(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserInfo)

	_, err = p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "wrong"})
	assert.ErrorIs(t, err, ErrUserInfo)
}

func TestStateMatches(t *testing.T) {
	assert.True(t, StateMatches("abc", "abc"))
	assert.False(t, StateMatches("abc", "abd"))
	assert.False(t, StateMatches("", ""))
	assert.False(t, StateMatches("abc", ""))
}
