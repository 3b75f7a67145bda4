// Package oauth wraps golang.org/x/oauth2 for the configured sign-in
// providers: authorization redirect with PKCE, code exchange and userinfo.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/AlibekovAA/session-auth/internal/common/config"
	"github.com/AlibekovAA/session-auth/internal/common/constants"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrUserInfo        = errors.New("failed to fetch oauth userinfo")
)

// Profile is the subset of a provider's userinfo document the service uses.
type Profile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	GivenName         string
	FamilyName        string
	Image             string
}

type Provider struct {
	id                string
	oauth             oauth2.Config
	userInfoURL       string
	allowEmailLinking bool
	httpClient        *http.Client
}

func (p *Provider) ID() string {
	return p.id
}

func (p *Provider) AllowEmailLinking() bool {
	return p.allowEmailLinking
}

// HasRedirectURL reports whether the callback URL was configured explicitly.
func (p *Provider) HasRedirectURL() bool {
	return p.oauth.RedirectURL != ""
}

// AuthCodeURL builds the provider redirect with the given state and the S256
// challenge derived from verifier.
func (p *Provider) AuthCodeURL(state, verifier, redirectURL string) string {
	cfg := p.config(redirectURL)
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

func (p *Provider) Exchange(ctx context.Context, code, verifier, redirectURL string) (*oauth2.Token, error) {
	cfg := p.config(redirectURL)
	token, err := cfg.Exchange(p.withClient(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}
	return token, nil
}

// FetchProfile reads the userinfo endpoint with token and maps the common
// OpenID Connect and GitHub-style field names onto Profile.
func (p *Provider) FetchProfile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.OAuthUserInfoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	req.Header.Set("Accept", "application/json")

	client := p.oauth.Client(p.withClient(ctx), token)
	resp, err := client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var doc map[string]any
	dec := json.NewDecoder(io.LimitReader(resp.Body, constants.OAuthUserInfoMaxBytes))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	profile := mapProfile(p.id, doc)
	if profile.ProviderAccountID == "" {
		return Profile{}, fmt.Errorf("%w: userinfo has no subject", ErrUserInfo)
	}
	return profile, nil
}

func (p *Provider) config(redirectURL string) oauth2.Config {
	cfg := p.oauth
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = redirectURL
	}
	return cfg
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func mapProfile(provider string, doc map[string]any) Profile {
	return Profile{
		Provider:          provider,
		ProviderAccountID: firstString(doc, "sub", "id", "user_id"),
		Email:             firstString(doc, "email"),
		EmailVerified:     boolField(doc, "email_verified") || boolField(doc, "verified_email"),
		Name:              firstString(doc, "name", "login", "preferred_username"),
		GivenName:         firstString(doc, "given_name"),
		FamilyName:        firstString(doc, "family_name"),
		Image:             firstString(doc, "picture", "avatar_url"),
	}
}

func firstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func boolField(doc map[string]any, key string) bool {
	switch v := doc[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// Registry holds the configured providers by lower-case id.
type Registry struct {
	providers map[string]*Provider
}

func NewRegistry(cfgs []config.OAuthProviderConfig, httpClient *http.Client) *Registry {
	providers := make(map[string]*Provider, len(cfgs))
	for _, c := range cfgs {
		providers[strings.ToLower(c.ID)] = &Provider{
			id: strings.ToLower(c.ID),
			oauth: oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  c.AuthURL,
					TokenURL: c.TokenURL,
				},
				RedirectURL: c.RedirectURL,
				Scopes:      c.Scopes,
			},
			userInfoURL:       c.UserInfoURL,
			allowEmailLinking: c.AllowEmailLinking,
			httpClient:        httpClient,
		}
	}
	return &Registry{providers: providers}
}

func (r *Registry) Get(id string) (*Provider, error) {
	p, ok := r.providers[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return p, nil
}

func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) Len() int {
	return len(r.providers)
}
