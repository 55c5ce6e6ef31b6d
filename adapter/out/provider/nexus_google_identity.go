package provider

import (
	"context"
	"fmt"

	"nexus_server/core/port/out"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleIdentityConfig holds the OAuth client registration.
type GoogleIdentityConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides google.Endpoint when set.
	Endpoint *oauth2.Endpoint
	// UserInfoEndpoint overrides the userinfo API base URL when set.
	UserInfoEndpoint string
}

// GoogleIdentity implements out.IdentityProvider with Google sign-in
// plus read-only Gmail consent.
type GoogleIdentity struct {
	config           *oauth2.Config
	userInfoEndpoint string
}

var _ out.IdentityProvider = (*GoogleIdentity)(nil)

// NewGoogleIdentity creates a new Google identity provider.
func NewGoogleIdentity(cfg *GoogleIdentityConfig) *GoogleIdentity {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}

	return &GoogleIdentity{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"openid",
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
				gmail.GmailReadonlyScope,
			},
			Endpoint: endpoint,
		},
		userInfoEndpoint: cfg.UserInfoEndpoint,
	}
}

// AuthCodeURL returns the consent URL. Offline access asks for a refresh token.
func (g *GoogleIdentity) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades the authorization code for tokens and reads the profile.
func (g *GoogleIdentity) Exchange(ctx context.Context, code string) (*out.IdentityToken, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	opts := []option.ClientOption{option.WithTokenSource(g.config.TokenSource(ctx, token))}
	if g.userInfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.userInfoEndpoint))
	}

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}

	return &out.IdentityToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Email:        info.Email,
		Name:         info.Name,
		Picture:      info.Picture,
	}, nil
}
