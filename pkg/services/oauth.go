package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/nexora-ai/nexora/pkg/config"
)

// Identity is what an OAuth provider tells us about the logged-in user.
type Identity struct {
	Email    string
	Username string
}

// OAuthService runs the authorization-code flow for the supported providers.
type OAuthService struct {
	configs map[string]*oauth2.Config
}

// NewOAuthService builds the per-provider oauth2 configs. Unconfigured
// providers are simply absent.
func NewOAuthService(cfg config.OAuthConfig) *OAuthService {
	s := &OAuthService{configs: make(map[string]*oauth2.Config)}
	if cfg.Google.Enabled() {
		s.configs["google"] = &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURI,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	if cfg.GitHub.Enabled() {
		s.configs["github"] = &oauth2.Config{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  cfg.GitHub.RedirectURI,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		}
	}
	if cfg.Discord.Enabled() {
		s.configs["discord"] = &oauth2.Config{
			ClientID:     cfg.Discord.ClientID,
			ClientSecret: cfg.Discord.ClientSecret,
			RedirectURL:  cfg.Discord.RedirectURI,
			Endpoint:     endpoints.Discord,
			Scopes:       []string{"identify", "email"},
		}
	}
	return s
}

// AuthURL returns the provider's consent URL for the given CSRF state.
func (s *OAuthService) AuthURL(provider, state string) (string, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return "", fmt.Errorf("oauth provider %q not configured: %w", provider, ErrNotFound)
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades the callback code for a token and fetches the identity.
func (s *OAuthService) Exchange(ctx context.Context, provider, code string) (*Identity, error) {
	cfg, ok := s.configs[provider]
	if !ok {
		return nil, fmt.Errorf("oauth provider %q not configured: %w", provider, ErrNotFound)
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth code exchange failed: %w", err)
	}
	client := cfg.Client(ctx, token)

	switch provider {
	case "google":
		return fetchIdentity(client, "https://www.googleapis.com/oauth2/v2/userinfo",
			func(m map[string]any) Identity {
				return Identity{Email: str(m["email"]), Username: str(m["name"])}
			})
	case "github":
		identity, err := fetchIdentity(client, "https://api.github.com/user",
			func(m map[string]any) Identity {
				return Identity{Email: str(m["email"]), Username: str(m["login"])}
			})
		if err != nil {
			return nil, err
		}
		if identity.Email == "" {
			identity.Email, err = githubPrimaryEmail(client)
			if err != nil {
				return nil, err
			}
		}
		return identity, nil
	case "discord":
		return fetchIdentity(client, "https://discord.com/api/users/@me",
			func(m map[string]any) Identity {
				return Identity{Email: str(m["email"]), Username: str(m["username"])}
			})
	}
	return nil, fmt.Errorf("oauth provider %q not configured: %w", provider, ErrNotFound)
}

func fetchIdentity(client *http.Client, url string, extract func(map[string]any) Identity) (*Identity, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oauth identity: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth identity endpoint returned %d", resp.StatusCode)
	}
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode oauth identity: %w", err)
	}
	identity := extract(m)
	return &identity, nil
}

// githubPrimaryEmail covers accounts whose email is private on the profile.
func githubPrimaryEmail(client *http.Client) (string, error) {
	resp, err := client.Get("https://api.github.com/user/emails")
	if err != nil {
		return "", fmt.Errorf("failed to fetch github emails: %w", err)
	}
	defer resp.Body.Close()
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("failed to decode github emails: %w", err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", fmt.Errorf("github account has no usable email")
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
