package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/services"
)

const defaultGraphURL = "https://graph.microsoft.com/v1.0"

// MicrosoftProvider drives the primary sign-in lane. The oauth2
// library performs the identity provider's code exchange; this
// provider only consumes the result and reads the user's profile.
type MicrosoftProvider struct {
	oauth    *oauth2.Config
	client   *http.Client
	graphURL string
}

// NewMicrosoftProvider creates the Azure AD OAuth provider
func NewMicrosoftProvider(cfg *config.Config) *MicrosoftProvider {
	return &MicrosoftProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.AzureClientID,
			ClientSecret: cfg.AzureClientSecret,
			RedirectURL:  cfg.AzureRedirectURL,
			Scopes:       []string{"openid", "email", "profile", "User.Read", "offline_access"},
			Endpoint:     microsoft.AzureADEndpoint(cfg.AzureTenantID),
		},
		client:   &http.Client{Timeout: cfg.OAuthTimeout},
		graphURL: defaultGraphURL,
	}
}

// Enabled reports whether the provider has credentials configured
func (p *MicrosoftProvider) Enabled() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

// AuthCodeURL builds the provider's authorization URL for the given state
func (p *MicrosoftProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange redeems an authorization code for provider tokens
func (p *MicrosoftProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return tok, nil
}

type graphProfile struct {
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
	JobTitle          string `json:"jobTitle"`
}

// FetchUserInfo reads the signed-in user's profile and photo from the
// Graph API. The photo is best effort; many accounts have none.
func (p *MicrosoftProvider) FetchUserInfo(
	ctx context.Context,
	tok *oauth2.Token,
) (*services.UserInfo, error) {
	body, err := p.graphGet(ctx, tok, "/me")
	if err != nil {
		return nil, err
	}

	var profile graphProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	email := profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}
	if email == "" {
		return nil, fmt.Errorf("%w: profile has no email", ErrUserInfo)
	}

	user := &services.UserInfo{
		Email:    email,
		Name:     profile.DisplayName,
		JobTitle: profile.JobTitle,
	}

	if photo, err := p.graphGet(ctx, tok, "/me/photo/$value"); err != nil {
		log.Printf("microsoft: no profile photo for %s: %v", email, err)
	} else {
		user.PhotoBase64 = base64.StdEncoding.EncodeToString(photo)
	}

	return user, nil
}

func (p *MicrosoftProvider) graphGet(
	ctx context.Context,
	tok *oauth2.Token,
	path string,
) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	tok.SetAuthHeader(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUserInfo, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
