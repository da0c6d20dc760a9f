package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const DefaultGraphURL = "https://graph.microsoft.com/v1.0/me"

var ErrNoEmail = errors.New("identity: provider returned no email")

// GraphProvider signs users in with the Microsoft identity platform and reads
// their profile from Microsoft Graph.
type GraphProvider struct {
	OAuth    *oauth2.Config
	GraphURL string
	Timeout  time.Duration
}

func NewGraphProvider(clientID, clientSecret, redirectURI, tenant string) *GraphProvider {
	if strings.TrimSpace(tenant) == "" {
		tenant = "common"
	}
	return &GraphProvider{
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
			Scopes:       []string{"User.Read"},
		},
		GraphURL: DefaultGraphURL,
		Timeout:  10 * time.Second,
	}
}

func (p *GraphProvider) AuthURL(state, verifier string) string {
	opts := []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("prompt", "select_account")}
	if verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return p.OAuth.AuthCodeURL(state, opts...)
}

type graphProfile struct {
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
}

func (p *GraphProvider) Exchange(ctx context.Context, code, verifier string) (Identity, error) {
	if strings.TrimSpace(code) == "" {
		return Identity{}, errors.New("identity: empty authorization code")
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := p.OAuth.Exchange(ctx, code, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: token exchange: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.GraphURL, nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := p.OAuth.Client(ctx, token).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: profile request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Identity{}, fmt.Errorf("identity: profile status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var profile graphProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Identity{}, fmt.Errorf("identity: profile payload: %w", err)
	}
	email := strings.TrimSpace(profile.Mail)
	if email == "" {
		email = strings.TrimSpace(profile.UserPrincipalName)
	}
	if email == "" {
		return Identity{}, ErrNoEmail
	}
	return Identity{Email: strings.ToLower(email), DisplayName: strings.TrimSpace(profile.DisplayName)}, nil
}
