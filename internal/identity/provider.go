package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okwaro/safaribook/internal/apierror"
)

// Provider verifies bearer tokens against the external identity
// service and feeds the resulting sessions into a Store.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	store      *Store
}

func NewProvider(baseURL, apiKey string, store *Store) *Provider {
	return &Provider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		store: store,
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// GetSession resolves an access token to a session, or nil for an
// empty token.
func (p *Provider) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apierror.FromTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.FromTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apierror.FromResponse(resp.StatusCode, body)
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &Session{UserID: user.ID, Email: user.Email, AccessToken: accessToken}, nil
}

// Refresh resolves the token and publishes the result as a state
// change, signing the store out when verification fails with an
// authentication error.
func (p *Provider) Refresh(ctx context.Context, accessToken string) (*Session, error) {
	session, err := p.GetSession(ctx, accessToken)
	if err != nil {
		if apiErr, ok := err.(*apierror.Error); ok && apiErr.NeedsSignIn() {
			p.store.Set(nil)
		}
		return nil, err
	}
	p.store.Set(session)
	return session, nil
}
