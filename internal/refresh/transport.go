// Package refresh is the client half of the token refresh protocol: a
// RoundTripper that attaches the current access token to outgoing
// requests and, when the token is stale, suspends the request while it
// obtains a new one from the mint endpoint.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Error wraps an interceptor-level failure. The message is safe to
// show to the user; the original request is rejected, never silently
// retried.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("refresh: %s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transport holds the per-session mutable token state. The mutex is
// held across the refresh call so concurrent requests that observe a
// stale token wait for a single refresh instead of each issuing one.
type Transport struct {
	// Base is the underlying RoundTripper; http.DefaultTransport when nil
	Base http.RoundTripper

	endpoint string       // mint endpoint URL
	client   *http.Client // credentialed client for refresh calls

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTransport creates a refresh transport. The jar carries the
// session cookies the mint endpoint needs; pass the same jar the
// surrounding client uses.
func NewTransport(endpoint string, jar http.CookieJar, timeout time.Duration) *Transport {
	return &Transport{
		endpoint: endpoint,
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}
}

// SetToken installs a token and its expiry, e.g. after initial sign-in
func (t *Transport) SetToken(token string, expiry time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	t.expiry = expiry
}

// RoundTrip implements http.RoundTripper. With no token held the
// request is forwarded unauthenticated; with a fresh token it gains an
// Authorization header; with a stale token the refresh happens first.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.currentToken(req.Context())
	if err != nil {
		return nil, err
	}

	if tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// currentToken returns a token fit for attaching, refreshing it when
// stale. Callers holding no token at all stay unauthenticated.
func (t *Transport) currentToken(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token == "" {
		return "", nil
	}
	if time.Now().Before(t.expiry) {
		return t.token, nil
	}

	// Stale. The lock is deliberately held through the network call:
	// that is the single-flight guarantee.
	token, expiry, err := t.fetch(ctx)
	if err != nil {
		return "", &Error{Message: "session refresh failed", Err: err}
	}

	t.token = token
	t.expiry = expiry
	return token, nil
}

type mintResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

func (t *Transport) fetch(ctx context.Context) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, nil)
	if err != nil {
		return "", time.Time{}, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, err
	}

	var minted mintResponse
	if err := json.Unmarshal(body, &minted); err != nil {
		return "", time.Time{}, fmt.Errorf("undecodable mint response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		if minted.Error != "" {
			return "", time.Time{}, fmt.Errorf("mint endpoint: %s", minted.Error)
		}
		return "", time.Time{}, fmt.Errorf("mint endpoint returned HTTP %d", resp.StatusCode)
	}
	if minted.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("mint endpoint returned no token")
	}

	expiry, err := tokenExpiry(minted.AccessToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return minted.AccessToken, expiry, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client has no secret and only needs the deadline for scheduling.
func tokenExpiry(tokenString string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("unparseable access token: %v", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("access token carries no expiry")
	}
	return exp.Time, nil
}
