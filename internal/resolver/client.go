package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	httpclient "github.com/appleboy/go-httpclient"

	"github.com/go-portalgate/portalgate/internal/config"
	"github.com/go-portalgate/portalgate/internal/metrics"
	"github.com/go-portalgate/portalgate/internal/retry"
)

// Client talks to the external backends that enrich a session: the
// BPMS backend (employee mapping, roles, login registration, images),
// the DOTS backend (privileged entitlement mapping) and the employee
// backend's session-bearing endpoint. All calls are bounded by the
// configured timeout and retried at most once.
type Client struct {
	bpmsURL     string
	dotsURL     string
	employeeURL string
	http        *retry.Client
	rec         metrics.Recorder
}

// New creates a resolver client with authenticated outbound transport
func New(cfg *config.Config, rec metrics.Recorder) (*Client, error) {
	authClient, err := httpclient.NewAuthClient(
		cfg.ResolverAuthMode,
		cfg.ResolverAuthSecret,
		httpclient.WithTimeout(cfg.ResolverTimeout),
		httpclient.WithHeaderName(cfg.ResolverAuthHeader),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	return &Client{
		bpmsURL:     cfg.BPMSBaseURL,
		dotsURL:     cfg.DOTSBaseURL,
		employeeURL: cfg.EmployeeBaseURL,
		http: retry.NewClient(
			retry.WithHTTPClient(authClient),
			retry.WithMaxRetries(cfg.ResolverMaxRetries),
			retry.WithInitialRetryDelay(cfg.ResolverRetryDelay),
		),
		rec: rec,
	}, nil
}

// EmployeeByEmail resolves the business-partner mapping for an email.
// A 404 is a valid "no mapping" outcome and returns (nil, nil); a 5xx
// means the backend is only reachable from the corporate network.
func (c *Client) EmployeeByEmail(ctx context.Context, email string) (*EmployeeMapping, error) {
	endpoint := c.bpmsURL + "/bp/email/" + url.PathEscape(email)
	resp, err := c.do(ctx, "employee", http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", ErrNetworkRestricted, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, statusError("employee", resp)
	}

	var body employeeResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	return &body.Data[0], nil
}

// RolesByEmail fetches the standard entitlement list for an email
func (c *Client) RolesByEmail(ctx context.Context, email string) ([]Application, error) {
	endpoint := c.bpmsURL + "/role/all/" + url.PathEscape(email)
	resp, err := c.do(ctx, "roles", http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("roles", resp)
	}

	var body roleResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	return body.TOA, nil
}

// EntitlementsByPartner fetches the privileged entitlement mapping for
// a business partner. An empty result is returned as-is; the strict
// guard decides what it means.
func (c *Client) EntitlementsByPartner(
	ctx context.Context,
	partner, role, status string,
	perPage int,
) ([]Application, error) {
	q := url.Values{}
	q.Set("bp", partner)
	q.Set("user_role", role)
	q.Set("is_active", status)
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint := c.dotsURL + "/mapping-bp-user-types?" + q.Encode()

	resp, err := c.do(ctx, "entitlements", http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("entitlements", resp)
	}

	var body entitlementResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// ApplicationsByEmail fetches the raw application list captured into
// the refresh token at issuance time
func (c *Client) ApplicationsByEmail(ctx context.Context, email string) (json.RawMessage, error) {
	endpoint := c.bpmsURL + "/list-application/" + url.PathEscape(email)
	resp, err := c.do(ctx, "applications", http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError("applications", resp)
	}

	var body applicationListResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	return body.ListApplication, nil
}

// RegisterLogin forwards a freshly minted refresh token to the backend
// login registry. Both sign-in lanes call this with identical payloads.
func (c *Client) RegisterLogin(ctx context.Context, email, refreshToken string) error {
	payload, err := json.Marshal(registerLoginRequest{
		Email:        email,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, "login", http.MethodPost, c.bpmsURL+"/login", payload, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("login", resp)
	}
	return nil
}

// FetchSessionToken retrieves the caller's refresh token from the
// session-bearing endpoint, forwarding the inbound cookie header so
// the endpoint can identify the session.
func (c *Client) FetchSessionToken(ctx context.Context, cookieHeader string) (string, error) {
	endpoint := c.employeeURL + "/api/get-token"
	resp, err := c.do(ctx, "session", http.MethodGet, endpoint, nil, cookieHeader)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d", ErrSessionTokenMissing, resp.StatusCode)
	}

	var body sessionTokenResponse
	if err := decode(resp, &body); err != nil {
		return "", err
	}
	if body.RefreshToken == "" {
		return "", ErrSessionTokenMissing
	}
	return body.RefreshToken, nil
}

// UploadProfileImage stores a profile photo against a business partner.
// Best effort; callers log failures and move on.
func (c *Client) UploadProfileImage(ctx context.Context, bp, imageBase64 string) error {
	payload, err := json.Marshal(uploadImageRequest{BP: bp, ImageData: imageBase64})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, "image", http.MethodPost, c.bpmsURL+"/image", payload, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError("image", resp)
	}
	return nil
}

// do issues one instrumented request through the retrying client
func (c *Client) do(
	ctx context.Context,
	name, method, endpoint string,
	body []byte,
	cookieHeader string,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		c.rec.RecordResolverRequest(name, "error", elapsed)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result := "success"
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result = "http_" + strconv.Itoa(resp.StatusCode)
	}
	c.rec.RecordResolverRequest(name, result, elapsed)
	return resp, nil
}

// statusError drains the response into a bounded preview for logs
func statusError(name string, resp *http.Response) error {
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	return fmt.Errorf("%w: %s returned HTTP %d: %s", ErrUnavailable, name, resp.StatusCode, preview)
}

func decode(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response", ErrInvalidResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
