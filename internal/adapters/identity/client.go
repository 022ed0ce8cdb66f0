package identity

// Package identity is the HTTP adapter for the upstream identity API. The
// ambient credential lives in the client's cookie jar; callers never handle
// tokens directly.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/europgreen/portal-gateway/internal/domain/auth"
	apperrors "github.com/europgreen/portal-gateway/internal/errors"
	"github.com/europgreen/portal-gateway/internal/ports"
)

// Upstream endpoint paths.
const (
	pathLogin   = "/api/auth/login/"
	pathMe      = "/api/users/me/"
	pathRefresh = "/api/auth/token/refresh/"
	pathLogout  = "/api/auth/logout/"
)

// Config groups construction parameters for Client.
type Config struct {
	// BaseURL is the upstream identity API origin.
	BaseURL string
	// Timeout bounds each upstream call. Defaults to 10s.
	Timeout time.Duration
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// Client implements ports.IdentityProvider against the upstream identity
// API. Each client owns one cookie jar: one client per browser session.
type Client struct {
	base   *url.URL
	client *http.Client
	jar    http.CookieJar
}

// Compile-time conformance.
var (
	_ ports.IdentityProvider    = (*Client)(nil)
	_ ports.CredentialPersister = (*Client)(nil)
	_ ports.ResourceFetcher     = (*Client)(nil)
)

// NewClient builds an identity client with a fresh cookie jar.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse identity base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("identity base URL %q must be absolute", cfg.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		base: base,
		jar:  jar,
		client: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
	}, nil
}

// Login submits credentials and returns the authenticated profile. The
// upstream sets the session and refresh cookies on success; they land in
// the jar.
func (c *Client) Login(ctx context.Context, creds ports.Credentials) (auth.User, error) {
	body, err := json.Marshal(map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return auth.User{}, apperrors.Internal("encode login payload").Wrap(err)
	}

	resp, err := c.do(ctx, http.MethodPost, pathLogin, body)
	if err != nil {
		return auth.User{}, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return auth.User{}, apperrors.FromUpstreamStatus(resp.StatusCode)
	}
	return decodeUser(resp.Body)
}

// CurrentUser fetches the profile for the ambient credential.
func (c *Client) CurrentUser(ctx context.Context) (auth.User, error) {
	resp, err := c.do(ctx, http.MethodGet, pathMe, nil)
	if err != nil {
		return auth.User{}, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return auth.User{}, apperrors.FromUpstreamStatus(resp.StatusCode)
	}
	return decodeUser(resp.Body)
}

// Refresh silently renews the ambient credential. The rotated cookie lands
// in the jar; no body is returned.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, pathRefresh, nil)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return apperrors.FromUpstreamStatus(resp.StatusCode)
	}
	return nil
}

// Logout invalidates the ambient credential upstream.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, pathLogout, nil)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return apperrors.FromUpstreamStatus(resp.StatusCode)
	}
	return nil
}

// FetchResource forwards a data call to the upstream with the ambient
// credential attached. Credential rejections and server faults surface as
// errors; every other status is handed back opaquely.
func (c *Client) FetchResource(ctx context.Context, req ports.ResourceRequest) (ports.ResourceResponse, error) {
	target := c.base.JoinPath(req.Path).String()
	if path, query, ok := strings.Cut(req.Path, "?"); ok {
		target = c.base.JoinPath(path).String() + "?" + query
	}

	var reader io.Reader
	if len(req.Body) > 0 {
		reader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return ports.ResourceResponse{}, apperrors.Internal("build upstream request").Wrap(err)
	}
	copyForwardHeaders(httpReq.Header, req.Header)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return ports.ResourceResponse{}, apperrors.Connectivity("no response from upstream API").Wrap(err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ports.ResourceResponse{}, apperrors.CredentialRejected("upstream rejected the ambient credential")
	case resp.StatusCode >= http.StatusInternalServerError:
		return ports.ResourceResponse{}, apperrors.FromUpstreamStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceBody))
	if err != nil {
		return ports.ResourceResponse{}, apperrors.Connectivity("read upstream response").Wrap(err)
	}
	return ports.ResourceResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

const maxResourceBody = 8 << 20

// forwardedHeaders are the request headers carried through to the upstream.
// Cookies are deliberately absent: the ambient credential comes from the
// jar, never from the browser.
var forwardedHeaders = []string{"Accept", "Accept-Language", "Content-Type"}

func copyForwardHeaders(dst, src http.Header) {
	dst.Set("Accept", "application/json")
	for _, name := range forwardedHeaders {
		if v := src.Get(name); v != "" {
			dst.Set(name, v)
		}
	}
}

// ExportCredentials snapshots the jar's cookie values for the upstream
// origin so a session survives a gateway restart.
func (c *Client) ExportCredentials() ports.CredentialSnapshot {
	cookies := c.jar.Cookies(c.base)
	if len(cookies) == 0 {
		return nil
	}
	snap := make(ports.CredentialSnapshot, len(cookies))
	for _, ck := range cookies {
		snap[ck.Name] = ck.Value
	}
	return snap
}

// RestoreCredentials seeds the jar from a persisted snapshot.
func (c *Client) RestoreCredentials(snapshot ports.CredentialSnapshot) {
	if len(snapshot) == 0 {
		return
	}
	cookies := make([]*http.Cookie, 0, len(snapshot))
	for name, value := range snapshot {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.jar.SetCookies(c.base, cookies)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	target := c.base.JoinPath(path).String()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, apperrors.Internal("build identity request").Wrap(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// No response at all: connectivity failure, not a rejection.
		return nil, apperrors.Connectivity("no response from identity API").Wrap(err)
	}
	return resp, nil
}

func decodeUser(body io.Reader) (auth.User, error) {
	var user auth.User
	if err := json.NewDecoder(body).Decode(&user); err != nil {
		return auth.User{}, apperrors.Internal("decode user profile").Wrap(err)
	}
	return user, nil
}

// drainAndClose discards the remaining body so the connection can be
// reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
