// Package identity acquires and caches bearer tokens from the platform's
// managed-identity endpoint, one cache entry per resource audience.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/stelladora/alt-text-pipeline/internal/pipelineerr"
	internalhttp "github.com/stelladora/alt-text-pipeline/pkg/internal/http"
)

const (
	imdsEndpoint       = "http://169.254.169.254/metadata/identity/oauth2/token"
	imdsAPIVersion     = "2018-02-01"
	identityAPIVersion = "2019-08-01"

	// minResidual is the shortest residual lifetime a cached token may
	// have when served; anything closer to expiry than that is refreshed.
	minResidual = 300 * time.Second

	defaultExpiresIn = 3600 * time.Second
)

// entry is one cached token, keyed by audience hash.
type entry struct {
	accessToken string
	expiry      time.Time
}

// Provider acquires tokens from either the app-specific identity endpoint
// (IDENTITY_ENDPOINT / IDENTITY_HEADER, or their legacy MSI_* aliases) or,
// absent those, the Azure Instance Metadata Service.
type Provider struct {
	httpClient *internalhttp.Client
	endpoint   string
	header     string
	clientID   string

	mu    sync.RWMutex
	cache map[string]entry

	now   func() time.Time
	fetch func(ctx context.Context, audience string) (tokenResponse, error)
}

// NewProvider builds a Provider. endpoint/header come from the
// IDENTITY_ENDPOINT/IDENTITY_HEADER (or legacy MSI_*) environment
// variables; an empty endpoint means "use IMDS".
func NewProvider(endpoint, header, clientID string) *Provider {
	p := &Provider{
		httpClient: internalhttp.NewClient(internalhttp.Config{Timeout: 10 * time.Second}),
		endpoint:   endpoint,
		header:     header,
		clientID:   clientID,
		cache:      make(map[string]entry),
		now:        time.Now,
	}
	p.fetch = p.fetchDefault
	return p
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// GetToken returns a bearer token for audience, serving from cache when
// the cached entry still has at least minResidual left, and refreshing
// otherwise.
func (p *Provider) GetToken(ctx context.Context, audience string) (string, error) {
	canon := canonicalizeAudience(audience)
	key := audienceHash(canon)

	if tok, ok := p.lookup(key); ok {
		return tok, nil
	}

	resp, err := p.fetch(ctx, canon)
	if err != nil {
		var remote *pipelineerr.RemoteError
		if errors.As(err, &remote) && remote.IsTransient() {
			// One retry for a transient identity-endpoint failure (timeout,
			// connection reset, 5xx) before giving up.
			resp, err = p.fetch(ctx, canon)
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: acquire token for %s: %w", pipelineerr.ErrTokenAcquisition, canon, err)
	}

	expiresIn := defaultExpiresIn
	if resp.ExpiresIn != "" {
		if secs, perr := parseSeconds(resp.ExpiresIn); perr == nil {
			expiresIn = time.Duration(secs) * time.Second
		}
	}

	p.store(key, resp.AccessToken, p.now().Add(expiresIn))
	return resp.AccessToken, nil
}

func (p *Provider) lookup(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.cache[key]
	if !ok {
		return "", false
	}
	if e.expiry.Sub(p.now()) < minResidual {
		return "", false
	}
	return e.accessToken, true
}

func (p *Provider) store(key, token string, expiry time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = entry{accessToken: token, expiry: expiry}
}

func (p *Provider) fetchDefault(ctx context.Context, audience string) (tokenResponse, error) {
	if p.endpoint != "" {
		return p.fetchFromEndpoint(ctx, audience)
	}
	return p.fetchFromIMDS(ctx, audience)
}

func (p *Provider) fetchFromEndpoint(ctx context.Context, audience string) (tokenResponse, error) {
	query := map[string]string{
		"resource":    audience,
		"api-version": identityAPIVersion,
	}
	if p.clientID != "" {
		query["client_id"] = p.clientID
	}

	client := internalhttp.NewClient(internalhttp.Config{BaseURL: p.endpoint, Timeout: 10 * time.Second})
	resp, err := client.Do(ctx, internalhttp.Request{
		Method: http.MethodGet,
		Query:  query,
		Headers: map[string]string{
			"X-IDENTITY-HEADER": p.header,
			"Metadata":          "true",
		},
	})
	if err != nil {
		return tokenResponse{}, pipelineerr.NewRemoteError("identity", 0, "", err)
	}
	return decodeTokenResponse(resp)
}

func (p *Provider) fetchFromIMDS(ctx context.Context, audience string) (tokenResponse, error) {
	client := internalhttp.NewClient(internalhttp.Config{BaseURL: imdsEndpoint, Timeout: 10 * time.Second})
	resp, err := client.Do(ctx, internalhttp.Request{
		Method: http.MethodGet,
		Query: map[string]string{
			"resource":    audience,
			"api-version": imdsAPIVersion,
		},
		Headers: map[string]string{"Metadata": "true"},
	})
	if err != nil {
		return tokenResponse{}, pipelineerr.NewRemoteError("identity", 0, "", err)
	}
	return decodeTokenResponse(resp)
}

func decodeTokenResponse(resp *internalhttp.Response) (tokenResponse, error) {
	if resp.StatusCode >= 300 {
		return tokenResponse{}, pipelineerr.NewRemoteError("identity", resp.StatusCode, string(resp.Body), nil)
	}
	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return tokenResponse{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return tokenResponse{}, pipelineerr.NewRemoteError("identity", resp.StatusCode, "response had no access_token", nil)
	}
	return tr, nil
}

// canonicalizeAudience strips a trailing "/.default" suffix and any
// trailing slashes, so "https://x/.default" and "https://x/" key the same
// cache entry.
func canonicalizeAudience(audience string) string {
	a := strings.TrimSuffix(audience, "/.default")
	a = strings.TrimRight(a, "/")
	return a
}

func audienceHash(canon string) string {
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])
}

func parseSeconds(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
