// Package osuapi is a typed client for the upstream rhythm-game platform's
// REST API: OAuth client-credentials token exchange, single beatmap set
// lookups, per-set and global moderation event streams, and unresolved
// discussion listing. Together with internal/store it returns
// internal/rankerr's AuthFailure, ApiFailure and MissingDatabaseSnapshot
// sentinels; EventLogInconsistent comes from internal/queuelog.
package osuapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/osuqueue/rankdate/internal/rankerr"
)

// Client is a configured handle to the platform's REST API.
type Client struct {
	baseURL string
	http    *http.Client

	// eventPageSize and eventMaxPages configure WalkEvents' underlying
	// EventWalker; see NewClient.
	eventPageSize int
	eventMaxPages int
}

// NewClient builds a Client whose requests carry an OAuth bearer token
// obtained via the client-credentials grant against `POST oauth/token`.
// The returned http.Client caches and refreshes the token automatically;
// tokenExpiryGuard shifts the cached expiry one hour earlier to absorb
// clock skew. eventPageSize and eventMaxPages configure the global event
// walker WalkEvents uses to discover newly qualified/ranked sets; a
// eventPageSize of 0 defaults to 50.
func NewClient(baseURL, clientID, clientSecret string, eventPageSize, eventMaxPages int) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/oauth/token",
		Scopes:       []string{"public"},
	}
	base := cfg.TokenSource(context.Background())
	guarded := oauth2.ReuseTokenSource(nil, tokenExpiryGuard{base})
	if eventPageSize <= 0 {
		eventPageSize = 50
	}
	return &Client{
		baseURL:       baseURL,
		http:          oauth2.NewClient(context.Background(), guarded),
		eventPageSize: eventPageSize,
		eventMaxPages: eventMaxPages,
	}
}

// tokenExpiryGuard wraps an oauth2.TokenSource and pulls the token's
// stated expiry one hour earlier, so ReuseTokenSource refreshes before the
// platform actually rejects it.
type tokenExpiryGuard struct {
	oauth2.TokenSource
}

func (g tokenExpiryGuard) Token() (*oauth2.Token, error) {
	tok, err := g.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", rankerr.AuthFailure, err)
	}
	if !tok.Expiry.IsZero() {
		guarded := *tok
		guarded.Expiry = tok.Expiry.Add(-time.Hour)
		return &guarded, nil
	}
	return tok, nil
}

// getJSON issues a GET against path (relative to baseURL, including any
// query string) and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request for %s: %v", rankerr.ApiFailure, path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request %s: %v", rankerr.ApiFailure, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", rankerr.ApiFailure, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", rankerr.ApiFailure, path, err)
	}
	return nil
}
