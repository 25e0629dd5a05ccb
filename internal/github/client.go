package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/cenkalti/backoff/v4"
)

// NewClient creates a new GitHub client for one repository.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    c.BaseURL,
		HTTPClient: httpClient,
	}
}

// WithBaseURL returns a new client with a custom base URL (for testing
// or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	return &Client{
		Token:      c.Token,
		Owner:      c.Owner,
		Repo:       c.Repo,
		BaseURL:    baseURL,
		HTTPClient: c.HTTPClient,
	}
}

// RepoPath returns the "owner/repo" path segment.
func (c *Client) RepoPath() string {
	return c.Owner + "/" + c.Repo
}

// RemoteURL returns the authenticated clone URL for the repository.
func (c *Client) RemoteURL() string {
	return "https://" + c.Token + "@github.com/" + c.RepoPath() + ".git"
}

// WikiRemoteURL returns the authenticated clone URL for the companion
// wiki repository.
func (c *Client) WikiRemoteURL() string {
	return "https://" + c.Token + "@github.com/" + c.RepoPath() + ".wiki.git"
}

// Page is one batch of a paginated collection. NextURL is the full URL
// of the following page, or "" when the collection is exhausted.
type Page struct {
	Items   []json.RawMessage
	NextURL string
}

// GetPage fetches the first page of a collection endpoint, e.g.
// "/repos/owner/repo/labels". Params are added to the query string;
// per_page is always set.
func (c *Client) GetPage(ctx context.Context, path string, params map[string]string) (*Page, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("per_page", strconv.Itoa(MaxPageSize))
	return c.GetPageURL(ctx, c.BaseURL+path+"?"+values.Encode())
}

// GetPageURL fetches a page by its full URL, as handed back in a prior
// page's NextURL. The pagination cursor is opaque to callers.
func (c *Client) GetPageURL(ctx context.Context, urlStr string) (*Page, error) {
	body, headers, err := c.get(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse collection response: %w", err)
	}

	next, _ := nextPageURL(headers)
	return &Page{Items: items, NextURL: next}, nil
}

// get performs an authenticated GET with rate-limit retry. Transport
// errors and rate limiting are retried with exponential backoff;
// any other non-2xx response fails immediately.
func (c *Client) get(ctx context.Context, urlStr string) ([]byte, http.Header, error) {
	var respBody []byte
	var respHeader http.Header

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = RetryDelay
	bo.MaxElapsedTime = MaxRetryElapsed

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		const maxResponseSize = 50 * 1024 * 1024
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		// GitHub signals rate limiting with 429, or 403 plus an
		// exhausted X-RateLimit-Remaining. Both are retryable; anything
		// else non-2xx is permanent.
		if resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0") {
			return fmt.Errorf("rate limited: %s", resp.Status)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("API error: %s (status %d)", string(body), resp.StatusCode))
		}

		respBody = body
		respHeader = resp.Header
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, nil, err
	}
	return respBody, respHeader, nil
}

// linkNextPattern matches the "next" relation in GitHub Link headers.
var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// nextPageURL extracts the next page URL from the Link header.
func nextPageURL(headers http.Header) (string, bool) {
	link := headers.Get("Link")
	if link == "" {
		return "", false
	}
	matches := linkNextPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}
