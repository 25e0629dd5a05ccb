package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewClient verifies the constructor creates a properly configured client.
func TestNewClient(t *testing.T) {
	client := NewClient("test-token", "octocat", "hello")

	if client.Token != "test-token" {
		t.Errorf("Token = %q, want %q", client.Token, "test-token")
	}
	if client.BaseURL != DefaultAPIEndpoint {
		t.Errorf("BaseURL = %q, want %q", client.BaseURL, DefaultAPIEndpoint)
	}
	if client.RepoPath() != "octocat/hello" {
		t.Errorf("RepoPath() = %q, want %q", client.RepoPath(), "octocat/hello")
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient is nil, want non-nil default client")
	}
}

// TestRemoteURL verifies authenticated clone URL construction.
func TestRemoteURL(t *testing.T) {
	client := NewClient("s3cret", "octocat", "hello")

	want := "https://s3cret@github.com/octocat/hello.git"
	if got := client.RemoteURL(); got != want {
		t.Errorf("RemoteURL() = %q, want %q", got, want)
	}

	wantWiki := "https://s3cret@github.com/octocat/hello.wiki.git"
	if got := client.WikiRemoteURL(); got != wantWiki {
		t.Errorf("WikiRemoteURL() = %q, want %q", got, wantWiki)
	}
}

// TestGetPageFollowsLinkHeader verifies pages are chained via the Link
// header until the next relation disappears.
func TestGetPageFollowsLinkHeader(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		switch r.URL.Path {
		case "/repos/octocat/hello/labels":
			w.Header().Set("Link", fmt.Sprintf(`<%s/page2>; rel="next", <%s/page2>; rel="last"`, server.URL, server.URL))
			fmt.Fprint(w, `[{"name": "bug", "color": "f00"}]`)
		case "/page2":
			fmt.Fprint(w, `[{"name": "feature", "color": "0f0"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient("test-token", "octocat", "hello").WithBaseURL(server.URL)

	page, err := client.GetPage(context.Background(), "/repos/octocat/hello/labels", nil)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(page.Items))
	}
	if page.NextURL != server.URL+"/page2" {
		t.Errorf("NextURL = %q, want %q", page.NextURL, server.URL+"/page2")
	}

	page, err = client.GetPageURL(context.Background(), page.NextURL)
	if err != nil {
		t.Fatalf("GetPageURL: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(page.Items))
	}
	if page.NextURL != "" {
		t.Errorf("NextURL = %q, want empty on last page", page.NextURL)
	}
}

// TestGetPageQueryParams verifies caller params and per_page reach the server.
func TestGetPageQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("state"); got != "all" {
			t.Errorf("state = %q, want %q", got, "all")
		}
		if got := q.Get("sort"); got != "created" {
			t.Errorf("sort = %q, want %q", got, "created")
		}
		if got := q.Get("per_page"); got != "100" {
			t.Errorf("per_page = %q, want %q", got, "100")
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient("token", "octocat", "hello").WithBaseURL(server.URL)
	page, err := client.GetPage(context.Background(), "/repos/octocat/hello/pulls", map[string]string{
		"state": "all",
		"sort":  "created",
	})
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0", len(page.Items))
	}
}

// TestGetPageRetriesRateLimit verifies a 429 is retried and succeeds.
func TestGetPageRetriesRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `[{"name": "bug"}]`)
	}))
	defer server.Close()

	client := NewClient("token", "octocat", "hello").WithBaseURL(server.URL)
	client.HTTPClient = &http.Client{Timeout: 5 * time.Second}

	page, err := client.GetPage(context.Background(), "/repos/octocat/hello/labels", nil)
	if err != nil {
		t.Fatalf("GetPage after rate limit: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(page.Items) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(page.Items))
	}
}

// TestGetPageSurfacesAPIErrors verifies non-2xx responses fail without retry.
func TestGetPageSurfacesAPIErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))
	defer server.Close()

	client := NewClient("bad-token", "octocat", "hello").WithBaseURL(server.URL)

	_, err := client.GetPage(context.Background(), "/repos/octocat/hello/labels", nil)
	if err == nil {
		t.Fatal("GetPage = nil error, want API error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on auth failure)", calls)
	}
}
