package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/neonvariant/sitestats/pkg/cache"
	"github.com/neonvariant/sitestats/pkg/errors"
	"github.com/neonvariant/sitestats/pkg/httputil"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Owner:   "octo",
		BaseURL: serverURL,
		Cache:   cache.NewMemoryCache(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestListReposFollowsLinkHeader(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/octo/repos" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/octo/repos?page=2>; rel="next"`, server.URL))
			json.NewEncoder(w).Encode([]Repo{
				{Name: "alpha", FullName: "octo/alpha", Stars: 10, Forks: 2},
				{Name: "beta", FullName: "octo/beta", Stars: 5, Forks: 1},
			})
		case "2":
			json.NewEncoder(w).Encode([]Repo{
				{Name: "gamma", FullName: "octo/gamma", Stars: 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	repos, err := c.ListRepos(context.Background())
	if err != nil {
		t.Fatalf("ListRepos failed: %v", err)
	}
	if len(repos) != 3 {
		t.Fatalf("got %d repos, want 3", len(repos))
	}
	if repos[2].Name != "gamma" {
		t.Errorf("last repo = %q, want gamma", repos[2].Name)
	}
}

func TestListReposPrimesRepoCache(t *testing.T) {
	var repoCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/octo/repos":
			json.NewEncoder(w).Encode([]Repo{{Name: "alpha", FullName: "octo/alpha", Stars: 42}})
		case "/repos/octo/alpha":
			repoCalls.Add(1)
			json.NewEncoder(w).Encode(Repo{Name: "alpha", FullName: "octo/alpha", Stars: 42})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx := context.Background()

	if _, err := c.ListRepos(ctx); err != nil {
		t.Fatalf("ListRepos failed: %v", err)
	}

	repo, err := c.GetRepo(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetRepo failed: %v", err)
	}
	if repo.Stars != 42 {
		t.Errorf("Stars = %d, want 42", repo.Stars)
	}
	if got := repoCalls.Load(); got != 0 {
		t.Errorf("GetRepo hit the network %d times after a primed listing, want 0", got)
	}
}

func TestGetRepoCachesResponse(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Repo{Name: "alpha", Stars: 7, Forks: 3, OpenIssues: 1})
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		repo, err := c.GetRepo(ctx, "alpha")
		if err != nil {
			t.Fatalf("GetRepo failed: %v", err)
		}
		if repo.Forks != 3 {
			t.Errorf("Forks = %d, want 3", repo.Forks)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestGetRepoNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.GetRepo(context.Background(), "ghost")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetRepo error = %v, want NOT_FOUND", err)
	}
}

func TestNewClientRejectsBadOwner(t *testing.T) {
	for _, owner := range []string{"", "a/../b", "owner\x00"} {
		if _, err := NewClient(Config{Owner: owner}); !errors.Is(err, errors.ErrCodeConfiguration) {
			t.Errorf("NewClient(%q) error = %v, want CONFIGURATION_ERROR", owner, err)
		}
	}
}

func TestAdapterRateMeta(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "42")
	h.Set("X-RateLimit-Reset", "1700000000")
	h.Set("Retry-After", "7")

	meta := adapter{}.RateMeta(h)
	if !meta.HasRemaining || meta.Remaining != 42 {
		t.Errorf("Remaining = (%d, %v), want (42, true)", meta.Remaining, meta.HasRemaining)
	}
	if meta.ResetAt.Unix() != 1700000000 {
		t.Errorf("ResetAt = %v, want unix 1700000000", meta.ResetAt)
	}
	if meta.RetryAfter.Seconds() != 7 {
		t.Errorf("RetryAfter = %v, want 7s", meta.RetryAfter)
	}
}

func TestAdapterClassifiesForbiddenAsRateLimited(t *testing.T) {
	if got := (adapter{}).Classify(http.StatusForbidden); got != httputil.ReasonRateLimited {
		t.Errorf("Classify(403) = %v, want rate limited", got)
	}
	if got := (adapter{}).Classify(http.StatusNotFound); got != httputil.ReasonNotFound {
		t.Errorf("Classify(404) = %v, want not found", got)
	}
}

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{`<https://api.github.com/users/octo/repos?page=2>; rel="next", <https://api.github.com/users/octo/repos?page=5>; rel="last"`, "https://api.github.com/users/octo/repos?page=2"},
		{`<https://api.github.com/users/octo/repos?page=5>; rel="last"`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.link != "" {
			h.Set("Link", tt.link)
		}
		if got := ParseLinkNext(h); got != tt.want {
			t.Errorf("ParseLinkNext(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
