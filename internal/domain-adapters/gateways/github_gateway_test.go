package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/testlibrary/internal/domain/entities"
)

const releasesJSON = `[
  {"tag_name": "1.0.3", "name": "1.0.3", "draft": false, "prerelease": false},
  {"tag_name": "v1.1.0-beta", "name": "beta", "draft": false, "prerelease": true},
  {"tag_name": "2.0.0", "name": "unreleased", "draft": true, "prerelease": false},
  {"tag_name": "1.0.2", "name": "1.0.2", "draft": false, "prerelease": false}
]`

func newGitHubServer(t *testing.T, handler http.HandlerFunc) *HTTPGitHubGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPGitHubGateway("test-token", nil,
		WithGitHubAPI(server.URL+"/"),
		WithGitHubClient(server.Client()),
		WithRetryBackoff(time.Millisecond))
}

// Test creating a new GitHub gateway
func TestNewHTTPGitHubGateway(t *testing.T) {
	gateway := NewHTTPGitHubGateway("test-token", nil)
	require.NotNil(t, gateway)

	assert.Equal(t, "test-token", gateway.token)
	assert.Equal(t, defaultGitHubAPI, gateway.apiBaseURL)
}

func TestGitHubGateway_PublishedReleases(t *testing.T) {
	gateway := newGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/OdNairy/TestBinaryDependency/releases" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(releasesJSON))
	})

	releases, err := gateway.PublishedReleases(context.Background(), "OdNairy/TestBinaryDependency")
	require.NoError(t, err)

	assert.Equal(t, []entities.PublishedRelease{
		{Version: "1.0.3", Tag: "1.0.3"},
		{Version: "1.1.0-beta", Tag: "v1.1.0-beta", Prerelease: true},
		{Version: "1.0.2", Tag: "1.0.2"},
	}, releases, "drafts are skipped")
}

// Test get releases not found
func TestGitHubGateway_PublishedReleases_NotFound(t *testing.T) {
	gateway := newGitHubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})

	_, err := gateway.PublishedReleases(context.Background(), "missing/repo")

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestGitHubGateway_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	gateway := newGitHubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	releases, err := gateway.PublishedReleases(context.Background(), "OdNairy/TestBinaryDependency")
	require.NoError(t, err)
	assert.Empty(t, releases)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGitHubGateway_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	gateway := newGitHubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := gateway.PublishedReleases(context.Background(), "OdNairy/TestBinaryDependency")
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestGitHubGateway_RateLimitExhausted(t *testing.T) {
	gateway := newGitHubServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := gateway.PublishedReleases(context.Background(), "OdNairy/TestBinaryDependency")
	assert.ErrorContains(t, err, "resets at 2023-11-14T22:13:20Z")
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{10, maxBackoff},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(initialBackoff, tt.attempt), "attempt %d", tt.attempt)
	}
}
