package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ochairo/testlibrary/internal/domain/entities"
	"github.com/ochairo/testlibrary/internal/domain/interfaces"
)

const (
	// Max retries for transient errors
	maxRetries = 3
	// Initial backoff duration
	initialBackoff = 1 * time.Second
	// Max backoff duration
	maxBackoff = 32 * time.Second

	defaultGitHubAPI = "https://api.github.com"
)

// HTTPGitHubGateway lists GitHub releases over the REST API
type HTTPGitHubGateway struct {
	client     *http.Client
	apiBaseURL string
	token      string
	userAgent  string
	backoff    time.Duration
	logger     interfaces.Logger
}

// GitHubGatewayOption configures an HTTPGitHubGateway
type GitHubGatewayOption func(*HTTPGitHubGateway)

// WithGitHubAPI points the gateway at a different API root (GitHub Enterprise, tests)
func WithGitHubAPI(baseURL string) GitHubGatewayOption {
	return func(g *HTTPGitHubGateway) {
		if baseURL != "" {
			g.apiBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithGitHubClient sets the HTTP client
func WithGitHubClient(client *http.Client) GitHubGatewayOption {
	return func(g *HTTPGitHubGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithRetryBackoff sets the initial retry backoff
func WithRetryBackoff(d time.Duration) GitHubGatewayOption {
	return func(g *HTTPGitHubGateway) {
		g.backoff = d
	}
}

// NewHTTPGitHubGateway creates a new GitHub gateway. token may be empty.
func NewHTTPGitHubGateway(token string, logger interfaces.Logger, opts ...GitHubGatewayOption) *HTTPGitHubGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	g := &HTTPGitHubGateway{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiBaseURL: defaultGitHubAPI,
		token:      token,
		userAgent:  "testlibrary/1.0",
		backoff:    initialBackoff,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// checkRateLimit checks GitHub API rate limit headers and returns error if exhausted
func (g *HTTPGitHubGateway) checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil // No rate limit header, continue
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil {
		return nil // Invalid header, ignore
	}

	// If exhausted, return error immediately (don't wait in tests/CI)
	if remainingInt == 0 {
		resetTime := resp.Header.Get("X-RateLimit-Reset")
		if resetTime != "" {
			if resetUnix, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				resetAt := time.Unix(resetUnix, 0)
				return fmt.Errorf("GitHub API rate limit exceeded (0 remaining), resets at %s", resetAt.UTC().Format(time.RFC3339))
			}
		}
		return fmt.Errorf("GitHub API rate limit exceeded (0 remaining)")
	}

	if remainingInt <= 10 {
		g.logger.Warn("GitHub API rate limit low", interfaces.F("remaining", remainingInt))
	}

	return nil
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func calculateBackoff(initial time.Duration, attempt int) time.Duration {
	backoff := float64(initial) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// doWithRetry executes an HTTP request with exponential backoff retry
func (g *HTTPGitHubGateway) doWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(calculateBackoff(g.backoff, attempt-1)):
			}
		}

		resp, err = g.client.Do(req)
		if err != nil {
			// Network errors are retryable unless the caller gave up
			if attempt < maxRetries && req.Context().Err() == nil {
				continue
			}
			return nil, err
		}

		if rateLimitErr := g.checkRateLimit(resp); rateLimitErr != nil {
			//nolint:errcheck,gosec // G104: Best effort close on rate limit error
			resp.Body.Close()
			return nil, rateLimitErr
		}

		// Success or non-retryable error
		if !isRetryableError(resp.StatusCode) {
			return resp, nil
		}

		if attempt < maxRetries {
			//nolint:errcheck,gosec // G104: Best effort close before retry
			resp.Body.Close()
			g.logger.Debug("retrying GitHub API request",
				interfaces.F("url", req.URL.String()),
				interfaces.F("status", resp.StatusCode),
				interfaces.F("attempt", attempt+1))
			continue
		}

		// Max retries reached
		return resp, nil
	}

	return resp, err
}

// githubRelease represents the GitHub API release format
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// PublishedReleases lists non-draft releases of repository ("owner/repo"), newest first
func (g *HTTPGitHubGateway) PublishedReleases(ctx context.Context, repository string) ([]entities.PublishedRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=100", g.apiBaseURL, repository)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.doWithRetry(req)
	if err != nil {
		return nil, fmt.Errorf("GitHub API request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: readStatus(resp)}
	}

	var releases []githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub response: %w", err)
	}

	out := make([]entities.PublishedRelease, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		out = append(out, entities.PublishedRelease{
			Version:    strings.TrimPrefix(r.TagName, "v"),
			Tag:        r.TagName,
			Prerelease: r.Prerelease,
		})
	}

	return out, nil
}

// readStatus returns the response status followed by up to 512 bytes of body
func readStatus(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(body) == 0 {
		return resp.Status
	}
	return resp.Status + ": " + strings.TrimSpace(string(body))
}
