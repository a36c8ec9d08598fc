// Package remote lists an organization's repositories from the GitHub API.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v82/github"
	"github.com/inovacc/reposync/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	pageSize          = 100
	maxRateLimitWaits = 3
)

// Options configures a Fetcher.
type Options struct {
	Token string

	// Host is the GitHub host; anything other than github.com is treated
	// as a GitHub Enterprise server.
	Host string

	// BaseURL overrides the API endpoint entirely.
	BaseURL string

	RequestTimeout    time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	Logger *slog.Logger
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Host:              "github.com",
		RequestTimeout:    30 * time.Second,
		MaxRetries:        3,
		RequestsPerSecond: 10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        2 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Fetcher lists organization repositories with pagination, rate limit
// handling and bounded retry.
type Fetcher struct {
	client  *github.Client
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts Options) (*Fetcher, error) {
	defaults := DefaultOptions()

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaults.RequestTimeout
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaults.InitialBackoff
	}

	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaults.MaxBackoff
	}

	if opts.BackoffMultiplier < 1 {
		opts.BackoffMultiplier = defaults.BackoffMultiplier
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var httpClient *http.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)

	switch {
	case opts.BaseURL != "":
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}

		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}

		client.BaseURL = u
	case opts.Host != "" && opts.Host != "github.com":
		enterprise := "https://" + opts.Host + "/"

		c, err := client.WithEnterpriseURLs(enterprise, enterprise)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub Enterprise host %q: %w", opts.Host, err)
		}

		client = c
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		logger:  logger,
		sleep:   sleepContext,
		now:     time.Now,
	}, nil
}

// ListOrgRepositories returns every repository of org. Either all pages are
// returned or none: a page that still fails after retries discards what was
// fetched so far.
func (f *Fetcher) ListOrgRepositories(ctx context.Context, org string) ([]model.RemoteRepository, error) {
	opt := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	var all []model.RemoteRepository

	for {
		repos, resp, err := f.fetchPage(ctx, org, opt)
		if err != nil {
			return nil, err
		}

		for _, r := range repos {
			all = append(all, convertRepository(r))
		}

		f.logger.Debug("fetched repository page",
			slog.String("org", org),
			slog.Int("page", max(opt.Page, 1)),
			slog.Int("count", len(repos)),
		)

		if resp == nil || resp.NextPage == 0 {
			break
		}

		if err := f.pauseIfExhausted(ctx, resp.Rate); err != nil {
			return nil, err
		}

		opt.Page = resp.NextPage
	}

	return all, nil
}

// fetchPage fetches one page, retrying transient failures and waiting out
// rate limits.
func (f *Fetcher) fetchPage(ctx context.Context, org string, opt *github.RepositoryListByOrgOptions) ([]*github.Repository, *github.Response, error) {
	var (
		lastErr    error
		attempts   int
		limitWaits int
	)

	for attempts <= f.opts.MaxRetries {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, f.opts.RequestTimeout)
		repos, resp, err := f.client.Repositories.ListByOrg(callCtx, org, opt)

		cancel()

		if err == nil {
			return repos, resp, nil
		}

		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		if wait, ok := f.rateLimitWait(err); ok {
			limitWaits++
			if limitWaits > maxRateLimitWaits {
				return nil, nil, &NetworkError{Operation: "list repositories of " + org, Err: err, Attempts: attempts + limitWaits}
			}

			f.logger.Warn("rate limited by GitHub API",
				slog.String("org", org),
				slog.Int("wait", limitWaits),
				slog.Duration("wait_duration", wait),
			)

			if err := f.sleep(ctx, wait); err != nil {
				return nil, nil, err
			}

			continue
		}

		if statusErr := classifyStatus(err, org); statusErr != nil {
			return nil, nil, statusErr
		}

		attempts++
		lastErr = err

		if !isTransientError(err) {
			return nil, nil, fmt.Errorf("failed to list repositories of %s: %w", org, err)
		}

		if attempts > f.opts.MaxRetries {
			break
		}

		backoff := f.calculateBackoff(attempts - 1)
		f.logger.Warn("transient error, retrying",
			slog.String("org", org),
			slog.Int("attempt", attempts),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)

		if err := f.sleep(ctx, backoff); err != nil {
			return nil, nil, err
		}
	}

	return nil, nil, &NetworkError{Operation: "list repositories of " + org, Err: lastErr, Attempts: attempts}
}

// pauseIfExhausted sleeps until the rate limit window resets when the last
// response reported no remaining requests.
func (f *Fetcher) pauseIfExhausted(ctx context.Context, r github.Rate) error {
	if r.Limit <= 0 || r.Remaining > 0 {
		return nil
	}

	wait := r.Reset.Sub(f.now()) + time.Second
	if wait <= 0 {
		return nil
	}

	f.logger.Warn("rate limit exhausted, pausing until reset",
		slog.Time("reset_at", r.Reset.Time),
		slog.Duration("wait_duration", wait),
	)

	return f.sleep(ctx, wait)
}

func (f *Fetcher) rateLimitWait(err error) (time.Duration, bool) {
	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		wait := rateLimitErr.Rate.Reset.Sub(f.now()) + time.Second

		return max(wait, time.Second), true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		wait := abuseErr.GetRetryAfter()
		if wait <= 0 {
			wait = f.opts.InitialBackoff
		}

		return wait, true
	}

	return 0, false
}

func classifyStatus(err error, org string) error {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return nil
	}

	switch ghErr.Response.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrOrgNotFound, org)
	}

	return nil
}

// calculateBackoff computes exponential backoff with jitter
func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	backoff := float64(f.opts.InitialBackoff) * math.Pow(f.opts.BackoffMultiplier, float64(attempt))

	if backoff > float64(f.opts.MaxBackoff) {
		backoff = float64(f.opts.MaxBackoff)
	}

	// 10% jitter
	jitter := backoff * 0.1 * (rand.Float64()*2 - 1)
	backoff += jitter

	return time.Duration(backoff)
}

// isTransientError reports whether err is worth retrying.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode >= http.StatusInternalServerError
	}

	errStr := strings.ToLower(err.Error())
	transientIndicators := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"eof",
	}

	for _, indicator := range transientIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

func convertRepository(r *github.Repository) model.RemoteRepository {
	return model.RemoteRepository{
		ID:              r.GetID(),
		Name:            r.GetName(),
		Private:         r.GetPrivate(),
		CreatedAt:       r.GetCreatedAt().Time,
		UpdatedAt:       r.GetUpdatedAt().Time,
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		HTMLURL:         r.GetHTMLURL(),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
