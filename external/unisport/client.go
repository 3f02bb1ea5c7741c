package unisport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"

	"github.com/unisportai/unisport-sync/internal/platform/logging"
	"github.com/unisportai/unisport-sync/internal/platform/resilience"
	"github.com/unisportai/unisport-sync/internal/usecase"
)

const responseBodyLimit = 6 << 20

var errUnisportTransient = crerr.New("unisport transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	LocationsURL   string
	OffersURL      string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RequestDelay   time.Duration
	Logger         *logging.Logger
	CircuitEnabled bool
	CircuitCount   int
	CircuitTimeout time.Duration
}

// Client fetches the sports-program site and extracts typed records from
// its pages. It implements usecase.CatalogProvider.
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	locationsURL   string
	offersURL      string
	userAgent      string
	maxRetries     int
	requestDelay   time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        base,
		locationsURL:   strings.TrimSpace(cfg.LocationsURL),
		offersURL:      strings.TrimSpace(cfg.OffersURL),
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		requestDelay:   cfg.RequestDelay,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitCount, cfg.CircuitTimeout),
		circuitEnabled: cfg.CircuitEnabled,
	}, nil
}

// FetchLocationBundle loads the map page and extracts markers, the menu
// sports groups and the menu detail links from the one document.
func (c *Client) FetchLocationBundle(ctx context.Context) (usecase.ExternalLocationBundle, error) {
	raw, err := c.get(ctx, c.locationsURL)
	if err != nil {
		return usecase.ExternalLocationBundle{}, fmt.Errorf("fetch locations page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return usecase.ExternalLocationBundle{}, fmt.Errorf("parse locations page: %w", err)
	}

	markers, dropped := parseMarkers(string(raw))
	if dropped > 0 {
		c.logger.WarnContext(ctx, "map markers dropped during parsing", "count", dropped)
	}

	return usecase.ExternalLocationBundle{
		Markers:        markers,
		MenuSports:     parseMenuSports(doc),
		MenuLinks:      parseMenuLinks(doc, c.baseURL),
		DroppedMarkers: dropped,
	}, nil
}

// FetchOffers loads the offer index and returns its deduplicated entries.
func (c *Client) FetchOffers(ctx context.Context) ([]usecase.ExternalOffer, error) {
	doc, err := c.getDocument(ctx, c.offersURL)
	if err != nil {
		return nil, fmt.Errorf("fetch offer index: %w", err)
	}

	pageURL, err := url.Parse(c.offersURL)
	if err != nil {
		return nil, fmt.Errorf("parse offers url: %w", err)
	}
	return parseOffers(doc, pageURL), nil
}

// FetchOfferDetail loads one offer page and extracts its metadata and
// course table.
func (c *Client) FetchOfferDetail(ctx context.Context, detailLink string) (usecase.ExternalOfferDetail, error) {
	doc, err := c.getDocument(ctx, detailLink)
	if err != nil {
		return usecase.ExternalOfferDetail{}, fmt.Errorf("fetch offer page: %w", err)
	}

	pageURL, err := url.Parse(detailLink)
	if err != nil {
		return usecase.ExternalOfferDetail{}, fmt.Errorf("parse offer url: %w", err)
	}

	imageURL, description := parseOfferMetadata(doc, pageURL)
	return usecase.ExternalOfferDetail{
		ImageURL:    imageURL,
		Description: description,
		Courses:     parseCourses(doc, pageURL),
	}, nil
}

// FetchCourseDates loads one course's dates page and extracts its rows.
func (c *Client) FetchCourseDates(ctx context.Context, scheduleHref string) (usecase.ExternalCourseDatesPage, error) {
	doc, err := c.getDocument(ctx, scheduleHref)
	if err != nil {
		return usecase.ExternalCourseDatesPage{}, fmt.Errorf("fetch course dates: %w", err)
	}
	return parseCourseDates(ctx, doc, c.logger), nil
}

func (c *Client) getDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	raw, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("request url is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
	}

	raw, err := c.executeRequest(ctx, rawURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errUnisportTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if c.requestDelay > 0 {
		timer := time.NewTimer(c.requestDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "text/html")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errUnisportTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errUnisportTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: upstream status=%d", errUnisportTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("upstream status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("upstream request failed")
	}
	c.logger.WarnContext(ctx, "unisport request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
