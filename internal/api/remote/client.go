package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-journeymate/app/observability/metrics"
	"github.com/FACorreiaa/go-journeymate/config"
	"github.com/FACorreiaa/go-journeymate/internal/types"
)

const maxErrorBody = 4 << 10

// StatusError is returned when the remote API answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap lets callers match with errors.Is(err, types.ErrNotFound) or types.ErrUpstream.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.ErrUnauthenticated
	}
	return types.ErrUpstream
}

// Client talks to the remote REST API that owns tours, favourites and users.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.AppMetrics
}

// NewClient builds a client from configuration.
func NewClient(cfg config.RemoteAPIConfig, logger *slog.Logger) (*Client, error) {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst)
	return New(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}, limiter, logger)
}

// New builds a client around an existing http.Client. A nil limiter disables
// rate limiting.
func New(baseURL string, httpClient *http.Client, limiter *rate.Limiter, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote API base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote API base URL %q: scheme and host are required", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
		metrics:    metrics.Get(),
	}, nil
}

// Tours fetches all tours, optionally restricted to one category.
func (c *Client) Tours(ctx context.Context, categoryID *int64) ([]types.Tour, error) {
	var q url.Values
	if categoryID != nil {
		q = url.Values{"categoryId": {fmt.Sprint(*categoryID)}}
	}
	records, err := c.getList(ctx, "/tours", q, "")
	if err != nil {
		return nil, err
	}
	return types.ToursFromRecords(records), nil
}

// Tour fetches a single tour.
func (c *Client) Tour(ctx context.Context, id int64) (types.Tour, error) {
	var rec types.Record
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tours/%d", id), nil, "", nil, &rec); err != nil {
		return types.Tour{}, err
	}
	return types.TourFromRecord(rec), nil
}

// DiscountedTours fetches the server-side discounted selection.
func (c *Client) DiscountedTours(ctx context.Context) ([]types.Tour, error) {
	records, err := c.getList(ctx, "/tours/discounted", nil, "")
	if err != nil {
		return nil, err
	}
	return types.ToursFromRecords(records), nil
}

// LeavingSoonTours fetches tours starting soon.
func (c *Client) LeavingSoonTours(ctx context.Context) ([]types.Tour, error) {
	records, err := c.getList(ctx, "/tours/leaving-soon", nil, "")
	if err != nil {
		return nil, err
	}
	return types.ToursFromRecords(records), nil
}

// Categories fetches all tour categories.
func (c *Client) Categories(ctx context.Context) ([]types.Category, error) {
	records, err := c.getList(ctx, "/categories", nil, "")
	if err != nil {
		return nil, err
	}
	categories := make([]types.Category, 0, len(records))
	for _, r := range records {
		categories = append(categories, types.CategoryFromRecord(r))
	}
	return categories, nil
}

// Like marks a tour as favourite for the token's user.
func (c *Client) Like(ctx context.Context, token string, tourID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/like/%d", tourID), nil, token, nil, nil)
}

// Unlike removes a tour from the token's user favourites.
func (c *Client) Unlike(ctx context.Context, token string, tourID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/like/%d", tourID), nil, token, nil, nil)
}

// FavouriteTours returns the authoritative favourite set of the token's user.
func (c *Client) FavouriteTours(ctx context.Context, token string) ([]types.Tour, error) {
	records, err := c.getList(ctx, "/favorite-tours", nil, token)
	if err != nil {
		return nil, err
	}
	return types.ToursFromRecords(records), nil
}

// PostInteractions sends a batch of scored interactions to the aggregator.
func (c *Client) PostInteractions(ctx context.Context, token string, batch types.InteractionBatch) error {
	return c.do(ctx, http.MethodPost, "/userinteractions", nil, token, batch, nil)
}

// Company fetches a company profile.
func (c *Client) Company(ctx context.Context, id int64) (types.Company, error) {
	var rec types.Record
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/companies/%d", id), nil, "", nil, &rec); err != nil {
		return types.Company{}, err
	}
	return types.CompanyFromRecord(rec), nil
}

// CompanyTours fetches the tours operated by a company.
func (c *Client) CompanyTours(ctx context.Context, id int64) ([]types.Tour, error) {
	records, err := c.getList(ctx, fmt.Sprintf("/companies/%d/tours", id), nil, "")
	if err != nil {
		return nil, err
	}
	return types.ToursFromRecords(records), nil
}

// getList fetches a JSON list. Bare arrays and the usual envelopes
// ({"data": [...]}, {"items": [...]}, {"$values": [...]}) are accepted.
func (c *Client) getList(ctx context.Context, path string, q url.Values, token string) ([]types.Record, error) {
	var raw any
	if err := c.do(ctx, http.MethodGet, path, q, token, nil, &raw); err != nil {
		return nil, err
	}
	return RecordList(raw), nil
}

// RecordList extracts the object elements of a decoded JSON list payload.
func RecordList(raw any) []types.Record {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range []string{"data", "items", "$values", "result"} {
			if inner, ok := v[key]; ok {
				return RecordList(inner)
			}
		}
	}
	records := make([]types.Record, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, token string, body, out any) (err error) {
	ctx, span := otel.Tracer("RemoteClient").Start(ctx, method+" "+path, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		attrs := metric.WithAttributes(attribute.String("method", method), attribute.String("path", path))
		c.metrics.RemoteRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			c.metrics.RemoteRequestErrorsTotal.Add(ctx, 1, attrs)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err = c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return fmt.Errorf("failed to encode request body: %w", merr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WarnContext(ctx, "Remote API returned error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(msg)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err = dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
