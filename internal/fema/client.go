// In file: internal/fema/client.go

// Package fema fetches NFIP claim records from the OpenFEMA REST API.
package fema

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dileep-u-k/femachat/internal/logger"
	"github.com/dileep-u-k/femachat/internal/version"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint   = "https://www.fema.gov/api/open/v2/FimaNfipClaims"
	DefaultRecordsKey = "FimaNfipClaims"
	DefaultTimeout    = 30 * time.Second
	// DefaultMaxBodyBytes bounds a single response body.
	DefaultMaxBodyBytes = 64 << 20

	cachePrefix = "femacache"
	userAgent   = "FEMAChat/1.0"
)

// QueryParameters are passed to the API verbatim as the query string, e.g.
// {"reportedZipCode": "70119"} or OData options such as "$top".
type QueryParameters map[string]string

// Cache stores raw response bodies. Implementations swallow their own
// errors: a broken cache must never fail a fetch.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

type Options struct {
	Endpoint   string
	RecordsKey string
	Timeout    time.Duration
	HTTPClient *http.Client
	Cache      Cache
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Client performs single, best-effort requests against the claims endpoint.
// There is no retry and no pagination.
type Client struct {
	endpoint   *url.URL
	recordsKey string
	httpClient *http.Client
	cache      Cache
	maxBody    int64
}

func NewClient(opts Options) (*Client, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid FEMA endpoint %q", endpoint)
	}

	key := opts.RecordsKey
	if key == "" {
		key = DefaultRecordsKey
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &Client{
		endpoint:   u,
		recordsKey: key,
		httpClient: httpClient,
		cache:      opts.Cache,
		maxBody:    maxBody,
	}, nil
}

// Fetch returns the raw records for params. A response whose record list is
// empty (or null) yields an empty slice and a nil error; every failure is a
// *FetchError.
func (c *Client) Fetch(ctx context.Context, params QueryParameters) ([]map[string]any, error) {
	requestURL := c.requestURL(params)
	cacheKey := version.GenerateVersionedCacheKey(cachePrefix, requestURL)

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, cacheKey); ok {
			records, err := c.decode(body)
			if err == nil {
				logger.Debug("FEMA cache hit", zap.String("url", requestURL), zap.Int("records", len(records)))
				return records, nil
			}
			logger.Warn("Discarding undecodable cached FEMA response", zap.Error(err))
		}
	}

	body, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	records, err := c.decode(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, body)
	}
	logger.Info("Fetched FEMA claims", zap.String("url", requestURL), zap.Int("records", len(records)))
	return records, nil
}

// FetchClaims is the collapsed form of Fetch: any failure is logged and
// reported as an empty result, indistinguishable from zero matches.
func (c *Client) FetchClaims(ctx context.Context, params QueryParameters) []map[string]any {
	records, err := c.Fetch(ctx, params)
	if err != nil {
		logger.Error("Error fetching FEMA data", zap.Error(err))
		return []map[string]any{}
	}
	return records
}

func (c *Client) requestURL(params QueryParameters) string {
	u := *c.endpoint
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, &FetchError{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &FetchError{Kind: KindTooLarge, Limit: c.maxBody}
	}
	return body, nil
}

func (c *Client) decode(body []byte) ([]map[string]any, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &FetchError{Kind: KindDecode, Err: err}
	}
	if envelope == nil {
		return nil, &FetchError{Kind: KindDecode, Err: fmt.Errorf("response is not a JSON object")}
	}

	raw, ok := envelope[c.recordsKey]
	if !ok {
		return nil, &FetchError{Kind: KindMissingKey, Key: c.recordsKey}
	}

	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, &FetchError{Kind: KindDecode, Err: fmt.Errorf("%s is not a list of records: %w", c.recordsKey, err)}
	}
	if records == nil {
		records = []map[string]any{}
	}
	return records, nil
}
