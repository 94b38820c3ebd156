// Package airtable reads table records from the Airtable REST API.
package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kpiboard/internal/core"
	"kpiboard/internal/sources"
)

// DefaultAPIURL is the public Airtable API root.
const DefaultAPIURL = "https://api.airtable.com/v0"

// ErrMissingBaseID is returned by FetchRecords when no base is configured.
// It is a per-table failure, not a missing-credentials condition.
var ErrMissingBaseID = errors.New("missing Airtable base ID")

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 4 << 10

// Config holds what is needed to reach one Airtable base.
type Config struct {
	APIURL   string
	BaseID   string
	Token    string
	MaxPages int
	// HTTPClient is optional; newHTTPClient is used otherwise.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type Client struct {
	httpClient *http.Client
	apiURL     string
	baseID     string
	token      string
	maxPages   int
	logger     *slog.Logger
}

// Ensure interface conformance
var _ sources.RecordSource = (*Client)(nil)

// listResponse is the body of GET /v0/{base}/{table}.
type listResponse struct {
	Records []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"records"`
	Offset string `json:"offset"`
}

// New creates a client for the configured base.
// It returns sources.ErrMissingCredentials when no token is set. An empty base
// ID is accepted; every fetch then fails with ErrMissingBaseID.
func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, sources.ErrMissingCredentials
	}
	baseID := strings.TrimSpace(cfg.BaseID)
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("parse API URL: %w", err)
	}
	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		baseID:     baseID,
		token:      token,
		maxPages:   maxPages,
		logger:     logger,
	}, nil
}

// newHTTPClient bounds connection setup and each request.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// TableURL returns the list endpoint for a table.
func (c *Client) TableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.apiURL, url.PathEscape(c.baseID), url.PathEscape(table))
}

// FetchRecords returns the field maps of every record in table, following
// offset pagination up to the configured page limit.
func (c *Client) FetchRecords(ctx context.Context, table string) ([]core.Record, error) {
	if c.baseID == "" {
		return nil, fmt.Errorf("fetch %s: %w", table, ErrMissingBaseID)
	}
	endpoint := c.TableURL(table)
	c.logger.InfoContext(ctx, "Fetching Airtable table", "table", table, "url", endpoint)

	var out []core.Record
	offset := ""
	for page := 0; page < c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, table, endpoint, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range resp.Records {
			fields := core.Record(rec.Fields)
			if fields == nil {
				fields = core.Record{}
			}
			out = append(out, fields)
		}
		if resp.Offset == "" {
			c.logger.InfoContext(ctx, "Fetched Airtable table", "table", table, "records", len(out), "pages", page+1)
			return out, nil
		}
		offset = resp.Offset
	}

	c.logger.WarnContext(ctx, "Airtable page limit reached, remaining records ignored",
		"table", table, "records", len(out), "max_pages", c.maxPages)
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, table, endpoint, offset string) (*listResponse, error) {
	reqURL := endpoint
	if offset != "" {
		reqURL += "?" + url.Values{"offset": {offset}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", table, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &sources.StatusError{
			Table:      table,
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var page listResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", table, err)
	}
	return &page, nil
}
