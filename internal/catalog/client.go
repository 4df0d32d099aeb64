// Package catalog provides the STAC-style imagery catalog client used to
// search scenes once a query has been assembled.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/geom"
	"github.com/skylens/skylens/internal/provider/resilience"
)

const (
	// ProviderName identifies the catalog backend.
	ProviderName = "stac-catalog"

	// DefaultBaseURL is the Planetary Computer STAC API root.
	DefaultBaseURL = "https://planetarycomputer.microsoft.com/api/stac/v1"

	// DefaultTimeout is the default search timeout.
	DefaultTimeout = 15 * time.Second
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the catalog client.
type ClientConfig struct {
	// BaseURL is the STAC API root (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the search timeout (optional, defaults to 15s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a STAC catalog search client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new catalog client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// STAC wire types.

type searchBody struct {
	Collections []string       `json:"collections"`
	Bbox        []float64      `json:"bbox"`
	Datetime    string         `json:"datetime"`
	Limit       int            `json:"limit"`
	Query       map[string]any `json:"query,omitempty"`
	SortBy      []sortSpec     `json:"sortby,omitempty"`
}

type sortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string           `json:"id"`
	Collection string           `json:"collection"`
	Bbox       []float64        `json:"bbox"`
	Properties featureProps     `json:"properties"`
	Assets     map[string]Asset `json:"assets"`
}

type featureProps struct {
	Datetime   time.Time `json:"datetime"`
	CloudCover *float64  `json:"eo:cloud_cover"`
}

// Search runs one POST /search against the catalog and returns the matched
// items, newest first.
func (c *Client) Search(ctx context.Context, q Query) ([]Item, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	body := searchBody{
		Collections: q.Collections,
		Bbox:        q.BBox.Slice(),
		Datetime:    formatInterval(q.Start, q.End),
		Limit:       limit,
		SortBy:      []sortSpec{{Field: "datetime", Direction: "desc"}},
	}
	if q.CloudCoverMax != nil {
		body.Query = map[string]any{
			"eo:cloud_cover": map[string]any{"lte": *q.CloudCoverMax},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from search endpoint", resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]Item, 0, len(fc.Features))
	for i := range fc.Features {
		item, err := toItem(&fc.Features[i])
		if err != nil {
			c.logger.Warn().Err(err).Str("item_id", fc.Features[i].ID).Msg("skipping malformed catalog item")
			continue
		}
		items = append(items, item)
	}

	c.logger.Debug().
		Strs("collections", q.Collections).
		Int("items", len(items)).
		Msg("catalog search complete")

	return items, nil
}

// CollectionExists probes whether a collection id is live in the catalog.
// Used by the registry audit job to detect drifted entries.
func (c *Client) CollectionExists(ctx context.Context, id string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections/"+id, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create collection request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d from collection endpoint", resp.StatusCode)
	}
}

// formatInterval renders the closed datetime interval in STAC form.
func formatInterval(start, end time.Time) string {
	return start.UTC().Format(time.RFC3339) + "/" + end.UTC().Format(time.RFC3339)
}

// toItem converts a STAC feature to a domain item.
func toItem(f *feature) (Item, error) {
	if len(f.Bbox) < 4 {
		return Item{}, fmt.Errorf("item %q has no usable bbox", f.ID)
	}

	bbox := geom.BBox{West: f.Bbox[0], South: f.Bbox[1], East: f.Bbox[2], North: f.Bbox[3]}
	if err := bbox.Validate(); err != nil {
		return Item{}, fmt.Errorf("item %q bbox: %w", f.ID, err)
	}

	return Item{
		ID:         f.ID,
		Collection: f.Collection,
		Datetime:   f.Properties.Datetime,
		BBox:       bbox,
		CloudCover: f.Properties.CloudCover,
		Assets:     f.Assets,
	}, nil
}
