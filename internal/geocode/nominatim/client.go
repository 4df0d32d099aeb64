// Package nominatim provides the tertiary geocoding tier, backed by the
// OpenStreetMap Nominatim API. It requires no credentials and serves as
// the global-coverage fallback.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/geom"
	"github.com/skylens/skylens/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 5 * time.Second

	// userAgent identifies this service per the Nominatim usage policy.
	userAgent = "skylens/1.0"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 5s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim geocoding client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
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

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// searchResult is one entry of the Nominatim jsonv2 response.
// The bounding box arrives as strings in [south, north, west, east] order.
type searchResult struct {
	DisplayName string   `json:"display_name"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	Importance  float64  `json:"importance"`
	BoundingBox []string `json:"boundingbox"`
}

// Geocode resolves a place name through the search endpoint.
func (c *Client) Geocode(ctx context.Context, name string, hint geocode.LocationType) (*geocode.LocationEntity, error) {
	query := url.Values{}
	query.Set("q", name)
	query.Set("format", "jsonv2")
	query.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from search endpoint", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(results) == 0 {
		return nil, geocode.ErrNotFound
	}

	return c.toLocation(&results[0], hint)
}

// toLocation converts an API result to a domain location entity.
func (c *Client) toLocation(r *searchResult, hint geocode.LocationType) (*geocode.LocationEntity, error) {
	if len(r.BoundingBox) != 4 {
		return nil, geocode.ErrInvalidGeometry
	}

	edges := make([]float64, 4)
	for i, s := range r.BoundingBox {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse bounding box edge %q: %w", s, err)
		}
		edges[i] = v
	}

	locType := classToLocationType(r.Class, r.Type)
	if locType == "" {
		locType = hint
	}

	confidence := r.Importance
	if confidence > 1 {
		confidence = 1
	}
	if confidence == 0 {
		confidence = 0.5
	}

	return &geocode.LocationEntity{
		Name: r.DisplayName,
		Type: locType,
		BBox: geom.BBox{
			South: edges[0],
			North: edges[1],
			West:  edges[2],
			East:  edges[3],
		},
		Confidence: confidence,
	}, nil
}

// classToLocationType maps OSM class/type pairs to location types.
func classToLocationType(class, osmType string) geocode.LocationType {
	switch class {
	case "place":
		switch osmType {
		case "city", "town", "village", "hamlet":
			return geocode.TypeCity
		case "state", "province", "region", "county":
			return geocode.TypeRegion
		case "country":
			return geocode.TypeCountry
		}
	case "boundary":
		if osmType == "administrative" {
			return geocode.TypeRegion
		}
	case "natural", "leisure", "tourism":
		return geocode.TypeLandmark
	}
	return ""
}
