// Package azuremaps provides the primary geocoding tier, backed by the
// Azure Maps search API.
package azuremaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/geom"
	"github.com/skylens/skylens/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "azure-maps"

	// DefaultBaseURL is the Azure Maps API base URL.
	DefaultBaseURL = "https://atlas.microsoft.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 5 * time.Second

	apiVersion = "1.0"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Azure Maps client.
type ClientConfig struct {
	// SubscriptionKey authenticates against the API (required).
	SubscriptionKey string

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

// Client is an Azure Maps geocoding client.
type Client struct {
	subscriptionKey string
	baseURL         string
	httpClient      HTTPDoer
	logger          zerolog.Logger
}

// NewClient creates a new Azure Maps client.
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
		subscriptionKey: cfg.SubscriptionKey,
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		httpClient:      httpClient,
		logger:          cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// API response types (from the Azure Maps search API).

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Type       string     `json:"type"`
	Score      float64    `json:"score"`
	EntityType string     `json:"entityType"`
	Address    addressObj `json:"address"`
	Position   latLon     `json:"position"`
	Viewport   *viewport  `json:"viewport"`
}

type addressObj struct {
	FreeformAddress string `json:"freeformAddress"`
	Country         string `json:"country"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type viewport struct {
	TopLeftPoint  latLon `json:"topLeftPoint"`
	BtmRightPoint latLon `json:"btmRightPoint"`
}

// Geocode resolves a place name through the fuzzy search endpoint.
func (c *Client) Geocode(ctx context.Context, name string, hint geocode.LocationType) (*geocode.LocationEntity, error) {
	query := url.Values{}
	query.Set("api-version", apiVersion)
	query.Set("subscription-key", c.subscriptionKey)
	query.Set("query", name)
	query.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search/fuzzy/json?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from search endpoint", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, geocode.ErrNotFound
	}

	return c.toLocation(&result.Results[0], hint), nil
}

// toLocation converts an API result to a domain location entity.
func (c *Client) toLocation(r *searchResult, hint geocode.LocationType) *geocode.LocationEntity {
	locType := entityTypeToLocationType(r.EntityType)
	if locType == "" {
		locType = hint
	}

	var bbox geom.BBox
	if r.Viewport != nil {
		bbox = geom.BBox{
			West:  r.Viewport.TopLeftPoint.Lon,
			South: r.Viewport.BtmRightPoint.Lat,
			East:  r.Viewport.BtmRightPoint.Lon,
			North: r.Viewport.TopLeftPoint.Lat,
		}
	} else {
		if locType == "" {
			locType = geocode.TypeCity
		}
		bbox = geom.FromPoint(r.Position.Lat, r.Position.Lon, locType.Buffer())
	}

	// Scores above 1 are ranking weights, not probabilities.
	confidence := r.Score
	if confidence > 1 {
		confidence = 1
	}

	return &geocode.LocationEntity{
		Name:       r.Address.FreeformAddress,
		Type:       locType,
		BBox:       bbox,
		Confidence: confidence,
	}
}

// entityTypeToLocationType maps Azure Maps entity types to our location types.
func entityTypeToLocationType(entityType string) geocode.LocationType {
	switch {
	case strings.EqualFold(entityType, "Municipality"),
		strings.EqualFold(entityType, "MunicipalitySubdivision"):
		return geocode.TypeCity
	case strings.EqualFold(entityType, "CountrySubdivision"),
		strings.EqualFold(entityType, "CountrySecondarySubdivision"):
		return geocode.TypeRegion
	case strings.EqualFold(entityType, "Country"):
		return geocode.TypeCountry
	default:
		return ""
	}
}
