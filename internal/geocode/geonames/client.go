// Package geonames provides the secondary geocoding tier, backed by the
// GeoNames search API. GeoNames has better coverage of parks, mountains,
// and other natural features than address-oriented geocoders.
package geonames

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
	ProviderName = "geonames"

	// DefaultBaseURL is the GeoNames API base URL.
	DefaultBaseURL = "https://secure.geonames.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 5 * time.Second
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the GeoNames client.
type ClientConfig struct {
	// Username is the GeoNames account name (required).
	Username string

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

// Client is a GeoNames geocoding client.
type Client struct {
	username   string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new GeoNames client.
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
		username:   cfg.Username,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// API response types (from the GeoNames search API).

type searchResponse struct {
	Geonames []geoname `json:"geonames"`
}

type geoname struct {
	Name        string  `json:"name"`
	CountryName string  `json:"countryName"`
	Lat         string  `json:"lat"`
	Lng         string  `json:"lng"`
	FeatureCls  string  `json:"fcl"`
	FeatureCode string  `json:"fcode"`
	BBox        *gnBBox `json:"bbox"`
}

type gnBBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Geocode resolves a place name through the search endpoint.
func (c *Client) Geocode(ctx context.Context, name string, hint geocode.LocationType) (*geocode.LocationEntity, error) {
	query := url.Values{}
	query.Set("q", name)
	query.Set("maxRows", "1")
	query.Set("style", "FULL")
	query.Set("username", c.username)

	reqURL := fmt.Sprintf("%s/searchJSON?%s", c.baseURL, query.Encode())
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

	if len(result.Geonames) == 0 {
		return nil, geocode.ErrNotFound
	}

	return c.toLocation(&result.Geonames[0], hint)
}

// toLocation converts an API result to a domain location entity.
func (c *Client) toLocation(g *geoname, hint geocode.LocationType) (*geocode.LocationEntity, error) {
	locType := featureToLocationType(g.FeatureCls, g.FeatureCode)
	if locType == "" {
		locType = hint
	}
	if locType == "" {
		locType = geocode.TypeCity
	}

	var bbox geom.BBox
	if g.BBox != nil {
		bbox = geom.BBox{
			West:  g.BBox.West,
			South: g.BBox.South,
			East:  g.BBox.East,
			North: g.BBox.North,
		}
	} else {
		var lat, lon float64
		if _, err := fmt.Sscanf(g.Lat, "%f", &lat); err != nil {
			return nil, fmt.Errorf("parse latitude %q: %w", g.Lat, err)
		}
		if _, err := fmt.Sscanf(g.Lng, "%f", &lon); err != nil {
			return nil, fmt.Errorf("parse longitude %q: %w", g.Lng, err)
		}
		bbox = geom.FromPoint(lat, lon, locType.Buffer())
	}

	name := g.Name
	if g.CountryName != "" && !strings.EqualFold(name, g.CountryName) {
		name = name + ", " + g.CountryName
	}

	return &geocode.LocationEntity{
		Name:       name,
		Type:       locType,
		BBox:       bbox,
		Confidence: 0.8,
	}, nil
}

// featureToLocationType maps GeoNames feature classes/codes to location types.
func featureToLocationType(fcl, fcode string) geocode.LocationType {
	switch fcl {
	case "P": // populated place
		return geocode.TypeCity
	case "A": // administrative region
		if strings.HasPrefix(fcode, "PCL") {
			return geocode.TypeCountry
		}
		return geocode.TypeRegion
	case "T", "H", "L", "V": // terrain, water, parks, forests
		return geocode.TypeLandmark
	default:
		return ""
	}
}
