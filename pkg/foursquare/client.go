// Package foursquare is a minimal client for the Foursquare v2 venue
// directory: nearby venue search and per-venue detail lookup.
package foursquare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.foursquare.com/v2"

// ErrSearchUnavailable marks a venue-search call that failed at the
// transport or auth level. Zero matches is success, not this error.
var ErrSearchUnavailable = eris.New("foursquare: search unavailable")

// ErrDetailUnavailable marks a venue-detail call that failed at the
// transport or auth level. A payload missing enrichment fields is not an
// error; it yields an empty result instead.
var ErrDetailUnavailable = eris.New("foursquare: detail unavailable")

// Client performs venue directory operations.
type Client interface {
	// Explore returns venues near a coordinate, at most limit entries.
	// Response entries missing id, name or category are skipped.
	Explore(ctx context.Context, lat, lng float64, radius, limit int) ([]VenueSummary, error)

	// VenueDetails returns enrichment fields for one venue. If the payload
	// lacks any of likes/rating/tips the result is (nil, nil): partial
	// data is treated as no data.
	VenueDetails(ctx context.Context, venueID string) (*VenueDetails, error)
}

// VenueSummary is one search hit.
type VenueSummary struct {
	ID       string
	Name     string
	Category string
}

// VenueDetails holds the enrichment fields of a venue.
type VenueDetails struct {
	ID     string
	Name   string
	Likes  float64
	Rating float64
	Tips   float64
}

// Credentials are the static API credentials passed on every request.
type Credentials struct {
	ClientID     string
	ClientSecret string
	// Version is the API version tag, e.g. "20180605".
	Version string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second. The directory enforces
// a daily call quota, so every call goes through this limiter.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	creds   Credentials
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a venue directory client.
func NewClient(creds Credentials, opts ...Option) Client {
	c := &httpClient{
		creds:   creds,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(5, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type exploreResponse struct {
	Response struct {
		Groups []struct {
			Items []exploreItem `json:"items"`
		} `json:"groups"`
	} `json:"response"`
}

type exploreItem struct {
	Venue struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	} `json:"venue"`
}

func (c *httpClient) Explore(ctx context.Context, lat, lng float64, radius, limit int) ([]VenueSummary, error) {
	q := c.baseQuery()
	q.Set("ll", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("radius", fmt.Sprintf("%d", radius))
	q.Set("limit", fmt.Sprintf("%d", limit))

	body, err := c.get(ctx, "/venues/explore", q, ErrSearchUnavailable)
	if err != nil {
		return nil, err
	}

	var result exploreResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrapf(ErrSearchUnavailable, "foursquare: unmarshal explore response: %v", err)
	}

	if len(result.Response.Groups) == 0 {
		return nil, nil
	}

	items := result.Response.Groups[0].Items
	venues := make([]VenueSummary, 0, len(items))
	for _, item := range items {
		v := item.Venue
		if v.ID == "" || v.Name == "" || len(v.Categories) == 0 || v.Categories[0].Name == "" {
			// Best-effort policy: malformed entries are dropped, not fatal.
			zap.L().Debug("foursquare: skipping malformed explore entry", zap.String("id", v.ID))
			continue
		}
		venues = append(venues, VenueSummary{
			ID:       v.ID,
			Name:     v.Name,
			Category: v.Categories[0].Name,
		})
	}
	return venues, nil
}

type detailResponse struct {
	Response struct {
		Venue *detailVenue `json:"venue"`
	} `json:"response"`
}

type detailVenue struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Likes *struct {
		Count float64 `json:"count"`
	} `json:"likes"`
	Rating *float64 `json:"rating"`
	Tips   *struct {
		Count float64 `json:"count"`
	} `json:"tips"`
}

func (c *httpClient) VenueDetails(ctx context.Context, venueID string) (*VenueDetails, error) {
	body, err := c.get(ctx, "/venues/"+url.PathEscape(venueID), c.baseQuery(), ErrDetailUnavailable)
	if err != nil {
		return nil, err
	}

	var result detailResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrapf(ErrDetailUnavailable, "foursquare: unmarshal detail response: %v", err)
	}

	v := result.Response.Venue
	if v == nil || v.Likes == nil || v.Rating == nil || v.Tips == nil {
		return nil, nil
	}

	return &VenueDetails{
		ID:     v.ID,
		Name:   v.Name,
		Likes:  v.Likes.Count,
		Rating: *v.Rating,
		Tips:   v.Tips.Count,
	}, nil
}

func (c *httpClient) baseQuery() url.Values {
	q := url.Values{}
	q.Set("client_id", c.creds.ClientID)
	q.Set("client_secret", c.creds.ClientSecret)
	q.Set("v", c.creds.Version)
	return q
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, unavailable error) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(unavailable, "foursquare: rate limiter wait: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(unavailable, "foursquare: create request: %v", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(unavailable, "foursquare: send request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(unavailable, "foursquare: read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(unavailable, "foursquare: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
