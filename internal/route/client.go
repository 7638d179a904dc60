// Package route computes driving distance and duration between two
// addresses using the OpenStreetMap stack: Nominatim for geocoding and
// OSRM for routing. It backs the carpool listing enrichment step.
package route

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fleetpool/internal/carpool/models"
	"fleetpool/internal/carpool/service"
	"fleetpool/pkg/platform/circuit"
	"fleetpool/pkg/platform/sentinel"
)

const userAgent = "fleetpool/1.0"

// Client calls the public OSM APIs. Both upstreams sit behind a single
// circuit breaker: a trip needs both to succeed, so an outage on either
// degrades the whole enrichment path.
type Client struct {
	http         *http.Client
	nominatimURL string
	osrmURL      string
	breaker      *circuit.Breaker
	logger       *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithBreaker(breaker *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// New creates a client against the given base URLs, e.g.
// https://nominatim.openstreetmap.org and https://router.project-osrm.org.
func New(nominatimURL, osrmURL string, opts ...Option) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 10 * time.Second},
		nominatimURL: nominatimURL,
		osrmURL:      osrmURL,
		breaker:      circuit.New("osm"),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type coordinates struct {
	lat float64
	lon float64
}

// ComputeRoute geocodes both addresses and asks OSRM for the driving leg
// between them. Any upstream failure surfaces as sentinel.ErrUnavailable.
func (c *Client) ComputeRoute(ctx context.Context, origin, destination models.Address) (service.Route, error) {
	if !c.breaker.Allow() {
		return service.Route{}, fmt.Errorf("routing upstream circuit open: %w", sentinel.ErrUnavailable)
	}

	from, err := c.geocode(ctx, origin)
	if err != nil {
		return service.Route{}, err
	}
	to, err := c.geocode(ctx, destination)
	if err != nil {
		return service.Route{}, err
	}

	route, err := c.drive(ctx, from, to)
	if err != nil {
		return service.Route{}, err
	}

	c.breaker.RecordSuccess()
	return route, nil
}

// geocode resolves an address to coordinates via Nominatim. An address
// Nominatim does not know is reported as unavailable but does not count
// against the breaker.
func (c *Client) geocode(ctx context.Context, addr models.Address) (coordinates, error) {
	query := url.Values{}
	query.Set("q", addr.String())
	query.Set("format", "json")
	query.Set("limit", "1")

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := c.getJSON(ctx, c.nominatimURL+"/search?"+query.Encode(), &results); err != nil {
		return coordinates{}, err
	}
	if len(results) == 0 {
		c.logger.WarnContext(ctx, "address not found by geocoder", "address", addr.String())
		return coordinates{}, fmt.Errorf("no geocoding result for %q: %w", addr.String(), sentinel.ErrUnavailable)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return coordinates{}, c.fail(ctx, fmt.Errorf("malformed latitude %q", results[0].Lat))
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return coordinates{}, c.fail(ctx, fmt.Errorf("malformed longitude %q", results[0].Lon))
	}
	return coordinates{lat: lat, lon: lon}, nil
}

// drive asks OSRM for the driving leg between two points. OSRM wants
// lon,lat pairs, longitude first.
func (c *Client) drive(ctx context.Context, from, to coordinates) (service.Route, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%.7f,%.7f;%.7f,%.7f?overview=false&steps=false",
		c.osrmURL, from.lon, from.lat, to.lon, to.lat)

	var response struct {
		Code   string `json:"code"`
		Routes []struct {
			Legs []struct {
				Distance float64 `json:"distance"` // meters
				Duration float64 `json:"duration"` // seconds
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return service.Route{}, err
	}
	if response.Code != "Ok" || len(response.Routes) == 0 || len(response.Routes[0].Legs) == 0 {
		return service.Route{}, c.fail(ctx, fmt.Errorf("router returned code %q with no usable leg", response.Code))
	}

	leg := response.Routes[0].Legs[0]
	return service.Route{
		DistanceKm:      int(math.Round(leg.Distance / 1000.0)),
		DurationMinutes: int(math.Round(leg.Duration / 60.0)),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.fail(ctx, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.fail(ctx, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

// fail counts the error against the breaker and wraps it as unavailable.
func (c *Client) fail(ctx context.Context, err error) error {
	opened := c.breaker.RecordFailure()
	if opened {
		c.logger.WarnContext(ctx, "routing upstream circuit opened", "error", err)
	}
	return fmt.Errorf("routing upstream: %v: %w", err, sentinel.ErrUnavailable)
}
