package route

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetpool/internal/carpool/models"
	"fleetpool/pkg/platform/circuit"
	"fleetpool/pkg/platform/sentinel"
)

// =============================================================================
// Route Client Test Suite
// =============================================================================
// Justification for unit tests:
// - The client stitches two upstreams together; the interesting behavior is
//   the query shape sent to each, the unit conversions on the way back, and
//   how upstream outages degrade into sentinel.ErrUnavailable.
// =============================================================================

type RouteClientSuite struct {
	suite.Suite
	ctx context.Context

	nominatim      *httptest.Server
	osrm           *httptest.Server
	geocodeQueries []string
	osrmPaths      []string

	geocodeStatus int
	geocodeBody   string
	osrmStatus    int
	osrmBody      string
}

func TestRouteClientSuite(t *testing.T) {
	suite.Run(t, new(RouteClientSuite))
}

func (s *RouteClientSuite) SetupTest() {
	s.ctx = context.Background()
	s.geocodeQueries = nil
	s.osrmPaths = nil

	s.geocodeStatus = http.StatusOK
	s.geocodeBody = `[{"lat":"48.8566","lon":"2.3522"}]`
	s.osrmStatus = http.StatusOK
	// 432.9 km, 255 min once rounded
	s.osrmBody = `{"code":"Ok","routes":[{"legs":[{"distance":432900,"duration":15300}]}]}`

	s.nominatim = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.geocodeQueries = append(s.geocodeQueries, r.URL.Query().Get("q"))
		w.WriteHeader(s.geocodeStatus)
		fmt.Fprint(w, s.geocodeBody)
	}))
	s.osrm = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.osrmPaths = append(s.osrmPaths, r.URL.Path)
		w.WriteHeader(s.osrmStatus)
		fmt.Fprint(w, s.osrmBody)
	}))
}

func (s *RouteClientSuite) TearDownTest() {
	s.nominatim.Close()
	s.osrm.Close()
}

func (s *RouteClientSuite) client(opts ...Option) *Client {
	return New(s.nominatim.URL, s.osrm.URL, opts...)
}

func (s *RouteClientSuite) addresses() (models.Address, models.Address) {
	origin := models.Address{Number: "10", Street: "Rue de la Paix", PostalCode: "75002", City: "Paris"}
	destination := models.Address{Street: "Place Bellecour", PostalCode: "69002", City: "Lyon"}
	return origin, destination
}

func (s *RouteClientSuite) TestComputeRoute() {
	s.Run("geocodes both addresses and converts units", func() {
		origin, destination := s.addresses()

		route, err := s.client().ComputeRoute(s.ctx, origin, destination)
		s.Require().NoError(err)
		s.Equal(433, route.DistanceKm)
		s.Equal(255, route.DurationMinutes)

		s.Require().Len(s.geocodeQueries, 2)
		s.Equal("10 Rue de la Paix, 75002 Paris", s.geocodeQueries[0])
		s.Equal("Place Bellecour, 69002 Lyon", s.geocodeQueries[1])

		// OSRM wants lon,lat pairs, longitude first
		s.Require().Len(s.osrmPaths, 1)
		s.Equal("/route/v1/driving/2.3522000,48.8566000;2.3522000,48.8566000", s.osrmPaths[0])
	})

	s.Run("address unknown to the geocoder is unavailable", func() {
		s.geocodeBody = `[]`
		s.osrmPaths = nil
		origin, destination := s.addresses()

		_, err := s.client().ComputeRoute(s.ctx, origin, destination)
		s.ErrorIs(err, sentinel.ErrUnavailable)
		s.Empty(s.osrmPaths, "routing should not be attempted without coordinates")
	})

	s.Run("geocoder outage is unavailable", func() {
		s.geocodeStatus = http.StatusServiceUnavailable

		origin, destination := s.addresses()
		_, err := s.client().ComputeRoute(s.ctx, origin, destination)
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})

	s.Run("router refusal is unavailable", func() {
		s.osrmBody = `{"code":"NoRoute","routes":[]}`

		origin, destination := s.addresses()
		_, err := s.client().ComputeRoute(s.ctx, origin, destination)
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})
}

func (s *RouteClientSuite) TestCircuitBreaker() {
	s.Run("repeated failures open the circuit and skip the network", func() {
		s.geocodeStatus = http.StatusInternalServerError
		breaker := circuit.New("osm", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
		client := s.client(WithBreaker(breaker))
		origin, destination := s.addresses()

		for i := 0; i < 2; i++ {
			_, err := client.ComputeRoute(s.ctx, origin, destination)
			s.ErrorIs(err, sentinel.ErrUnavailable)
		}
		s.True(breaker.IsOpen())

		calls := len(s.geocodeQueries)
		_, err := client.ComputeRoute(s.ctx, origin, destination)
		s.ErrorIs(err, sentinel.ErrUnavailable)
		s.Len(s.geocodeQueries, calls, "open circuit must not hit the upstream")
	})

	s.Run("a success closes the circuit again", func() {
		breaker := circuit.New("osm", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Millisecond))
		client := s.client(WithBreaker(breaker))
		origin, destination := s.addresses()

		s.geocodeStatus = http.StatusInternalServerError
		_, err := client.ComputeRoute(s.ctx, origin, destination)
		s.ErrorIs(err, sentinel.ErrUnavailable)
		s.True(breaker.IsOpen())

		s.geocodeStatus = http.StatusOK
		time.Sleep(5 * time.Millisecond)

		route, err := client.ComputeRoute(s.ctx, origin, destination)
		s.Require().NoError(err)
		s.Equal(433, route.DistanceKm)
		s.False(breaker.IsOpen())
	})
}
