package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"gorm.io/gorm"

	"rideshare/internal/domain"
	"rideshare/internal/models"
)

const kmPerDegreeLat = 111.0

type SortKey string

const (
	SortDeparture SortKey = "departure"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortRating    SortKey = "rating"
	SortDistance  SortKey = "distance"
)

// ParseSortKey maps a query-string value to a sort key, defaulting to
// departure time ascending.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortPriceAsc, SortPriceDesc, SortRating, SortDistance:
		return SortKey(strings.ToLower(strings.TrimSpace(s)))
	default:
		return SortDeparture
	}
}

// Area is a circle the matcher approximates as a bounding box: point ±
// radius in degrees, with the longitude delta widened by 1/cos(lat).
type Area struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km"`
}

// bounds converts the circle to lng/lat box coordinates.
func (a Area) bounds() *geom.Bounds {
	latDelta := a.RadiusKm / kmPerDegreeLat
	cos := math.Cos(a.Lat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01 // near the poles every longitude is close
	}
	lngDelta := a.RadiusKm / (kmPerDegreeLat * cos)
	return geom.NewBounds(geom.XY).
		Set(a.Lng-lngDelta, a.Lat-latDelta, a.Lng+lngDelta, a.Lat+latDelta)
}

// Contains reports whether (lat, lng) falls inside the box.
func (a Area) Contains(lat, lng float64) bool {
	return a.bounds().OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}

// Query is one passenger search. Text and area modes are exclusive per side;
// when both are set for a side the area wins.
type Query struct {
	FromText string
	ToText   string
	FromArea *Area
	ToArea   *Area

	Date            *time.Time
	MinSeats        int
	MaxPrice        *float64
	MinDriverRating *float64
	SortBy          SortKey
}

// Match is one ranked search result: the trip joined with its route, the
// driver's profile and, when resolvable, the car.
type Match struct {
	Trip   models.Trip    `json:"trip"`
	Route  models.Route   `json:"route"`
	Driver models.Profile `json:"driver"`
	Car    *models.Car    `json:"car,omitempty"`
}

// Search filters and ranks scheduled trips against a passenger query. A
// candidate whose joined data cannot be resolved is logged and skipped,
// never failing the whole search.
type Search struct {
	db *gorm.DB
}

func NewSearch(db *gorm.DB) *Search {
	return &Search{db: db}
}

// Find runs the full match pipeline: SQL pre-filter on status/seats/
// departure, then per-candidate route, profile and car joins with text or
// bounding-box matching, then price/date filters, then ranking.
func (s *Search) Find(ctx context.Context, q Query) ([]Match, error) {
	minSeats := q.MinSeats
	if minSeats < 1 {
		minSeats = 1
	}

	var candidates []models.Trip
	err := s.db.WithContext(ctx).
		Where("status = ? AND available_seats >= ? AND departure_time > ?",
			models.TripScheduled, minSeats, time.Now().UnixMilli()).
		Find(&candidates).Error
	if err != nil {
		return nil, domain.FromStore("search", "trip", err)
	}

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, ok := s.resolve(ctx, &candidates[i])
		if !ok {
			continue
		}

		if !sideMatches(q.FromText, q.FromArea, m.Route.StartLocation, m.Route.StartAddress, m.Route.StartLat, m.Route.StartLng) {
			continue
		}
		if !sideMatches(q.ToText, q.ToArea, m.Route.EndLocation, m.Route.EndAddress, m.Route.EndLat, m.Route.EndLng) {
			continue
		}
		if q.MinDriverRating != nil && m.Driver.Rating < *q.MinDriverRating {
			continue
		}
		if q.MaxPrice != nil && m.Trip.Price > *q.MaxPrice {
			continue
		}
		if q.Date != nil && !sameLocalDay(m.Trip.DepartureTime, *q.Date) {
			continue
		}
		matches = append(matches, m)
	}

	rank(matches, q.SortBy)
	return matches, nil
}

// PopularTrips is the placeholder popularity ranking: the first n scheduled
// future trips by departure time, no filters applied.
func (s *Search) PopularTrips(ctx context.Context, n int) ([]Match, error) {
	if n < 1 {
		n = 10
	}
	var candidates []models.Trip
	err := s.db.WithContext(ctx).
		Where("status = ? AND departure_time > ?", models.TripScheduled, time.Now().UnixMilli()).
		Order("departure_time ASC").
		Limit(n).
		Find(&candidates).Error
	if err != nil {
		return nil, domain.FromStore("popular trips", "trip", err)
	}

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m, ok := s.resolve(ctx, &candidates[i]); ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// resolve joins a candidate with its route, driver profile and optional car.
// Missing route or profile drops the candidate; a missing car only costs the
// amenity display.
func (s *Search) resolve(ctx context.Context, trip *models.Trip) (Match, bool) {
	db := s.db.WithContext(ctx)

	var route models.Route
	if err := db.First(&route, trip.RouteID).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"trip_id":  trip.ID,
			"route_id": trip.RouteID,
		}).Warn("search: route unresolved, candidate skipped")
		return Match{}, false
	}

	var driver models.Profile
	if err := db.First(&driver, trip.DriverID).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"trip_id":   trip.ID,
			"driver_id": trip.DriverID,
		}).Warn("search: driver profile unresolved, candidate skipped")
		return Match{}, false
	}

	var car *models.Car
	if trip.CarID != nil {
		var c models.Car
		if err := db.First(&c, *trip.CarID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logrus.WithError(err).WithField("car_id", *trip.CarID).Warn("search: car lookup failed")
			}
		} else {
			car = &c
		}
	}

	return Match{Trip: *trip, Route: route, Driver: driver, Car: car}, true
}

// sideMatches applies one side (origin or destination) of the query. Area
// mode wins when set; otherwise blank text matches everything, and non-blank
// text matches case-insensitively in either direction of containment.
func sideMatches(text string, area *Area, location, address string, lat, lng float64) bool {
	if area != nil {
		return area.Contains(lat, lng)
	}
	return textMatches(text, location, address)
}

func textMatches(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if strings.Contains(f, q) || strings.Contains(q, f) {
			return true
		}
	}
	return false
}

// sameLocalDay compares an epoch-millis departure with the requested date on
// the local calendar.
func sameLocalDay(departureMillis int64, date time.Time) bool {
	dep := time.UnixMilli(departureMillis).Local()
	y1, m1, d1 := dep.Date()
	y2, m2, d2 := date.Local().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func rank(matches []Match, key SortKey) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch key {
		case SortPriceAsc:
			return a.Trip.Price < b.Trip.Price
		case SortPriceDesc:
			return a.Trip.Price > b.Trip.Price
		case SortRating:
			return a.Driver.Rating > b.Driver.Rating
		case SortDistance:
			return a.Route.Distance < b.Route.Distance
		default:
			return a.Trip.DepartureTime < b.Trip.DepartureTime
		}
	})
}
