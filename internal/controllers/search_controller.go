package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/services"
)

type SearchController struct {
	search *services.Search
}

func NewSearchController(search *services.Search) *SearchController {
	return &SearchController{search: search}
}

// SearchTrips handles GET /trips/search. Origin/destination come either as
// free text (from, to) or as an area per side (from_lat/from_lng/from_radius,
// same for to_*); area wins when both are present.
func (s *SearchController) SearchTrips(c *gin.Context) {
	query := services.Query{
		FromText: c.Query("from"),
		ToText:   c.Query("to"),
		SortBy:   services.ParseSortKey(c.Query("sort")),
	}

	if area, ok, err := parseArea(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		query.FromArea = area
	}
	if area, ok, err := parseArea(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	} else if ok {
		query.ToArea = area
	}

	if v := c.Query("date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		query.Date = &d
	}
	if v := c.Query("seats"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seats must be a positive integer"})
			return
		}
		query.MinSeats = n
	}
	if v := c.Query("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_price must be a non-negative number"})
			return
		}
		query.MaxPrice = &p
	}
	if v := c.Query("min_rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_rating must be a number"})
			return
		}
		query.MinDriverRating = &r
	}

	matches, err := s.search.Find(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": matches})
}

// PopularTrips handles GET /trips/popular.
func (s *SearchController) PopularTrips(c *gin.Context) {
	n := 10
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	matches, err := s.search.PopularTrips(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": matches})
}

// parseArea reads <side>_lat, <side>_lng, <side>_radius query params. ok is
// false when none of them are present.
func parseArea(c *gin.Context, side string) (*services.Area, bool, error) {
	latStr := c.Query(side + "_lat")
	lngStr := c.Query(side + "_lng")
	radStr := c.Query(side + "_radius")
	if latStr == "" && lngStr == "" && radStr == "" {
		return nil, false, nil
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	rad, err3 := strconv.ParseFloat(radStr, 64)
	if err1 != nil || err2 != nil || err3 != nil || rad <= 0 {
		return nil, false, fmt.Errorf("%s_lat, %s_lng and %s_radius must all be valid numbers", side, side, side)
	}
	return &services.Area{Lat: lat, Lng: lng, RadiusKm: rad}, true, nil
}
