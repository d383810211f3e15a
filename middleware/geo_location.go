package middleware

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"bookitgy/models"
	"bookitgy/services/geo"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClientLocationKey is the gin context key of the *models.Coordinate shared by the client.
const ClientLocationKey = "clientLocation"

// LocationBox remembers the last location a console client shared. It stands in for the
// device permission prompt: a client that never sent coordinates is treated as a denial.
type LocationBox struct {
	mu  sync.RWMutex
	loc *models.Coordinate
}

func NewLocationBox() *LocationBox {
	return &LocationBox{}
}

func (b *LocationBox) Store(c models.Coordinate) {
	b.mu.Lock()
	b.loc = &c
	b.mu.Unlock()
}

// Request implements geo.LocationRequester.
func (b *LocationBox) Request(ctx context.Context) (models.Coordinate, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.loc == nil {
		return models.Coordinate{}, geo.ErrLocationDenied
	}
	return *b.loc, nil
}

// parseLocation reads X-Client-Lat/X-Client-Long, falling back to the lat/long query params.
func parseLocation(c *gin.Context) (models.Coordinate, bool) {
	lat, long := c.GetHeader("X-Client-Lat"), c.GetHeader("X-Client-Long")
	if lat == "" || long == "" {
		lat, long = c.Query("lat"), c.Query("long")
	}
	if lat == "" || long == "" {
		return models.Coordinate{}, false
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(long), 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, false
	}
	coord := models.Coordinate{Latitude: la, Longitude: lo}
	if !coord.Valid() || la < -90 || la > 90 || lo < -180 || lo > 180 {
		return models.Coordinate{}, false
	}
	return coord, true
}

// ClientLocationMiddleware stores the coordinates a client sends in the request context and in
// box. Requests without usable coordinates pass through untouched.
func ClientLocationMiddleware(box *LocationBox) gin.HandlerFunc {
	return func(c *gin.Context) {
		coord, ok := parseLocation(c)
		if !ok {
			c.Next()
			return
		}
		if box != nil {
			box.Store(coord)
		}
		c.Set(ClientLocationKey, &coord)
		zap.L().Debug("Client location received",
			zap.Float64("lat", coord.Latitude),
			zap.Float64("long", coord.Longitude),
		)
		c.Next()
	}
}

// ClientLocation returns the coordinates stored by ClientLocationMiddleware.
func ClientLocation(c *gin.Context) (*models.Coordinate, bool) {
	v, ok := c.Get(ClientLocationKey)
	if !ok {
		return nil, false
	}
	coord, ok := v.(*models.Coordinate)
	return coord, ok
}
