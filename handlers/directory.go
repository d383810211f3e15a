package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookitgy/middleware"
	"bookitgy/models"
	"bookitgy/services/geo"
	"bookitgy/utils"

	"github.com/gin-gonic/gin"
)

// ListProvidersHandler returns the directory ranked by distance from the client. The optional
// radius query selects a radius in km (0 is any); q filters by name or profession.
func (hb *HandlerBundle) ListProvidersHandler(c *gin.Context) {
	ctx := c.Request.Context()
	if loc, ok := middleware.ClientLocation(c); ok {
		hb.Radius.SetOrigin(*loc)
	}
	if raw := c.Query("radius"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid radius", err.Error())
			return
		}
		// A denied location leaves the filter inactive; the state below carries the error.
		if err := hb.Radius.SetRadius(ctx, km); err != nil && !errors.Is(err, geo.ErrLocationDenied) {
			respondError(c, err, "Invalid radius")
			return
		}
	}

	providers, err := hb.Directory.Providers(ctx)
	if err != nil {
		respondError(c, err, "Failed to load providers")
		return
	}
	providers = search(providers, c.Query("q"))

	c.JSON(http.StatusOK, gin.H{
		"providers": hb.Radius.Apply(providers),
		"filter":    hb.Radius.State(),
		"radii":     geo.RadiusOptions,
	})
}

// RetryLocationHandler asks for the client location again after a denial.
func (hb *HandlerBundle) RetryLocationHandler(c *gin.Context) {
	err := hb.Radius.RetryPermission(c.Request.Context())
	status := http.StatusOK
	if err != nil {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"filter": hb.Radius.State()})
}

// ProviderByUsernameHandler resolves a public profile link.
func (hb *HandlerBundle) ProviderByUsernameHandler(c *gin.Context) {
	p, err := hb.Directory.ProviderByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err, "Provider not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func search(providers []models.Provider, q string) []models.Provider {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return providers
	}
	out := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Location), q) {
			out = append(out, p)
			continue
		}
		for _, prof := range p.Professions {
			if strings.Contains(strings.ToLower(prof), q) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
