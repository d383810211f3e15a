package handlers

import (
	"net/http"

	"bookitgy/middleware"
	"bookitgy/models"
	"bookitgy/services/favorites"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListFavoritesHandler returns the stored favorite ids and the providers they resolve to. When
// the directory cannot be loaded the ids are still returned.
func (hb *HandlerBundle) ListFavoritesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ids, err := hb.Favorites.Load(ctx, c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, err, "Failed to load favorites")
		return
	}

	body := gin.H{"ids": ids, "providers": []models.Provider{}}
	live, err := hb.Directory.Providers(ctx)
	if err != nil {
		getLogger(c).Warn("Favorites shown without provider details", zap.Error(err))
		body["error"] = "Could not load provider details"
	} else {
		body["providers"] = favorites.Resolve(ids, live)
	}
	c.JSON(http.StatusOK, body)
}

// ToggleFavoriteHandler flips a provider in the favorites set.
func (hb *HandlerBundle) ToggleFavoriteHandler(c *gin.Context) {
	on, err := hb.Favorites.Toggle(c.Request.Context(), c.GetString(middleware.UserIDKey), models.ID(c.Param("providerID")))
	if err != nil {
		respondError(c, err, "Failed to update favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider_id": c.Param("providerID"), "favorite": on})
}

func (hb *HandlerBundle) RemoveFavoriteHandler(c *gin.Context) {
	if err := hb.Favorites.Remove(c.Request.Context(), c.GetString(middleware.UserIDKey), models.ID(c.Param("providerID"))); err != nil {
		respondError(c, err, "Failed to update favorites")
		return
	}
	c.Status(http.StatusNoContent)
}
