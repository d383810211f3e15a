package handlers

import (
	"net/http"

	"bookitgy/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last health snapshot of the API and the Redis caches.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.CheckedAt.IsZero() && !status.API {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "message": "Hi, I'm the BookitGY console"})
}
