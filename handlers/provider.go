package handlers

import (
	"net/http"

	"bookitgy/models"

	"github.com/gin-gonic/gin"
)

// ListServicesHandler returns the signed-in provider's services.
func (hb *HandlerBundle) ListServicesHandler(c *gin.Context) {
	services, err := hb.Catalog.Services(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load services")
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (hb *HandlerBundle) CreateServiceHandler(c *gin.Context) {
	var input models.ServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	svc, err := hb.Catalog.CreateService(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to create service")
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// DeleteServiceHandler deletes a service. Services with bookings come back archived, which is
// still a success.
func (hb *HandlerBundle) DeleteServiceHandler(c *gin.Context) {
	outcome, err := hb.Catalog.DeleteService(c.Request.Context(), models.ID(c.Param("id")))
	if err != nil {
		respondError(c, err, "Failed to delete service")
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetHoursHandler returns the weekly working hours with local 12-hour times.
func (hb *HandlerBundle) GetHoursHandler(c *gin.Context) {
	hours, err := hb.Catalog.Hours(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load working hours")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hours": hours})
}

func (hb *HandlerBundle) SaveHoursHandler(c *gin.Context) {
	var req struct {
		Hours []models.WorkingHours `json:"hours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	hours, err := hb.Catalog.SaveHours(c.Request.Context(), req.Hours)
	if err != nil {
		respondError(c, err, "Failed to save working hours")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hours": hours})
}
