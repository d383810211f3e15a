package handlers

import (
	"net/http"

	"bookitgy/models"
	"bookitgy/utils"

	"github.com/gin-gonic/gin"
)

// GetSelectionHandler returns the current provider/service/date/slot selection.
func (hb *HandlerBundle) GetSelectionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, hb.Selector.Snapshot())
}

// SelectProviderHandler selects a directory provider. An empty provider_id clears the selection.
func (hb *HandlerBundle) SelectProviderHandler(c *gin.Context) {
	var req struct {
		ProviderID models.ID `json:"provider_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if req.ProviderID == "" {
		hb.Selector.SelectProvider(ctx, models.Provider{})
		c.JSON(http.StatusOK, hb.Selector.Snapshot())
		return
	}

	providers, err := hb.Directory.Providers(ctx)
	if err != nil {
		respondError(c, err, "Failed to load providers")
		return
	}
	for _, p := range providers {
		if p.ID == req.ProviderID {
			hb.Selector.SelectProvider(ctx, p)
			c.JSON(http.StatusOK, hb.Selector.Snapshot())
			return
		}
	}
	utils.JSONError(c, http.StatusNotFound, "Provider not found", req.ProviderID.String())
}

// SelectServiceHandler selects one of the loaded services of the selected provider.
func (hb *HandlerBundle) SelectServiceHandler(c *gin.Context) {
	var req struct {
		ServiceID models.ID `json:"service_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	for _, svc := range hb.Selector.Snapshot().Services {
		if svc.ID == req.ServiceID {
			hb.Selector.SelectService(c.Request.Context(), svc)
			c.JSON(http.StatusOK, hb.Selector.Snapshot())
			return
		}
	}
	utils.JSONError(c, http.StatusNotFound, "Service not found for the selected provider", req.ServiceID.String())
}

func (hb *HandlerBundle) SelectDateHandler(c *gin.Context) {
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := hb.Selector.SelectDate(req.Date); err != nil {
		respondError(c, err, "Date unavailable")
		return
	}
	c.JSON(http.StatusOK, hb.Selector.Snapshot())
}

func (hb *HandlerBundle) SelectSlotHandler(c *gin.Context) {
	var req struct {
		Slot string `json:"slot" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := hb.Selector.SelectSlot(req.Slot); err != nil {
		respondError(c, err, "Slot unavailable")
		return
	}
	c.JSON(http.StatusOK, hb.Selector.Snapshot())
}

// RefreshSelectionHandler refetches the availability of the selected service.
func (hb *HandlerBundle) RefreshSelectionHandler(c *gin.Context) {
	hb.Selector.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, hb.Selector.Snapshot())
}

// BookSelectionHandler books the selected slot.
func (hb *HandlerBundle) BookSelectionHandler(c *gin.Context) {
	b, err := hb.Selector.BookSelectedSlot(c.Request.Context())
	if err != nil {
		respondError(c, err, "Booking failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b, "selection": hb.Selector.Snapshot()})
}
