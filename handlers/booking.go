package handlers

import (
	"net/http"

	"bookitgy/models"
	"bookitgy/services/booking"

	"github.com/gin-gonic/gin"
)

type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

func confirmed(ok bool) booking.ConfirmFunc {
	return func(models.Booking) bool { return ok }
}

// ListBookingsHandler returns the customer's bookings, reloading them unless cached=true.
func (hb *HandlerBundle) ListBookingsHandler(c *gin.Context) {
	if c.Query("cached") != "true" {
		if err := hb.CustomerBookings.Refresh(c.Request.Context()); err != nil {
			respondError(c, err, "Failed to load bookings")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": hb.CustomerBookings.Bookings()})
}

// CancelBookingHandler cancels a customer booking. The body must carry confirm=true.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	hb.cancel(c, hb.CustomerBookings)
}

// ProviderBookingsHandler lists the provider's bookings. view is today, upcoming or all.
func (hb *HandlerBundle) ProviderBookingsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		rows []models.Booking
		err  error
	)
	switch c.DefaultQuery("view", "all") {
	case "today":
		rows, err = hb.ProviderBookings.Today(ctx)
	case "upcoming":
		rows, err = hb.ProviderBookings.Upcoming(ctx)
	default:
		if err = hb.ProviderBookings.Refresh(ctx); err == nil {
			rows = hb.ProviderBookings.Bookings()
		}
	}
	if err != nil {
		respondError(c, err, "Failed to load bookings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": rows})
}

func (hb *HandlerBundle) ProviderCancelBookingHandler(c *gin.Context) {
	hb.cancel(c, hb.ProviderBookings)
}

func (hb *HandlerBundle) cancel(c *gin.Context, store booking.BookingStore) {
	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}
	id := models.ID(c.Param("id"))
	if err := store.Cancel(c.Request.Context(), id, confirmed(req.Confirm)); err != nil {
		respondError(c, err, "Failed to cancel booking")
		return
	}
	b, _ := store.Get(id)
	c.JSON(http.StatusOK, gin.H{"booking": b})
}
