package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetBillingHandler loads a billing cycle. cycle accepts YYYY-MM or YYYY-MM-01 and defaults to
// the current month.
func (hb *HandlerBundle) GetBillingHandler(c *gin.Context) {
	cycle := strings.TrimSpace(c.Query("cycle"))
	if len(cycle) == len("2006-01") {
		cycle += "-01"
	}
	rows, err := hb.Billing.Load(c.Request.Context(), cycle)
	if err != nil {
		respondError(c, err, "Failed to load billing")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycle_month": hb.Billing.Cycle(), "rows": rows})
}

func (hb *HandlerBundle) MarkPaidHandler(c *gin.Context) {
	if err := hb.Billing.MarkPaid(c.Request.Context(), c.Param("account")); err != nil {
		respondError(c, err, "Failed to mark bill as paid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": hb.Billing.Rows()})
}

func (hb *HandlerBundle) MarkAllPaidHandler(c *gin.Context) {
	if err := hb.Billing.MarkAllPaid(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to mark all bills as paid")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": hb.Billing.Rows()})
}

// SuspensionHandler sets the suspension of a provider account.
func (hb *HandlerBundle) SuspensionHandler(c *gin.Context) {
	var req struct {
		AccountNumber string `json:"account_number"`
		Suspended     *bool  `json:"is_suspended" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	state, err := hb.Billing.ToggleSuspension(c.Request.Context(), req.AccountNumber, *req.Suspended)
	if err != nil {
		respondError(c, err, "Failed to update suspension")
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_number": req.AccountNumber, "is_suspended": state})
}

func (hb *HandlerBundle) AddCreditHandler(c *gin.Context) {
	var req struct {
		Credit float64 `json:"credit_gyd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := hb.Billing.AddCredit(c.Request.Context(), c.Param("account"), req.Credit); err != nil {
		respondError(c, err, "Failed to apply credit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit applied"})
}

// GetServiceChargeHandler returns the live service charge, or the cached one marked stale.
func (hb *HandlerBundle) GetServiceChargeHandler(c *gin.Context) {
	charge, err := hb.ServiceCharge.Get(c.Request.Context())
	if err != nil {
		getLogger(c).Warn("Serving cached service charge", zap.Error(err))
	}
	c.JSON(http.StatusOK, charge)
}

func (hb *HandlerBundle) SaveServiceChargeHandler(c *gin.Context) {
	var req struct {
		Percentage *float64 `json:"service_charge_percentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	charge, err := hb.ServiceCharge.Save(c.Request.Context(), *req.Percentage)
	if err != nil {
		respondError(c, err, "Failed to save service charge")
		return
	}
	c.JSON(http.StatusOK, charge)
}
