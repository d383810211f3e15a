package handlers

import (
	"net/http"

	"bookitgy/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler signs in with a username or email and returns the profile.
func (hb *HandlerBundle) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := hb.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// LogoutHandler forgets the credential and the current booking selection.
func (hb *HandlerBundle) LogoutHandler(c *gin.Context) {
	if err := hb.Auth.Logout(c.Request.Context()); err != nil {
		respondError(c, err, "Logout failed")
		return
	}
	if hb.Selector != nil {
		hb.Selector.SelectProvider(c.Request.Context(), models.Provider{})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// SessionHandler restores the persisted session and reports its state.
func (hb *HandlerBundle) SessionHandler(c *gin.Context) {
	res := hb.Auth.Restore(c.Request.Context())
	body := gin.H{"state": res.State, "user": res.User}
	if res.Err != nil {
		getLogger(c).Warn("Session restore incomplete", zap.String("state", string(res.State)), zap.Error(res.Err))
		body["error"] = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// MeHandler returns the signed-in profile.
func (hb *HandlerBundle) MeHandler(c *gin.Context) {
	user, err := hb.Auth.Me(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (hb *HandlerBundle) ForgotPasswordHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := hb.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to request password reset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
}

func (hb *HandlerBundle) ResetPasswordHandler(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := hb.Auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
