package routes

import (
	"net/http"
	"time"

	"bookitgy/config"
	"bookitgy/handlers"
	"bookitgy/middleware"
	"bookitgy/services/auth"
	"bookitgy/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers sign-in and session endpoints.
func RegisterAuthRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, requireSession gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", hb.LoginHandler)
		authGroup.POST("/logout", hb.LogoutHandler)
		authGroup.POST("/forgot-password", hb.ForgotPasswordHandler)
		authGroup.POST("/reset-password", hb.ResetPasswordHandler)
	}
	api.GET("/session", hb.SessionHandler)
	api.GET("/me", requireSession, hb.MeHandler)
}

// RegisterDirectoryRoutes registers the provider directory. It is public, like the API's.
func RegisterDirectoryRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/providers", hb.ListProvidersHandler)
	api.POST("/providers/location/retry", hb.RetryLocationHandler)
	api.GET("/providers/by-username/:username", hb.ProviderByUsernameHandler)
}

// RegisterBookingRoutes registers the selection workflow and the customer's bookings.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, requireSession gin.HandlerFunc) {
	selection := api.Group("/selection", requireSession)
	{
		selection.GET("", hb.GetSelectionHandler)
		selection.POST("/provider", hb.SelectProviderHandler)
		selection.POST("/service", hb.SelectServiceHandler)
		selection.POST("/date", hb.SelectDateHandler)
		selection.POST("/slot", hb.SelectSlotHandler)
		selection.POST("/refresh", hb.RefreshSelectionHandler)
		selection.POST("/book", hb.BookSelectionHandler)
	}

	bookings := api.Group("/bookings", requireSession)
	{
		bookings.GET("", hb.ListBookingsHandler)
		bookings.POST("/:id/cancel", hb.CancelBookingHandler)
	}

	favorites := api.Group("/favorites", requireSession)
	{
		favorites.GET("", hb.ListFavoritesHandler)
		favorites.POST("/:providerID", hb.ToggleFavoriteHandler)
		favorites.DELETE("/:providerID", hb.RemoveFavoriteHandler)
	}
}

// RegisterProviderRoutes registers the signed-in provider's catalog, hours and bookings.
func RegisterProviderRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, requireSession gin.HandlerFunc) {
	providerGroup := api.Group("/provider", requireSession)
	{
		providerGroup.GET("/services", hb.ListServicesHandler)
		providerGroup.POST("/services", hb.CreateServiceHandler)
		providerGroup.DELETE("/services/:id", hb.DeleteServiceHandler)
		providerGroup.GET("/hours", hb.GetHoursHandler)
		providerGroup.POST("/hours", hb.SaveHoursHandler)
		providerGroup.GET("/bookings", hb.ProviderBookingsHandler)
		providerGroup.POST("/bookings/:id/cancel", hb.ProviderCancelBookingHandler)
	}
}

// RegisterAdminRoutes registers the billing console.
func RegisterAdminRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle, requireSession gin.HandlerFunc) {
	adminGroup := api.Group("/admin", requireSession)
	{
		adminGroup.GET("/billing", hb.GetBillingHandler)
		adminGroup.POST("/billing/mark-all-paid", hb.MarkAllPaidHandler)
		adminGroup.POST("/billing/:account/mark-paid", hb.MarkPaidHandler)
		adminGroup.POST("/billing/:account/credit", hb.AddCreditHandler)
		adminGroup.POST("/providers/suspension", hb.SuspensionHandler)
		adminGroup.GET("/service-charge", hb.GetServiceChargeHandler)
		adminGroup.PUT("/service-charge", hb.SaveServiceChargeHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
	r.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, session *auth.Session, box *middleware.LocationBox) {
	origins := config.AppConfig.ConsoleOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID", "X-Client-Lat", "X-Client-Long"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RequestLoggerMiddleware())
	r.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	requireSession := middleware.SessionAuthMiddleware(session)
	api := r.Group("/api", middleware.ClientLocationMiddleware(box))

	RegisterAuthRoutes(api, hb, requireSession)
	RegisterDirectoryRoutes(api, hb)
	RegisterBookingRoutes(api, hb, requireSession)
	RegisterProviderRoutes(api, hb, requireSession)
	RegisterAdminRoutes(api, hb, requireSession)
	RegisterHealthRoute(r)
}
