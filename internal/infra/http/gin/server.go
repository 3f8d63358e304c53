package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/infra/config"
	"rentdesk/internal/infra/obs"
)

type Handlers struct {
	Auth           *AuthHandler
	Listings       *ListingHandler
	Reservations   *ReservationHandler
	Favorites      *FavoriteHandler
	Dashboard      *DashboardHandler
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter wires every route. Handlers left nil are not mounted.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
		api.PATCH("/auth/me", h.Auth.UpdateProfile)
		api.POST("/auth/password", h.Auth.ChangePassword)
		api.PATCH("/owners/:id", h.Auth.UpdateOwner)
	}
	if h.Listings != nil {
		api.GET("/listings", h.Listings.Search)
		api.POST("/listings", h.Listings.Create)
		api.GET("/listings/:id", h.Listings.Get)
		api.PATCH("/listings/:id", h.Listings.Update)
		api.DELETE("/listings/:id", h.Listings.Delete)
		api.POST("/listings/:id/photos", h.Listings.UploadPhoto)
		api.GET("/owner/listings", h.Listings.Mine)
	}
	if h.Reservations != nil {
		api.GET("/listings/:id/reservations", h.Reservations.ForListing)
		api.GET("/listings/:id/availability", h.Reservations.CheckAvailability)
		api.POST("/reservations", h.Reservations.Create)
		api.GET("/reservations", h.Reservations.List)
		api.GET("/reservations/active", h.Reservations.Active)
		api.GET("/reservations/upcoming", h.Reservations.Upcoming)
		api.GET("/reservations/:id", h.Reservations.Get)
		api.POST("/reservations/:id/confirm", h.Reservations.Confirm)
		api.POST("/reservations/:id/mark-paid", h.Reservations.MarkPaid)
		api.POST("/reservations/:id/cancel", h.Reservations.Cancel)
		api.POST("/reservations/:id/complete", h.Reservations.Complete)
		api.PATCH("/reservations/:id/status", h.Reservations.UpdateStatus)
	}
	if h.Favorites != nil {
		api.GET("/favorites", h.Favorites.List)
		api.POST("/favorites/toggle", h.Favorites.Toggle)
	}
	if h.Dashboard != nil {
		api.GET("/dashboard/owner", h.Dashboard.Owner)
		api.GET("/dashboard/tenant", h.Dashboard.Tenant)
		api.GET("/admin/stats", h.Dashboard.Admin)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
