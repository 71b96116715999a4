package routes

import (
	"time"

	"freshtrack/handlers"
	"freshtrack/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes registers the operational notification endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle, requestsPerMin int) {
	api := r.Group("/notification")
	{
		api.Use(middleware.RateLimitMiddleware(requestsPerMin))
		api.Use(middleware.JWTAuthAdminMiddleware())
		api.POST("/check-now", hb.CheckNowHandler)
		api.GET("/status", hb.NotificationStatusHandler)
	}
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	if hb.MetricsHandler != nil {
		r.GET("/metrics", hb.MetricsHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, requestsPerMin int) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterNotificationRoutes(r, hb, requestsPerMin)
	RegisterOpsRoutes(r, hb)
}
