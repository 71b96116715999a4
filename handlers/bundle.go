package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers handed to the router.
type HandlerBundle struct {
	// Notification endpoints
	CheckNowHandler           gin.HandlerFunc
	NotificationStatusHandler gin.HandlerFunc

	// Ops endpoints
	HealthHandler  gin.HandlerFunc
	MetricsHandler gin.HandlerFunc
}
