package handlers

import (
	"net/http"

	"freshtrack/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler returns the last snapshot of the health monitor.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if monitor == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := monitor.Status()
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
