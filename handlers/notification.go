package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"freshtrack/cron"
	"freshtrack/services/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PassScheduler is the part of the scheduler the ops endpoints drive.
type PassScheduler interface {
	TriggerNow(ctx context.Context) (cron.PassResult, error)
	Status() cron.Status
}

// NotificationHandler serves the operational notification endpoints.
type NotificationHandler struct {
	Scheduler PassScheduler
	now       func() time.Time
}

func NewNotificationHandler(s PassScheduler) *NotificationHandler {
	return &NotificationHandler{Scheduler: s, now: time.Now}
}

// CheckNowHandler runs one pass synchronously.
func (h *NotificationHandler) CheckNowHandler(c *gin.Context) {
	logger := getLogger(c)
	timestamp := h.now().UTC()

	result, err := h.Scheduler.TriggerNow(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"timestamp": timestamp,
			"result":    result,
		})
	case errors.Is(err, cron.ErrPassInProgress):
		logger.Info("Manual notification check rejected, pass running elsewhere")
		c.JSON(http.StatusConflict, gin.H{
			"success":   false,
			"timestamp": timestamp,
			"message":   "A notification pass is already running",
		})
	case errors.Is(err, notification.ErrNotConfigured):
		logger.Warn("Manual notification check without store or delivery")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"timestamp": timestamp,
			"message":   "Notification service is not configured",
		})
	default:
		logger.Error("Manual notification check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"timestamp": timestamp,
			"message":   "Notification check failed",
		})
	}
}

// StatusHandler reports whether the timer is armed and at what cadence.
func (h *NotificationHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Scheduler.Status())
}
