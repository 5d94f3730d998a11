package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (ctl *Controller) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (ctl *Controller) HealthCheck(c *gin.Context) {
	// Mặc định trạng thái OK
	response := gin.H{
		"status":    "ok",
		"message":   "Service is healthy",
		"timestamp": time.Now().Unix(),
		"db":        "ok",
		"editor": gin.H{
			"sessions":       ctl.Sessions.Len(),
			"active_renders": ctl.Renders.Active(),
		},
	}
	if ctl.Hub != nil {
		response["websocket"] = gin.H{
			"enabled": true,
			"stats":   ctl.Hub.GetStats(),
		}
	}

	// Thử ping database
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := ctl.Store.Ping(ctx); err != nil {
		response["db"] = "error: cannot connect to DB"
		response["status"] = "degraded"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
