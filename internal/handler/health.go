package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB    *gorm.DB
	Cache any
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready checks the optional database and cache. A disabled database is not an error.
func (h *HealthHandler) ready(c *gin.Context) {
	deps := gin.H{"db": "disabled", "cache": "disabled"}
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
			return
		}
		deps["db"] = "ok"
	}
	if h.Cache != nil {
		deps["cache"] = "ok"
		if p, ok := h.Cache.(pinger); ok {
			if err := p.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "cache_unreachable"})
				return
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps})
}
