package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Redis: rdb}
}

// Health pings the database and, when configured, Redis. Redis being down
// degrades the service but does not fail the check.
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	switch {
	case hc.Redis == nil:
		checks["redis"] = "disabled"
	case hc.Redis.Ping(ctx).Err() != nil:
		checks["redis"] = "unavailable"
	default:
		checks["redis"] = "ok"
	}

	c.JSON(status, gin.H{"success": status == http.StatusOK, "checks": checks})
}
