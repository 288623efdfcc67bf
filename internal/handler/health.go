package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Health returns a JSON health check response.
// Checks Redis connectivity and the transfer service circuit breaker state;
// never exposes credentials or internals.
func Health(rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		cbState := cb.State()

		status := http.StatusOK
		if redisStatus != "connected" || cbState == infra.CBOpen {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":               status == http.StatusOK,
			"redis":            redisStatus,
			"transfer_service": cbState.String(),
		})
	}
}
