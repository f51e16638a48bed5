package controllers

import (
	"net/http"
	"time"

	"github.com/bazaarworks/pincode-pricing-backend/api/responses"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/config"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/redis"
)

const healthCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PinPrice-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the dependencies a working import or resolve call
// needs. Redis is reported but never fails readiness; the resolver works
// without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PinPrice-Env", cfg.App.Env)

		ctx, cancel := timeoutContext(r, healthCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness database ping failed", err)
				}
			} else {
				checks["database"] = "up"
			}
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				checks["redis"] = "down"
				if logg != nil {
					logg.Warn(ctx, "readiness redis ping failed")
				}
			} else {
				checks["redis"] = "up"
			}
		}

		status := "ready"
		httpStatus := http.StatusOK
		if !healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		responses.WriteSuccessStatus(w, httpStatus, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
