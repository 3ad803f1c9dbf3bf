package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/adminkit-backend/api/responses"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck checks one dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthPayload struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Version   string    `json:"version"`
}

func Health(version string, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, healthPayload{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(startedAt).Seconds(),
			Version:   version,
		})
	}
}

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	}
}

// HealthReady runs every check and answers 503 when any of them fails.
func HealthReady(checks []ReadinessCheck, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]bool, len(checks))
		ready := true
		for _, c := range checks {
			err := c.Check(ctx)
			results[c.Name] = err == nil
			if err != nil {
				ready = false
				logg.Warn(logg.WithFields(ctx, map[string]any{"check": c.Name, "error": err.Error()}), "health.not_ready")
			}
		}

		if !ready {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "service not ready").
				WithDetails(map[string]any{"status": "not_ready", "checks": results}))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"checks":    results,
		})
	}
}
