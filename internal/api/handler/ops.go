// Package handler provides HTTP handlers for the SkyLens API.
package handler

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/skylens/skylens/internal/api/models"
	"github.com/skylens/skylens/internal/api/response"
	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/provider/resilience"
	"github.com/skylens/skylens/internal/registry"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	providers *resilience.Registry
	cache     *geocode.Cache
	registry  *registry.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, providers *resilience.Registry, cache *geocode.Cache, reg *registry.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		providers: providers,
		cache:     cache,
		registry:  reg,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Ready means the collection registry loaded; providers may be degraded
// since the pipeline tolerates every stage failing.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.registry == nil || h.registry.ProfileCount() == 0 {
		status = models.HealthStatusFail
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if h.registry != nil {
		health.Details = map[string]interface{}{
			"registryVersion": h.registry.Version(),
		}
	}

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: h.subsystemStatus(),
		Providers:  []models.ProviderStatus{},
	}

	if h.providers != nil {
		all := h.providers.GetAllHealth()
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

		openCount := 0
		for _, p := range all {
			ps := models.ProviderStatus{
				Provider: p.Name,
				Status:   providerHealthStatus(p),
			}
			if p.LastSuccessAt != nil {
				ts := models.Timestamp(*p.LastSuccessAt)
				ps.LastSuccessAt = &ts
			}
			if p.LastFailureAt != nil {
				ts := models.Timestamp(*p.LastFailureAt)
				ps.LastFailureAt = &ts
			}
			if p.LastError != "" {
				msg := p.LastError
				ps.Message = &msg
			}
			if p.IsUnhealthy() {
				openCount++
			}
			status.Providers = append(status.Providers, ps)
		}

		switch {
		case openCount == len(all) && len(all) > 0:
			status.Status = models.HealthStatusFail
		case openCount > 0:
			status.Status = models.HealthStatusDegraded
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, "provider-circuit-open")
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystemStatus() []models.SubsystemStatus {
	subsystems := []models.SubsystemStatus{}

	if h.registry != nil {
		detail := h.registry.Version()
		subsystems = append(subsystems, models.SubsystemStatus{
			Name:   "collection-registry",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		detail := cacheDetail(stats)
		subsystems = append(subsystems, models.SubsystemStatus{
			Name:   "geocode-cache",
			Status: models.HealthStatusOK,
			Detail: &detail,
		})
	}

	return subsystems
}

func providerHealthStatus(p *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case p.IsUnhealthy():
		return models.HealthStatusFail
	case p.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func cacheDetail(stats geocode.CacheStats) string {
	return fmt.Sprintf("entries=%d hits=%d misses=%d", stats.Entries, stats.Hits, stats.Misses)
}
