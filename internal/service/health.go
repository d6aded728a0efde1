package service

import (
	"context"
	"time"

	"clipquiz/internal/domain"
	"clipquiz/internal/dto"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	cacheStatusOK          = "ok"
	cacheStatusUnavailable = "unavailable"
	cacheStatusDisabled    = "disabled"

	cachePingTimeout = 2 * time.Second
)

// HealthService reports model availability and cache reachability.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

type healthService struct {
	model domain.ModelHealthReporter
	cache domain.Cache
}

// NewHealthService creates a HealthService. cache may be nil.
func NewHealthService(model domain.ModelHealthReporter, cache domain.Cache) HealthService {
	return &healthService{model: model, cache: cache}
}

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	model := s.model.Health()
	resp := dto.HealthResponse{
		Status:       StatusOK,
		Model:        model.Model,
		ModelLoaded:  model.ModelLoaded,
		ModelMessage: model.Message,
		Cache:        cacheStatusDisabled,
	}
	if !model.Healthy {
		resp.Status = StatusDegraded
	}

	if s.cache != nil {
		pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
		defer cancel()
		if err := s.cache.Ping(pingCtx); err != nil {
			resp.Cache = cacheStatusUnavailable
			resp.Status = StatusDegraded
		} else {
			resp.Cache = cacheStatusOK
		}
	}
	return resp
}
