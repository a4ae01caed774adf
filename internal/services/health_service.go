package services

import (
	"context"
	"log/slog"
	"time"

	"plapulse/internal/dataset"
)

// HealthService reports liveness plus per-dataset readiness.
type HealthService struct {
	version   string
	buildTime string
	data      *DataService
	logger    *slog.Logger
	started   time.Time
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Uptime   string          `json:"uptime"`
	Datasets map[string]bool `json:"datasets"`
}

// VersionInfo is the version endpoint payload.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
}

// NewHealthService creates a health service.
func NewHealthService(version, buildTime string, data *DataService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		data:      data,
		logger:    logger.With(slog.String("component", "health_service")),
		started:   time.Now(),
	}
}

// HealthCheck reports overall status. The service is degraded, not down,
// while a dataset is unloaded; queries against it fail cleanly.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	datasets := make(map[string]bool, len(dataset.Kinds()))
	allLoaded := true
	for _, kind := range dataset.Kinds() {
		loaded := s.data.Loaded(kind)
		datasets[string(kind)] = loaded
		allLoaded = allLoaded && loaded
	}

	status := "healthy"
	if !allLoaded {
		status = "degraded"
	}

	return HealthStatus{
		Status:   status,
		Version:  s.version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Datasets: datasets,
	}
}

// Version returns build information.
func (s *HealthService) Version() VersionInfo {
	return VersionInfo{Version: s.version, BuildTime: s.buildTime}
}
