package health

import (
	"context"
	"time"

	corehealth "3tcapital/phonecheck/internal/core/health"
)

// probeTimeout bounds each dependency check.
const probeTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Probe checks one backing dependency. A nil error means healthy.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	probes    []Probe
}

func NewService(meta Metadata, probes ...Probe) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		probes:    probes,
	}
}

// Status returns the current availability snapshot. Any failing probe marks
// the service DEGRADED.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, probe := range s.probes {
		dep := corehealth.Dependency{Name: probe.Name, Status: corehealth.StatusUp}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := probe.Check(probeCtx)
		cancel()

		if err != nil {
			dep.Status = corehealth.StatusDegraded
			dep.Error = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
