package health

import (
	"context"
	"errors"
	"testing"
	"time"

	corehealth "3tcapital/phonecheck/internal/core/health"
)

func TestNewService(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)

	if service == nil {
		t.Fatal("expected service to be created, got nil")
	}

	if service.meta != meta {
		t.Error("expected service to have the provided metadata")
	}

	if service.startedAt.IsZero() {
		t.Error("expected startedAt to be set")
	}
}

func TestService_Status(t *testing.T) {
	meta := Metadata{
		Service:     "test-service",
		Version:     "1.0.0",
		Environment: "test",
	}

	service := NewService(meta)
	startTime := service.startedAt

	time.Sleep(10 * time.Millisecond)

	status := service.Status(context.Background())

	if status.Service != meta.Service {
		t.Errorf("expected service %q, got %q", meta.Service, status.Service)
	}

	if status.Version != meta.Version {
		t.Errorf("expected version %q, got %q", meta.Version, status.Version)
	}

	if status.Environment != meta.Environment {
		t.Errorf("expected environment %q, got %q", meta.Environment, status.Environment)
	}

	if status.Status != corehealth.StatusUp {
		t.Errorf("expected status 'UP', got %q", status.Status)
	}

	if !status.StartedAt.Equal(startTime) {
		t.Errorf("expected startedAt to match service start time")
	}

	if status.UptimeSecs < 0 {
		t.Errorf("expected uptimeSecs to be non-negative, got %d", status.UptimeSecs)
	}

	if status.Uptime == "" {
		t.Error("expected uptime to be set")
	}

	if len(status.Dependencies) != 0 {
		t.Errorf("expected no dependencies, got %d", len(status.Dependencies))
	}
}

func TestService_Status_Probes(t *testing.T) {
	var gotDeadline bool
	service := NewService(Metadata{Service: "test"},
		Probe{Name: "postgres", Check: func(ctx context.Context) error {
			_, gotDeadline = ctx.Deadline()
			return nil
		}},
		Probe{Name: "redis", Check: func(context.Context) error {
			return errors.New("connection refused")
		}},
	)

	status := service.Status(context.Background())

	if !gotDeadline {
		t.Error("expected probe context to carry a deadline")
	}

	if status.Status != corehealth.StatusDegraded {
		t.Errorf("expected status DEGRADED, got %q", status.Status)
	}

	if len(status.Dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(status.Dependencies))
	}

	if dep := status.Dependencies[0]; dep.Name != "postgres" || dep.Status != corehealth.StatusUp || dep.Error != "" {
		t.Errorf("unexpected postgres dependency: %+v", dep)
	}

	if dep := status.Dependencies[1]; dep.Name != "redis" || dep.Status != corehealth.StatusDegraded || dep.Error != "connection refused" {
		t.Errorf("unexpected redis dependency: %+v", dep)
	}
}
