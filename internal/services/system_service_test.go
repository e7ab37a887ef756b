package services

import (
	"context"
	"errors"
	"testing"

	"github.com/swiftcart/api/internal/repositories"
)

type stubHealthRepo struct {
	statuses []repositories.DependencyStatus
	err      error
}

func (r *stubHealthRepo) CheckDependencies(context.Context) ([]repositories.DependencyStatus, error) {
	return r.statuses, r.err
}

func TestSystemServiceHealth(t *testing.T) {
	repo := &stubHealthRepo{statuses: []repositories.DependencyStatus{
		{Name: "firestore", Healthy: true},
		{Name: "redis", Healthy: true},
	}}
	svc, err := NewSystemService(SystemServiceDeps{Health: repo, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	health, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !health.Healthy || len(health.Dependencies) != 2 {
		t.Fatalf("unexpected health: %+v", health)
	}
	if !health.CheckedAt.Equal(fixedNow) {
		t.Fatalf("unexpected timestamp: %v", health.CheckedAt)
	}
}

func TestSystemServiceHealthDegraded(t *testing.T) {
	repo := &stubHealthRepo{statuses: []repositories.DependencyStatus{
		{Name: "firestore", Healthy: true},
		{Name: "redis", Healthy: false, Err: errors.New("dial timeout")},
	}}
	svc, err := NewSystemService(SystemServiceDeps{Health: repo, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewSystemService: %v", err)
	}

	health, err := svc.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Healthy {
		t.Fatalf("expected degraded health: %+v", health)
	}
}
