package services

import (
	"context"
	"errors"
	"time"

	"github.com/swiftcart/api/internal/repositories"
)

// SystemServiceDeps wires the dependency health repository.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
	Clock  func() time.Time
}

type systemService struct {
	health repositories.HealthRepository
	now    func() time.Time
}

// NewSystemService constructs a SystemService enforcing dependency validation.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("system service: clock is required")
	}
	return &systemService{
		health: deps.Health,
		now:    func() time.Time { return deps.Clock().UTC() },
	}, nil
}

func (s *systemService) Health(ctx context.Context) (SystemHealth, error) {
	statuses, err := s.health.CheckDependencies(ctx)
	if err != nil {
		return SystemHealth{}, err
	}

	healthy := true
	for _, status := range statuses {
		if !status.Healthy {
			healthy = false
			break
		}
	}

	return SystemHealth{
		Healthy:      healthy,
		Dependencies: statuses,
		CheckedAt:    s.now(),
	}, nil
}
