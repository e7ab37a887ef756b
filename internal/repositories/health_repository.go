package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultDependencyTimeout = 1500 * time.Millisecond

// DependencyCheck probes one backing service during readiness checks.
type DependencyCheck struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// DependencyStatus is the outcome of a single probe.
type DependencyStatus struct {
	Name    string
	Healthy bool
	Latency time.Duration
	Err     error
}

// DependencyHealthOption customises the dependency-backed health repository.
type DependencyHealthOption func(*dependencyHealthRepository)

// WithDependencyTimeout sets the timeout used when a check does not carry its
// own.
func WithDependencyTimeout(timeout time.Duration) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if timeout > 0 {
			repo.defaultTimeout = timeout
		}
	}
}

// WithDependencyClock injects a clock for tests.
func WithDependencyClock(clock func() time.Time) DependencyHealthOption {
	return func(repo *dependencyHealthRepository) {
		if clock != nil {
			repo.now = clock
		}
	}
}

type dependencyHealthRepository struct {
	checks         []DependencyCheck
	defaultTimeout time.Duration
	now            func() time.Time
}

var _ HealthRepository = (*dependencyHealthRepository)(nil)

// NewDependencyHealthRepository builds a HealthRepository that probes the
// given dependencies concurrently.
func NewDependencyHealthRepository(checks []DependencyCheck, opts ...DependencyHealthOption) (HealthRepository, error) {
	if err := validateChecks(checks); err != nil {
		return nil, err
	}

	repo := &dependencyHealthRepository{
		checks:         append([]DependencyCheck(nil), checks...),
		defaultTimeout: defaultDependencyTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

func validateChecks(checks []DependencyCheck) error {
	if len(checks) == 0 {
		return errors.New("health repository: at least one dependency check is required")
	}
	for _, check := range checks {
		if strings.TrimSpace(check.Name) == "" {
			return errors.New("health repository: dependency check missing name")
		}
		if check.Check == nil {
			return fmt.Errorf("health repository: dependency %s missing check function", check.Name)
		}
	}
	return nil
}

func (r *dependencyHealthRepository) CheckDependencies(ctx context.Context) ([]DependencyStatus, error) {
	if ctx == nil {
		return nil, errors.New("health repository: context is required")
	}

	results := make([]DependencyStatus, len(r.checks))
	var wg sync.WaitGroup
	for i, check := range r.checks {
		wg.Add(1)
		go func(i int, check DependencyCheck) {
			defer wg.Done()
			results[i] = r.probe(ctx, check)
		}(i, check)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

func (r *dependencyHealthRepository) probe(ctx context.Context, check DependencyCheck) DependencyStatus {
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := r.now()
	err := check.Check(probeCtx)
	latency := r.now().Sub(start)

	// A check that swallows its context error still counts as unhealthy.
	if err == nil && probeCtx.Err() != nil {
		err = probeCtx.Err()
	}

	return DependencyStatus{
		Name:    check.Name,
		Healthy: err == nil,
		Latency: latency,
		Err:     err,
	}
}
