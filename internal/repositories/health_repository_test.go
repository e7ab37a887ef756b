package repositories

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewDependencyHealthRepositoryRequiresChecks(t *testing.T) {
	if _, err := NewDependencyHealthRepository(nil); err == nil {
		t.Fatalf("expected error when no checks are provided")
	}

	_, err := NewDependencyHealthRepository([]DependencyCheck{{Name: " "}})
	if err == nil {
		t.Fatalf("expected error for unnamed check")
	}

	_, err = NewDependencyHealthRepository([]DependencyCheck{{Name: "firestore"}})
	if err == nil {
		t.Fatalf("expected error for check without function")
	}
}

func TestCheckDependenciesReportsPerDependency(t *testing.T) {
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{
			Name:  "firestore",
			Check: func(context.Context) error { return nil },
		},
		{
			Name:  "redis",
			Check: func(context.Context) error { return errors.New("connection refused") },
		},
	})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	statuses, err := repo.CheckDependencies(context.Background())
	if err != nil {
		t.Fatalf("CheckDependencies: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	// Sorted by name.
	if statuses[0].Name != "firestore" || !statuses[0].Healthy {
		t.Fatalf("expected healthy firestore first, got %+v", statuses[0])
	}
	if statuses[1].Name != "redis" || statuses[1].Healthy {
		t.Fatalf("expected unhealthy redis, got %+v", statuses[1])
	}
	if statuses[1].Err == nil {
		t.Fatalf("expected error recorded for redis")
	}
}

func TestCheckDependenciesAppliesTimeout(t *testing.T) {
	repo, err := NewDependencyHealthRepository([]DependencyCheck{
		{
			Name:    "slow",
			Timeout: 10 * time.Millisecond,
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	})
	if err != nil {
		t.Fatalf("NewDependencyHealthRepository: %v", err)
	}

	statuses, err := repo.CheckDependencies(context.Background())
	if err != nil {
		t.Fatalf("CheckDependencies: %v", err)
	}
	if statuses[0].Healthy {
		t.Fatalf("expected timeout to mark dependency unhealthy")
	}
	if !errors.Is(statuses[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", statuses[0].Err)
	}
}
