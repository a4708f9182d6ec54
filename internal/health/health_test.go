package health

import (
	"context"
	"sync"
	"testing"
)

func up(_ context.Context) Status   { return Status{Healthy: true} }
func down(_ context.Context) Status { return Status{Healthy: false, Detail: "connection refused"} }

func TestEmptyRegistryIsHealthy(t *testing.T) {
	healthy, statuses := NewRegistry().CheckAll(context.Background())
	if !healthy {
		t.Fatal("empty registry should be healthy")
	}
	if len(statuses) != 0 {
		t.Fatalf("expected no statuses, got %d", len(statuses))
	}
}

func TestAggregateHealth(t *testing.T) {
	r := NewRegistry()
	r.Register("database", up)
	r.Register("assessments", up)

	healthy, statuses := r.CheckAll(context.Background())
	if !healthy {
		t.Fatal("all subsystems up, expected healthy")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}

	r.Register("reporting", down)
	healthy, statuses = r.CheckAll(context.Background())
	if healthy {
		t.Fatal("one subsystem down, expected unhealthy")
	}
	if statuses[2].Detail != "connection refused" {
		t.Fatalf("expected failure detail, got %q", statuses[2].Detail)
	}
}

func TestNameStampedFromRegistration(t *testing.T) {
	r := NewRegistry()
	r.Register("database", up)
	r.Register("custom", func(_ context.Context) Status {
		return Status{Name: "custom-name", Healthy: true}
	})

	_, statuses := r.CheckAll(context.Background())
	if statuses[0].Name != "database" {
		t.Errorf("expected registration name, got %q", statuses[0].Name)
	}
	if statuses[1].Name != "custom-name" {
		t.Errorf("checker-provided name should win, got %q", statuses[1].Name)
	}
}

func TestConcurrentRegisterAndCheck(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register("probe", up)
		}()
		go func() {
			defer wg.Done()
			r.CheckAll(context.Background())
		}()
	}
	wg.Wait()
}
