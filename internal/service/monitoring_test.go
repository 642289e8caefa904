package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"smart_switch/internal/models"
)

// fakeStateRepo keeps the single snapshot row in memory.
type fakeStateRepo struct {
	mu    sync.Mutex
	state models.DriverState
	saves int
}

func (f *fakeStateRepo) Save(_ context.Context, s models.DriverState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
	f.saves++
	return nil
}

func (f *fakeStateRepo) Load(context.Context) (models.DriverState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeStateRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func TestMonitoring_StatusUsesPersistedTimestamp(t *testing.T) {
	stamped := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := &fakeStateRepo{state: models.DriverState{ID: 1, UpdatedAt: stamped}}
	svc := NewMonitoringService(newTestCore(), repo)

	st, err := svc.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.UpdatedAt.Equal(stamped) {
		t.Fatalf("UpdatedAt = %v, want persisted %v", st.UpdatedAt, stamped)
	}
	if st.Version != "test" {
		t.Fatalf("version not surfaced: %+v", st)
	}
}

func TestMonitoring_StatusWithoutSnapshotStampsNow(t *testing.T) {
	svc := NewMonitoringService(newTestCore(), &fakeStateRepo{})

	before := time.Now().UTC()
	st, err := svc.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.UpdatedAt.Before(before) {
		t.Fatalf("UpdatedAt = %v, expected a fresh stamp", st.UpdatedAt)
	}
	if !st.SafeMode || st.Mode != models.ModeSafe {
		t.Fatalf("boot status not safe: %+v", st)
	}
}
