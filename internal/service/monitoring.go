package service

import (
	"context"
	"time"

	"smart_switch/internal/models"
	"smart_switch/internal/repository"
)

type MonitoringService struct {
	core      *Core
	stateRepo repository.StateRepo
}

func NewMonitoringService(core *Core, stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{core: core, stateRepo: stateRepo}
}

// GetStatus returns the live supervisor status. UpdatedAt is taken from
// the last persisted snapshot when one exists, so callers can tell how
// recent the stored state is; otherwise it is stamped now.
func (s *MonitoringService) GetStatus(ctx context.Context) (models.SwitchStatus, error) {
	st := s.core.Supervisor.Status()

	persisted, err := s.stateRepo.Load(ctx)
	if err == nil && persisted.ID != 0 {
		st.UpdatedAt = toUTC(persisted.UpdatedAt)
	} else {
		st.UpdatedAt = time.Now().UTC()
	}
	return st, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
