package service

import (
	"context"
	"time"

	"smart_switch/internal/models"
	"smart_switch/internal/repository"

	"github.com/google/uuid"
)

// SwitchService is the command boundary in front of the supervisor.
// Commands are validated by the supervisor itself; this layer only adds
// the audit trail.
type SwitchService struct {
	core      *Core
	eventRepo repository.EventRepo
}

func NewSwitchService(core *Core, eventRepo repository.EventRepo) *SwitchService {
	return &SwitchService{core: core, eventRepo: eventRepo}
}

// SetLevel forwards a power command. An out-of-range level is rejected
// by the supervisor, the prior command stays in effect, and the
// rejection is still recorded in the event log.
func (s *SwitchService) SetLevel(ctx context.Context, level int) error {
	now := time.Now().UTC()

	if err := s.core.Supervisor.SetCommand(level); err != nil {
		_ = s.eventRepo.Append(ctx, models.SwitchEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  now,
			Type:        models.EventCommand,
			Description: "Command rejected",
			Metadata: map[string]any{
				"level":    level,
				"accepted": false,
				"reason":   err.Error(),
			},
		})
		return err
	}

	return s.eventRepo.Append(ctx, models.SwitchEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now,
		Type:        models.EventCommand,
		Description: "Level commanded",
		Metadata: map[string]any{
			"level":    level,
			"accepted": true,
		},
	})
}

// Toggle flips between off and full on, the same action the physical
// button performs. Returns the level that was commanded.
func (s *SwitchService) Toggle(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	target := 0
	if s.core.Supervisor.Status().Level == 0 {
		target = s.core.Supervisor.MaxLevel()
	}
	if err := s.core.Supervisor.SetCommand(target); err != nil {
		return 0, err
	}

	return target, s.eventRepo.Append(ctx, models.SwitchEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now,
		Type:        models.EventToggle,
		Description: "Output toggled",
		Metadata:    map[string]any{"level": target},
	})
}

// Reset requests clearing of a latched FAULT_THRESHOLD. This is the only
// way out of that fault; everything else self-clears.
func (s *SwitchService) Reset(ctx context.Context) error {
	s.core.Supervisor.RequestReset()

	return s.eventRepo.Append(ctx, models.SwitchEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventReset,
		Description: "Fault reset requested",
	})
}
