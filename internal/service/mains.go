package service

import (
	"context"
	"time"

	"smart_switch/internal/models"
	"smart_switch/internal/phase"
	"smart_switch/internal/repository"

	"github.com/google/uuid"
)

// MainsService is the half-cycle loop. Each tick stands in for the
// zero-cross interrupt on real hardware: it feeds the synchronizer,
// runs one supervision step, records transitions in the event log, and
// persists the driver-state snapshot when it changes. Button presses
// arrive on the same loop and toggle the output, like the cord switch
// button on the board.
type MainsService struct {
	core      *Core
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
}

// NewMainsService returns the loop service; Run does the work.
func NewMainsService(core *Core, stateRepo repository.StateRepo, eventRepo repository.EventRepo) *MainsService {
	return &MainsService{core: core, stateRepo: stateRepo, eventRepo: eventRepo}
}

// Run ticks once per mains half-cycle until ctx is canceled. On exit
// the output is forced off so cancellation can never leave the triac
// mid-conduction.
func (m *MainsService) Run(ctx context.Context) {
	defer m.core.Supervisor.Shutdown()

	t := time.NewTicker(m.core.Sync.HalfCycle().Duration())
	defer t.Stop()

	var prev models.DriverState
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-m.core.Button.Presses():
			m.buttonToggle(ctx, at)
		case <-t.C:
			m.step(ctx, &prev)
		}
	}
}

// step is one simulated zero-cross interrupt.
func (m *MainsService) step(ctx context.Context, prev *models.DriverState) {
	now := m.core.Timebase.Now()
	sync := m.core.Sync

	// With the sense circuit populated, the simulated mains delivers an
	// edge every half-cycle; without it the synchronizer free-runs.
	if m.core.Config().SensePresent {
		if tr, changed := sync.Edge(now); changed {
			m.logSyncTransition(ctx, tr)
			if tr.Implausible {
				m.core.Supervisor.NoteImplausibleEdge()
			}
		}
	}
	if tr, changed := sync.Check(now); changed {
		m.logSyncTransition(ctx, tr)
	}

	res := m.core.Supervisor.OnPhase(sync.Reference(now), sync.State())

	if res.NewFault != "" {
		m.appendEvent(ctx, models.EventFault, "Fault recorded", map[string]any{
			"fault": res.NewFault,
		})
	}
	if res.EnteredSafe {
		m.appendEvent(ctx, models.EventSafeMode, "Entered safe mode", map[string]any{
			"fault": res.State.Fault,
		})
	}
	if res.Recovered {
		m.appendEvent(ctx, models.EventRecover, "Recovered from safe mode", nil)
	}
	if res.PulseMissed {
		m.appendEvent(ctx, models.EventFault, "Firing window missed; half-cycle skipped", nil)
	}

	st := res.State
	if stateChanged(st, *prev) {
		st.UpdatedAt = time.Now().UTC()
		if err := m.stateRepo.Save(ctx, st); err == nil {
			*prev = st
		}
	}
}

// buttonToggle mirrors the physical button: off if anything is
// commanded, full on otherwise.
func (m *MainsService) buttonToggle(ctx context.Context, at time.Time) {
	target := 0
	if m.core.Supervisor.Status().Level == 0 {
		target = m.core.Supervisor.MaxLevel()
	}
	if err := m.core.Supervisor.SetCommand(target); err != nil {
		return
	}
	m.appendEvent(ctx, models.EventToggle, "Button toggled output", map[string]any{
		"level":      target,
		"pressed_at": at.UTC(),
		"source":     "button",
	})
}

func (m *MainsService) logSyncTransition(ctx context.Context, tr phase.Transition) {
	m.appendEvent(ctx, models.EventSync, "Synchronizer "+tr.From.String()+" -> "+tr.To.String(), map[string]any{
		"from":        tr.From.String(),
		"to":          tr.To.String(),
		"implausible": tr.Implausible,
	})
}

func (m *MainsService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	ev := models.SwitchEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	_ = m.eventRepo.Append(ctx, ev)
}

// stateChanged compares everything except the timestamp.
func stateChanged(a, b models.DriverState) bool {
	a.UpdatedAt = time.Time{}
	b.UpdatedAt = time.Time{}
	return a != b
}
