package service

import (
	"context"

	"smart_switch/internal/models"
	"smart_switch/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Switch exposes the command boundary of the supervisor: level
// commands, the button-style toggle, and the explicit fault reset.
type Switch interface {
	SetLevel(ctx context.Context, level int) error
	Toggle(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Monitoring exposes read-only status (mode, fault, command age, sync state).
type Monitoring interface {
	GetStatus(ctx context.Context) (models.SwitchStatus, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SwitchEvent, error)
}

// Mains runs the background half-cycle loop that drives the
// synchronizer and supervisor. Stop via context cancellation in main()
// for graceful shutdown.
type Mains interface {
	Run(ctx context.Context)
}

// Root Service aggregates all sub-services.
type Service struct {
	Switch
	Monitoring
	EventLog
	Mains
	Authorization
}

// NewService wires the repository layer and the control core into
// concrete services.
func NewService(repos *repository.Repository, core *Core) *Service {
	return &Service{
		Switch:        NewSwitchService(core, repos.EventRepo),
		Monitoring:    NewMonitoringService(core, repos.StateRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Mains:         NewMainsService(core, repos.StateRepo, repos.EventRepo),
		Authorization: NewAuthService(repos.Auth),
	}
}
