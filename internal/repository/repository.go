package repository

import (
	"context"
	"database/sql"
	"time"

	"smart_switch/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StateRepo persists the single driver-state snapshot row.
type StateRepo interface {
	Save(ctx context.Context, s models.DriverState) error
	Load(ctx context.Context) (models.DriverState, error)
}

// EventRepo is the append-only switch event log.
type EventRepo interface {
	Append(ctx context.Context, e models.SwitchEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SwitchEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
