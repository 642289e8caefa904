package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"smart_switch/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	driverStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO driver_state (id, conducting, pin_high, level, safe_mode, fault, sync_state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			conducting=excluded.conducting,
			pin_high=excluded.pin_high,
			level=excluded.level,
			safe_mode=excluded.safe_mode,
			fault=excluded.fault,
			sync_state=excluded.sync_state,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, conducting, pin_high, level, safe_mode, fault, sync_state, updated_at
		FROM driver_state WHERE id=?
	`
)

// Save upserts the driver_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state models.DriverState) error {
	// persist timestamps as UTC; stamp if the caller left it zero
	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		driverStateRowID,
		state.Conducting,
		state.PinHigh,
		state.Level,
		state.SafeMode,
		state.Fault,
		state.SyncState,
		tsUTC,
	)
	return err
}

// Load fetches the single driver_state row (id=1). A missing row is not
// an error: it returns the zero value, ID 0 meaning "no state yet".
func (r *StateSQLite) Load(ctx context.Context) (models.DriverState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, driverStateRowID)

	var s models.DriverState
	if err := row.Scan(
		&s.ID,
		&s.Conducting,
		&s.PinHigh,
		&s.Level,
		&s.SafeMode,
		&s.Fault,
		&s.SyncState,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DriverState{}, nil
		}
		return models.DriverState{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
