package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/repository/db"
)

// InitDB opens the SQLite file and bootstraps the schema.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	deviceStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO device_state (id, last_uid, last_outcome, scans_total, granted_total, denied_total, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_uid=excluded.last_uid,
			last_outcome=excluded.last_outcome,
			scans_total=excluded.scans_total,
			granted_total=excluded.granted_total,
			denied_total=excluded.denied_total,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, last_uid, last_outcome, scans_total, granted_total, denied_total, updated_at
		FROM device_state WHERE id=?
	`
)

// Save upserts the device_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, state smartaccess.DeviceState) error {
	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		deviceStateRowID,
		state.LastUID,
		state.LastOutcome,
		state.ScansTotal,
		state.GrantedTotal,
		state.DeniedTotal,
		tsUTC,
	)
	return err
}

// Load fetches the single device_state row. A zero value with ID 0 means
// no state has been persisted yet.
func (r *StateSQLite) Load(ctx context.Context) (smartaccess.DeviceState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, deviceStateRowID)

	var s smartaccess.DeviceState
	if err := row.Scan(
		&s.ID,
		&s.LastUID,
		&s.LastOutcome,
		&s.ScansTotal,
		&s.GrantedTotal,
		&s.DeniedTotal,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return smartaccess.DeviceState{}, nil
		}
		return smartaccess.DeviceState{}, err
	}

	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
