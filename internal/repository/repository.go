package repository

import (
	"context"
	"database/sql"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*smartaccess.User, error)
}

// StateRepo persists the single device-state snapshot row.
type StateRepo interface {
	Save(ctx context.Context, s smartaccess.DeviceState) error
	Load(ctx context.Context) (smartaccess.DeviceState, error)
}

// EventRepo is the append-only local access journal.
type EventRepo interface {
	Append(ctx context.Context, e smartaccess.AccessEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]smartaccess.AccessEvent, error)
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
