package service

import (
	"context"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/actuator"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/backend"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/logger"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Validator runs one credential scan through verify/activate/actuate.
// It has no return value; outcomes are observed through the actuator,
// the access logger and the local journal.
type Validator interface {
	Validate(ctx context.Context, uid string)
}

// AccessLogger reports settled outcomes to the backend without blocking
// the caller. Best effort: failures are logged locally and dropped.
type AccessLogger interface {
	Record(outcome smartaccess.AccessOutcome)
}

// Monitoring exposes the read-only device snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (smartaccess.DeviceState, error)
}

// EventLog exposes the append-only local journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]smartaccess.AccessEvent, error)
}

// Config carries the tunables the services need from configuration.
type Config struct {
	UnlockDuration time.Duration
	SigningKey     string
	TokenTTL       time.Duration
}

// Service aggregates all sub-services.
type Service struct {
	Validator
	AccessLogger
	Monitoring
	EventLog
	Authorization
}

// NewService wires the repository layer, the backend client and the lock
// actuator into concrete services.
func NewService(repos *repository.Repository, authority backend.Authority, lock actuator.Lock, log *logger.Logger, cfg Config) *Service {
	recorder := NewAccessLogService(authority, log)
	return &Service{
		Validator:     NewValidatorService(authority, lock, recorder, repos.StateRepo, repos.EventRepo, log, cfg.UnlockDuration),
		AccessLogger:  recorder,
		Monitoring:    NewMonitoringService(repos.StateRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey, cfg.TokenTTL),
	}
}

// LogFilter supports journal filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "GRANTED", "DENIED", "ERROR"
}
