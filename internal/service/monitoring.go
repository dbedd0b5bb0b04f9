package service

import (
	"context"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/repository"
)

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

var _ Monitoring = (*MonitoringService)(nil)

// GetState returns the latest persisted device snapshot. Before the first
// scan there is no row yet; a baseline zero-counter snapshot is returned.
func (s *MonitoringService) GetState(ctx context.Context) (smartaccess.DeviceState, error) {
	state, err := s.stateRepo.Load(ctx)
	if err != nil {
		return smartaccess.DeviceState{}, err
	}
	if state.ID == 0 {
		return baselineState(), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

// baselineState is the snapshot for a device that has seen no scans.
func baselineState() smartaccess.DeviceState {
	return smartaccess.DeviceState{
		ID:        1, // schema enforces single-row state with id=1
		UpdatedAt: time.Now().UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
