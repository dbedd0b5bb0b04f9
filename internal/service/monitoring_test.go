package service

import (
	"context"
	"errors"
	"testing"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
)

func TestGetState_ReturnsPersistedSnapshot(t *testing.T) {
	updated := time.Date(2026, 8, 20, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	repo := &fakeStateRepo{
		loadResp: smartaccess.DeviceState{
			ID:           1,
			LastUID:      "A1",
			LastOutcome:  smartaccess.EventGranted,
			ScansTotal:   5,
			GrantedTotal: 4,
			DeniedTotal:  1,
			UpdatedAt:    updated,
		},
	}
	svc := NewMonitoringService(repo)

	st, err := svc.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.LastUID != "A1" || st.ScansTotal != 5 {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.UpdatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", st.UpdatedAt.Location())
	}
}

func TestGetState_BaselineBeforeFirstScan(t *testing.T) {
	svc := NewMonitoringService(&fakeStateRepo{})

	t0 := time.Now().UTC()
	st, err := svc.GetState(context.Background())
	t1 := time.Now().UTC()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.ID != 1 {
		t.Fatalf("expected baseline row id 1, got %d", st.ID)
	}
	if st.ScansTotal != 0 || st.LastUID != "" || st.LastOutcome != "" {
		t.Fatalf("expected empty baseline, got %+v", st)
	}
	if st.UpdatedAt.Before(t0) || st.UpdatedAt.After(t1) {
		t.Fatalf("baseline timestamp %v outside [%v, %v]", st.UpdatedAt, t0, t1)
	}
}

func TestGetState_PropagatesRepoError(t *testing.T) {
	svc := NewMonitoringService(&fakeStateRepo{loadErr: errors.New("db down")})

	if _, err := svc.GetState(context.Background()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
