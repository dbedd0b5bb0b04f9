package service

import (
	"context"
	"errors"
	"testing"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
)

func TestEventLogList_NormalizesTypeFilter(t *testing.T) {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	repo := &fakeEventRepo{
		events: []smartaccess.AccessEvent{
			{EventID: "1", OccurredAt: base, Type: "GRANTED", UID: "A1"},
			{EventID: "2", OccurredAt: base.Add(time.Minute), Type: "DENIED", UID: "C3"},
		},
	}
	svc := NewEventLogService(repo)

	events, err := svc.List(context.Background(), LogFilter{
		From: base.Add(-time.Hour),
		To:   base.Add(time.Hour),
		Type: "  denied ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].UID != "C3" {
		t.Fatalf("expected only the denied event, got %+v", events)
	}
}

func TestEventLogList_RejectsInvertedRange(t *testing.T) {
	svc := NewEventLogService(&fakeEventRepo{})

	_, err := svc.List(context.Background(), LogFilter{
		From: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}

func TestEventLogList_PropagatesRepoError(t *testing.T) {
	svc := NewEventLogService(&fakeEventRepo{listErr: errors.New("db down")})

	if _, err := svc.List(context.Background(), LogFilter{}); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
