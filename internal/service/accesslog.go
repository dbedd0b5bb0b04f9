package service

import (
	"context"
	"net/http"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/backend"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/logger"
)

// AccessLogService posts granted/denied records to the backend from a
// detached goroutine per outcome. The caller is never blocked and never
// learns the result; failures surface only in the local log. Writes in
// flight at process exit are lost, which the contract allows.
type AccessLogService struct {
	backend backend.Authority
	log     *logger.Logger
}

func NewAccessLogService(authority backend.Authority, log *logger.Logger) *AccessLogService {
	return &AccessLogService{backend: authority, log: log}
}

var _ AccessLogger = (*AccessLogService)(nil)

// Record fires the remote write and returns immediately.
func (s *AccessLogService) Record(outcome smartaccess.AccessOutcome) {
	go s.post(outcome)
}

func (s *AccessLogService) post(outcome smartaccess.AccessOutcome) {
	// Detached from the validate call that spawned it; the client's own
	// timeout bounds the request.
	ctx := context.Background()

	var (
		reply *backend.Reply
		err   error
		kind  string
	)
	if outcome.Granted {
		kind = "granted"
		reply, err = s.backend.RecordGranted(ctx, outcome.UID, outcome.GuestID)
	} else {
		kind = "denied"
		reply, err = s.backend.RecordDenied(ctx, outcome.UID)
	}

	if err != nil {
		s.log.Errorw("access_log_post_failed", "kind", kind, "uid", outcome.UID, "err", err)
		return
	}
	if reply.StatusCode != http.StatusCreated {
		s.log.Errorw("access_log_rejected", "kind", kind, "uid", outcome.UID, "status", reply.StatusCode)
		return
	}
	s.log.Infow("access_log_recorded", "kind", kind, "uid", outcome.UID)
}
