package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/actuator"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/backend"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/logger"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/repository"
)

const defaultUnlockDuration = 5 * time.Second

// Deny reasons synthesized locally when the backend gives no usable detail.
const (
	reasonParseError     = "backend response parse error"
	reasonUnknownBackend = "unknown backend error"
	reasonNoDetail       = "no detail provided"
)

// ValidatorService is the credential validation state machine. One scan at
// a time: the reader loop never overlaps calls, so the lock actuator sees
// at most one operation per Validate and needs no synchronization.
type ValidatorService struct {
	backend   backend.Authority
	lock      actuator.Lock
	recorder  AccessLogger
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	log       *logger.Logger

	unlockDuration time.Duration
}

func NewValidatorService(
	authority backend.Authority,
	lock actuator.Lock,
	recorder AccessLogger,
	stateRepo repository.StateRepo,
	eventRepo repository.EventRepo,
	log *logger.Logger,
	unlockDuration time.Duration,
) *ValidatorService {
	if unlockDuration <= 0 {
		unlockDuration = defaultUnlockDuration
	}
	return &ValidatorService{
		backend:        authority,
		lock:           lock,
		recorder:       recorder,
		stateRepo:      stateRepo,
		eventRepo:      eventRepo,
		log:            log,
		unlockDuration: unlockDuration,
	}
}

var _ Validator = (*ValidatorService)(nil)

// Validate runs one scanned credential end to end.
//
// A transport failure on the initial verify is deliberately inconclusive:
// the backend never issued a verdict, so there is no actuation and no
// granted/denied record, only local diagnostics. Every later failure is an
// explicit denial.
func (s *ValidatorService) Validate(ctx context.Context, uid string) {
	s.log.Infow("verifying_credential", "uid", uid)

	reply, err := s.backend.Verify(ctx, uid)
	if err != nil {
		s.log.Errorw("backend_unreachable", "uid", uid, "err", err)
		s.journal(ctx, smartaccess.EventError, uid, "backend unreachable during verification", nil)
		s.noteOutcome(ctx, uid, smartaccess.EventError)
		return
	}

	switch reply.StatusCode {
	case http.StatusOK:
		s.handleVerdict(ctx, uid, reply)
	case http.StatusForbidden, http.StatusNotFound:
		s.deny(ctx, uid, rejectionReason(reply))
	default:
		s.deny(ctx, uid, fmt.Sprintf("unexpected backend status %d", reply.StatusCode))
	}
}

// handleVerdict processes a 200 verify response: parse, check the success
// flag, activate an assigned credential and unlock.
func (s *ValidatorService) handleVerdict(ctx context.Context, uid string, reply *backend.Reply) {
	var vr smartaccess.VerificationResult
	if err := reply.Decode(&vr); err != nil {
		s.log.Errorw("verify_parse_failed", "uid", uid, "err", err)
		s.deny(ctx, uid, reasonParseError)
		return
	}

	if !vr.Success {
		msg := vr.Message
		if msg == "" {
			msg = reasonUnknownBackend
		}
		s.deny(ctx, uid, msg)
		return
	}

	guest := vr.Data.Guest
	if guest != nil {
		s.log.Infow("guest_info", "uid", uid, "guest_id", guest.ID, "name", guest.Name)
	} else {
		s.log.Warnw("no_guest_info", "uid", uid)
	}
	if room := vr.Data.Room; room != nil {
		s.log.Infow("room_info", "uid", uid,
			"room_id", room.ID, "number", room.RoomNumber, "status", room.Status,
			"check_in", room.CheckIn, "check_out", room.CheckOut)
	} else {
		s.log.Warnw("no_room_info", "uid", uid)
	}

	status, ok := s.activateIfAssigned(ctx, uid, vr.Data.RFID.Status)
	if !ok {
		s.deny(ctx, uid, fmt.Sprintf("credential %s could not be activated", uid))
		return
	}

	s.grant(ctx, uid, status, guest)
}

// activateIfAssigned transitions an assigned credential to active. Any
// status other than assigned is passed through untouched. Returns false if
// the activation could not be confirmed for any reason; the caller must
// then deny even though verification succeeded.
func (s *ValidatorService) activateIfAssigned(ctx context.Context, uid, status string) (string, bool) {
	if status != smartaccess.StatusAssigned {
		return status, true
	}

	s.log.Infow("activating_credential", "uid", uid)
	reply, err := s.backend.Activate(ctx, uid)
	if err != nil {
		s.log.Errorw("activate_unreachable", "uid", uid, "err", err)
		return "", false
	}
	if reply.StatusCode != http.StatusOK {
		s.log.Errorw("activate_unexpected_status", "uid", uid, "status", reply.StatusCode)
		return "", false
	}

	var ar smartaccess.ActivationResult
	if err := reply.Decode(&ar); err != nil {
		s.log.Errorw("activate_parse_failed", "uid", uid, "err", err)
		return "", false
	}
	if !ar.Success {
		s.log.Errorw("activate_rejected", "uid", uid, "message", ar.Message)
		return "", false
	}

	newStatus := ar.Data.Status
	if newStatus == "" {
		newStatus = smartaccess.StatusUnknown
	}
	s.log.Infow("credential_activated", "uid", uid, "status", newStatus)
	return newStatus, true
}

// grant unlocks the door, then reports and journals the granted access.
func (s *ValidatorService) grant(ctx context.Context, uid, status string, guest *smartaccess.Guest) {
	s.log.Infow("access_granted", "uid", uid, "credential_status", status)

	if err := s.lock.Engage(s.unlockDuration); err != nil {
		// The verdict stands; the relay fault is a hardware problem, not
		// an access decision.
		s.log.Errorw("engage_failed", "uid", uid, "err", err)
	}

	var guestID *int
	var meta map[string]any
	if guest != nil {
		id := guest.ID
		guestID = &id
		meta = map[string]any{"guest_id": guest.ID}
	}

	s.recorder.Record(smartaccess.AccessOutcome{UID: uid, Granted: true, GuestID: guestID})
	s.journal(ctx, smartaccess.EventGranted, uid, "access granted", meta)
	s.noteOutcome(ctx, uid, smartaccess.EventGranted)
}

// deny flashes the rejection signal, then reports and journals the denial.
// Deny never unlocks the door.
func (s *ValidatorService) deny(ctx context.Context, uid, reason string) {
	s.log.Warnw("access_denied", "uid", uid, "reason", reason)

	if err := s.lock.SignalDenial(); err != nil {
		s.log.Errorw("denial_flash_failed", "uid", uid, "err", err)
	}

	s.recorder.Record(smartaccess.AccessOutcome{UID: uid, Granted: false})
	s.journal(ctx, smartaccess.EventDenied, uid, reason, nil)
	s.noteOutcome(ctx, uid, smartaccess.EventDenied)
}

// journal appends a local access event. Best effort: a journal fault never
// changes an access decision.
func (s *ValidatorService) journal(ctx context.Context, typ, uid, description string, meta any) {
	err := s.eventRepo.Append(ctx, smartaccess.AccessEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		UID:         uid,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("journal_append_failed", "uid", uid, "type", typ, "err", err)
	}
}

// noteOutcome bumps the device-state counters for the finished scan.
func (s *ValidatorService) noteOutcome(ctx context.Context, uid, outcome string) {
	st, err := s.stateRepo.Load(ctx)
	if err != nil {
		s.log.Errorw("state_load_failed", "uid", uid, "err", err)
		return
	}
	if st.ID == 0 {
		st.ID = 1
	}
	st.LastUID = uid
	st.LastOutcome = outcome
	st.ScansTotal++
	switch outcome {
	case smartaccess.EventGranted:
		st.GrantedTotal++
	case smartaccess.EventDenied:
		st.DeniedTotal++
	}
	st.UpdatedAt = time.Now().UTC()

	if err := s.stateRepo.Save(ctx, st); err != nil {
		s.log.Errorw("state_save_failed", "uid", uid, "err", err)
	}
}

// rejectionReason pulls the backend's message out of a 403/404 body.
func rejectionReason(reply *backend.Reply) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := reply.Decode(&body); err != nil || body.Message == "" {
		return reasonNoDetail
	}
	return body.Message
}
