package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/service"
)

func doRequest(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_NoAuthRequired(t *testing.T) {
	s := &service.Service{}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["status"] != statusOK {
		t.Fatalf("expected status ok, got %q", out["status"])
	}
}

func TestGetDeviceState(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{state: smartaccess.DeviceState{
		ID:           1,
		LastUID:      "A1",
		LastOutcome:  smartaccess.EventGranted,
		ScansTotal:   12,
		GrantedTotal: 10,
		DeniedTotal:  2,
		UpdatedAt:    time.Now().UTC(),
	}}
	s := &service.Service{Authorization: auth, Monitoring: mon}
	r := newTestRouter(s)

	// Requires auth → 401 without header
	if w := doRequest(r, http.MethodGet, "/api/v1/device/state", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth → 200 and snapshot body
	w := doRequest(r, http.MethodGet, "/api/v1/device/state", "valid")
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}
	var st smartaccess.DeviceState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.LastUID != "A1" || st.ScansTotal != 12 || st.LastOutcome != smartaccess.EventGranted {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestGetDeviceState_ServiceError(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{err: errors.New("db down")}
	s := &service.Service{Authorization: auth, Monitoring: mon}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodGet, "/api/v1/device/state", "valid")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out["error"] != errGetState {
		t.Fatalf("unexpected error body: %q", out["error"])
	}
}
