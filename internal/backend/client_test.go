package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	smartaccess "github.com/cjhehehe/smartaccesscontrol-raspberrypi"
)

type recordedRequest struct {
	path string
	body map[string]any
}

func newRecordingServer(t *testing.T, status int, respBody string, got *recordedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		got.path = r.URL.Path
		got.body = map[string]any{}
		_ = json.Unmarshal(raw, &got.body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
}

func TestVerify_PostsUIDAndReturnsReply(t *testing.T) {
	var got recordedRequest
	srv := newRecordingServer(t, http.StatusOK,
		`{"success":true,"data":{"rfid":{"status":"active"}}}`, &got)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	reply, err := c.Verify(context.Background(), "A1B2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", reply.StatusCode)
	}
	if got.path != "/rfid/verify" {
		t.Fatalf("expected /rfid/verify, got %s", got.path)
	}
	if got.body["rfid_uid"] != "A1B2" {
		t.Fatalf("expected rfid_uid A1B2, got %v", got.body["rfid_uid"])
	}

	var vr smartaccess.VerificationResult
	if err := reply.Decode(&vr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !vr.Success || vr.Data.RFID.Status != smartaccess.StatusActive {
		t.Fatalf("unexpected decoded result: %+v", vr)
	}
}

func TestActivate_PostsUID(t *testing.T) {
	var got recordedRequest
	srv := newRecordingServer(t, http.StatusOK,
		`{"success":true,"data":{"status":"active"}}`, &got)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	reply, err := c.Activate(context.Background(), "C3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.path != "/rfid/activate" {
		t.Fatalf("expected /rfid/activate, got %s", got.path)
	}
	var ar smartaccess.ActivationResult
	if err := reply.Decode(&ar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ar.Data.Status != smartaccess.StatusActive {
		t.Fatalf("expected active, got %q", ar.Data.Status)
	}
}

func TestRecordGranted_SerializesNilGuestAsNull(t *testing.T) {
	var got recordedRequest
	srv := newRecordingServer(t, http.StatusCreated, `{}`, &got)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	reply, err := c.RecordGranted(context.Background(), "D4", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", reply.StatusCode)
	}
	if got.path != "/access-logs/granted" {
		t.Fatalf("expected /access-logs/granted, got %s", got.path)
	}
	v, present := got.body["guest_id"]
	if !present {
		t.Fatalf("expected guest_id key to be present")
	}
	if v != nil {
		t.Fatalf("expected guest_id null, got %v", v)
	}
}

func TestRecordGranted_WithGuestID(t *testing.T) {
	var got recordedRequest
	srv := newRecordingServer(t, http.StatusCreated, `{}`, &got)
	defer srv.Close()

	guestID := 7
	c := NewClient(srv.URL, time.Second)
	if _, err := c.RecordGranted(context.Background(), "A1", &guestID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.body["guest_id"] != float64(7) {
		t.Fatalf("expected guest_id 7, got %v", got.body["guest_id"])
	}
}

func TestRecordDenied_Path(t *testing.T) {
	var got recordedRequest
	srv := newRecordingServer(t, http.StatusCreated, `{}`, &got)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.RecordDenied(context.Background(), "C3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.path != "/access-logs/denied" {
		t.Fatalf("expected /access-logs/denied, got %s", got.path)
	}
	if _, present := got.body["guest_id"]; present {
		t.Fatalf("denied payload must not carry guest_id")
	}
}

func TestTransportFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, 100*time.Millisecond)
	reply, err := c.Verify(context.Background(), "A1")
	if err == nil {
		t.Fatalf("expected transport error, got reply %+v", reply)
	}
	if reply != nil {
		t.Fatalf("expected nil reply on transport failure")
	}
}

func TestTimeoutSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond)
	if _, err := c.Verify(context.Background(), "A1"); err == nil {
		t.Fatalf("expected timeout error")
	}
}
