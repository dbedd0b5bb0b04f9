package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Backend API paths, relative to the configured base URL.
const (
	verifyPath     = "/rfid/verify"
	activatePath   = "/rfid/activate"
	logGrantedPath = "/access-logs/granted"
	logDeniedPath  = "/access-logs/denied"
)

const DefaultTimeout = 5 * time.Second

// Reply is a completed backend exchange. A nil error from a client call
// means the HTTP round trip finished; the status code and body still need
// interpreting by the caller. Transport-level failures (DNS, connect,
// timeout) are returned as errors instead.
type Reply struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the reply body into v.
func (r *Reply) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Authority is the remote decision service for this door. There is
// exactly one request/response exchange per call and no retry.
type Authority interface {
	Verify(ctx context.Context, uid string) (*Reply, error)
	Activate(ctx context.Context, uid string) (*Reply, error)
	RecordGranted(ctx context.Context, uid string, guestID *int) (*Reply, error)
	RecordDenied(ctx context.Context, uid string) (*Reply, error)
}

// Client talks to the backend over one shared HTTP transport. It is safe
// for concurrent use; the detached access-log writers share it with the
// synchronous verify/activate path.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

var _ Authority = (*Client)(nil)

type uidPayload struct {
	UID string `json:"rfid_uid"`
}

type grantedPayload struct {
	UID     string `json:"rfid_uid"`
	GuestID *int   `json:"guest_id"`
}

// Verify asks whether the scanned credential may open this door.
func (c *Client) Verify(ctx context.Context, uid string) (*Reply, error) {
	return c.post(ctx, verifyPath, uidPayload{UID: uid})
}

// Activate transitions an assigned credential to active before first use.
func (c *Client) Activate(ctx context.Context, uid string) (*Reply, error) {
	return c.post(ctx, activatePath, uidPayload{UID: uid})
}

// RecordGranted reports a granted access. GuestID may be nil when the
// backend sent no guest record; the field is still serialized as null.
func (c *Client) RecordGranted(ctx context.Context, uid string, guestID *int) (*Reply, error) {
	return c.post(ctx, logGrantedPath, grantedPayload{UID: uid, GuestID: guestID})
}

// RecordDenied reports a denied access.
func (c *Client) RecordDenied(ctx context.Context, uid string) (*Reply, error) {
	return c.post(ctx, logDeniedPath, uidPayload{UID: uid})
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	return &Reply{StatusCode: resp.StatusCode, Body: data}, nil
}
