package smartaccess

import "time"

// Credential lifecycle statuses as reported by the backend.
const (
	StatusUnassigned = "unassigned"
	StatusAssigned   = "assigned"
	StatusActive     = "active"
	StatusUnknown    = "unknown"
)

// Access journal event types.
const (
	EventGranted = "GRANTED"
	EventDenied  = "DENIED"
	EventError   = "ERROR"
)

// Guest is the backend's guest record attached to a verified credential.
type Guest struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Room is the backend's room record attached to a verified credential.
type Room struct {
	ID         int    `json:"id"`
	RoomNumber string `json:"room_number"`
	Status     string `json:"status"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

// VerificationResult is the /rfid/verify response body.
// Guest and Room may be absent; the engine tolerates both.
type VerificationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    struct {
		RFID struct {
			Status string `json:"status"` // unassigned | assigned | active | unknown
		} `json:"rfid"`
		Guest *Guest `json:"guest,omitempty"`
		Room  *Room  `json:"room,omitempty"`
	} `json:"data"`
}

// ActivationResult is the /rfid/activate response body.
type ActivationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Status string `json:"status"`
	} `json:"data"`
}

// AccessOutcome is the fact handed to the access logger once a validation
// settles. Immutable after construction; GuestID is nil when the backend
// sent no guest record.
type AccessOutcome struct {
	UID     string
	Granted bool
	GuestID *int
}

// AccessEvent is a single local journal entry.
type AccessEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // GRANTED | DENIED | ERROR
	UID         string    `json:"rfid_uid,omitempty"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// DeviceState is the current snapshot of this access point.
type DeviceState struct {
	ID           int       `json:"id"`
	LastUID      string    `json:"last_uid,omitempty"`
	LastOutcome  string    `json:"last_outcome,omitempty"` // GRANTED | DENIED | ERROR
	ScansTotal   int       `json:"scans_total"`
	GrantedTotal int       `json:"granted_total"`
	DeniedTotal  int       `json:"denied_total"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don't expose hash
}
