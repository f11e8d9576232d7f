package sqlite

import "time"

// Transmission directions as journalled.
const (
	DirectionPilot = "pilot"
	DirectionATC   = "atc"
)

// TransmissionRecord is one journalled radio exchange line.
type TransmissionRecord struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	Turn           int       `json:"turn"`
	Direction      string    `json:"direction"`
	RawText        string    `json:"raw_text"`
	NormalizedText string    `json:"normalized_text,omitempty"`
	Source         string    `json:"source,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClearanceRecord is one issued clearance as journalled.
type ClearanceRecord struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	Callsign        string    `json:"callsign"`
	ClearanceType   string    `json:"clearance_type"`
	ClearanceText   string    `json:"clearance_text"`
	Destination     string    `json:"destination,omitempty"`
	SID             string    `json:"sid,omitempty"`
	Runway          string    `json:"runway,omitempty"`
	InitialAltitude int       `json:"initial_altitude,omitempty"`
	Squawk          string    `json:"squawk,omitempty"`
	Accepted        bool      `json:"accepted"`
	CreatedAt       time.Time `json:"created_at"`
}
