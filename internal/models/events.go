package models

import "time"

// Event types
const (
	EventTypeReadingAccepted   = "READING_ACCEPTED"
	EventTypeReadingRejected   = "READING_REJECTED"
	EventTypeAlertRaised       = "ALERT_RAISED"
	EventTypeCabinetRegistered = "CABINET_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadingAcceptedEvent published after a sensor batch commits
type ReadingAcceptedEvent struct {
	BaseEvent
	CabinetID    int64  `json:"cabinet_id"`
	HardwareID   string `json:"hardware_id"`
	Compartments int    `json:"compartments"`
	ErrorCount   int    `json:"error_count"`
}

// ReadingRejectedEvent published when a whole batch is rejected
type ReadingRejectedEvent struct {
	BaseEvent
	HardwareID string `json:"hardware_id"`
	Reason     string `json:"reason"`
}

// AlertRaisedEvent published for each alert derived during ingestion
type AlertRaisedEvent struct {
	BaseEvent
	CabinetID   int64  `json:"cabinet_id"`
	Compartment int    `json:"compartment"`
	ItemName    string `json:"item_name"`
	Status      string `json:"status"`
	Severity    string `json:"severity"`
}

// CabinetRegisteredEvent published when hardware registers a new cabinet
type CabinetRegisteredEvent struct {
	BaseEvent
	CabinetID  int64  `json:"cabinet_id"`
	HardwareID string `json:"hardware_id"`
	Name       string `json:"name"`
}
