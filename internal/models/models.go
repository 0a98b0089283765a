package models

import "time"

// Company is a tenant that owns cabinets and users. Soft-deleted via Active
// so historical audit and statistics keep resolving.
type Company struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ContactEmail string    `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string    `db:"contact_phone" json:"contact_phone,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Cabinet is a physical first-aid kit with a fixed number of compartments.
// HardwareID is the stable identifier the device reports, independent from
// the row id.
type Cabinet struct {
	ID                int64      `db:"id" json:"id"`
	HardwareID        string     `db:"hardware_id" json:"hardware_id"`
	Name              string     `db:"name" json:"name"`
	Location          string     `db:"location" json:"location,omitempty"`
	CompanyID         *int64     `db:"company_id" json:"company_id,omitempty"`
	TotalCompartments int        `db:"total_compartments" json:"total_compartments"`
	Active            bool       `db:"active" json:"active"`
	LastSyncAt        *time.Time `db:"last_sync_at" json:"last_sync_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// InventoryItem is the stock record for one compartment. Quantity is derived
// from CurrentWeight/UnitWeight when a unit weight is known; otherwise the
// stored quantity is authoritative and weight is advisory only.
type InventoryItem struct {
	ID                int64      `db:"id" json:"id"`
	CabinetID         int64      `db:"cabinet_id" json:"cabinet_id"`
	CompartmentNumber int        `db:"compartment_number" json:"compartment_number"`
	Name              string     `db:"name" json:"name,omitempty"`
	UnitWeight        *float64   `db:"unit_weight" json:"unit_weight,omitempty"`
	InitialWeight     *float64   `db:"initial_weight" json:"initial_weight,omitempty"`
	CurrentWeight     *float64   `db:"current_weight" json:"current_weight,omitempty"`
	Quantity          int        `db:"quantity" json:"quantity"`
	ReorderLevel      int        `db:"reorder_level" json:"reorder_level"`
	MaxCapacity       *int       `db:"max_capacity" json:"max_capacity,omitempty"`
	ExpiryDate        *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber       string     `db:"batch_number" json:"batch_number,omitempty"`
	LastScanAt        *time.Time `db:"last_scan_at" json:"last_scan_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// AuditRecord captures one raw sensor observation and its processing outcome.
// Append-only: rows are never updated or deleted.
type AuditRecord struct {
	ID                int64     `db:"id" json:"id"`
	CabinetID         *int64    `db:"cabinet_id" json:"cabinet_id,omitempty"`
	CompartmentNumber *int      `db:"compartment_number" json:"compartment_number,omitempty"`
	WeightReading     *float64  `db:"weight_reading" json:"weight_reading,omitempty"`
	SensorType        string    `db:"sensor_type" json:"sensor_type,omitempty"`
	RawData           string    `db:"raw_data" json:"raw_data"`
	Processed         bool      `db:"processed" json:"processed"`
	ErrorMessage      string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// Alert severities attached to ingestion responses
const (
	AlertCritical = "critical"
	AlertWarning  = "warning"
)

// ProcessedEvent for consumer-side event idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
