package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TypeMaintenanceRecord is the discriminator stored with every serialized record.
const TypeMaintenanceRecord = "MaintenanceRecord"

// Accepted input layouts for maintenance dates. Layouts without an offset are
// interpreted in local time.
var maintenanceDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MaintenanceRecord is one service event on a vehicle. It is immutable once
// constructed.
type MaintenanceRecord struct {
	id          string
	date        time.Time
	serviceType string
	cost        float64
	description string
	vehicleID   string
}

// StoredMaintenanceRecord is the persisted shape of a MaintenanceRecord.
type StoredMaintenanceRecord struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	ServiceType string  `json:"serviceType"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description"`
	VehicleID   string  `json:"vehicleId"`
	Type        string  `json:"_type"`
}

// ParseMaintenanceDate parses date input in any of the accepted layouts.
func ParseMaintenanceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalid("date", "date is required")
	}
	for _, layout := range maintenanceDateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("date", "%q is not a valid date", value)
}

// NewMaintenanceRecord validates its input and builds a record with a fresh id.
func NewMaintenanceRecord(date, serviceType string, cost float64, description, vehicleID string) (*MaintenanceRecord, error) {
	when, err := ParseMaintenanceDate(date)
	if err != nil {
		return nil, err
	}
	return NewMaintenanceRecordAt(when, serviceType, cost, description, vehicleID)
}

// NewMaintenanceRecordAt is NewMaintenanceRecord for an already parsed date.
func NewMaintenanceRecordAt(date time.Time, serviceType string, cost float64, description, vehicleID string) (*MaintenanceRecord, error) {
	serviceType = strings.TrimSpace(serviceType)
	if err := checkRecord(date, serviceType, cost); err != nil {
		return nil, err
	}

	return &MaintenanceRecord{
		id:          uuid.NewString(),
		date:        date,
		serviceType: serviceType,
		cost:        cost,
		description: strings.TrimSpace(description),
		vehicleID:   vehicleID,
	}, nil
}

func checkRecord(date time.Time, serviceType string, cost float64) error {
	if date.IsZero() {
		return invalid("date", "date is required")
	}
	if strings.TrimSpace(serviceType) == "" {
		return invalid("serviceType", "service type must not be empty")
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return invalid("cost", "cost must be a number")
	}
	if cost < 0 {
		return invalid("cost", "cost must not be negative, got %.2f", cost)
	}
	return nil
}

// Validate reports whether m holds what the constructors guarantee. Records
// built as struct literals fail it.
func (m *MaintenanceRecord) Validate() error {
	if m == nil {
		return ErrInvalidRecord
	}
	if m.id == "" {
		return invalid("id", "id must not be empty")
	}
	return checkRecord(m.date, m.serviceType, m.cost)
}

func (m *MaintenanceRecord) ID() string          { return m.id }
func (m *MaintenanceRecord) Date() time.Time     { return m.date }
func (m *MaintenanceRecord) ServiceType() string { return m.serviceType }
func (m *MaintenanceRecord) Cost() float64       { return m.cost }
func (m *MaintenanceRecord) Description() string { return m.description }
func (m *MaintenanceRecord) VehicleID() string   { return m.vehicleID }

// IsUpcoming reports whether the record is due at or after now.
func (m *MaintenanceRecord) IsUpcoming(now time.Time) bool {
	return !m.date.IsZero() && !m.date.Before(now)
}

// Serialize returns the persisted shape of the record.
func (m *MaintenanceRecord) Serialize() StoredMaintenanceRecord {
	return StoredMaintenanceRecord{
		ID:          m.id,
		Date:        m.date.UTC().Format(time.RFC3339Nano),
		ServiceType: m.serviceType,
		Cost:        m.cost,
		Description: m.description,
		VehicleID:   m.vehicleID,
		Type:        TypeMaintenanceRecord,
	}
}

// MarshalJSON encodes the record in its persisted shape.
func (m *MaintenanceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Serialize())
}

// DeserializeMaintenanceRecord rebuilds a record from stored JSON. Anything that
// would not pass NewMaintenanceRecord is rejected with ErrReconstruction. The
// stored id is kept when present.
func DeserializeMaintenanceRecord(raw json.RawMessage) (*MaintenanceRecord, error) {
	var stored StoredMaintenanceRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, reconstructionFailure("maintenance record: %v", err)
	}
	return stored.restore()
}

func (s StoredMaintenanceRecord) restore() (*MaintenanceRecord, error) {
	switch s.Type {
	case TypeMaintenanceRecord:
	case "":
		return nil, reconstructionFailure("maintenance record: missing _type")
	default:
		return nil, reconstructionFailure("maintenance record: unexpected _type %q", s.Type)
	}

	record, err := NewMaintenanceRecord(s.Date, s.ServiceType, s.Cost, s.Description, s.VehicleID)
	if err != nil {
		return nil, reconstructionFailure("maintenance record %s: %v", s.ID, err)
	}
	if s.ID != "" {
		record.id = s.ID
	}
	return record, nil
}
