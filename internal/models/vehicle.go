package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// VehicleType is the discriminator stored with every serialized vehicle.
type VehicleType string

const (
	TypeVehicle   VehicleType = "Vehicle"
	TypeSportsCar VehicleType = "SportsCar"
	TypeTruck     VehicleType = "Truck"
)

// Vehicle is the operation set shared by every vehicle variant. Variant
// specific operations live on *SportsCar and *Truck.
type Vehicle interface {
	ID() string
	// Type is the variant the vehicle behaves as.
	Type() VehicleType
	// StoredType is the discriminator the vehicle was loaded with. It differs
	// from Type only for unknown discriminators.
	StoredType() string
	Model() string
	Color() string
	EngineOn() bool
	Speed() float64

	TurnOn() Result
	TurnOff() Result
	Accelerate(amount float64) Result
	Brake(amount float64) Result

	AddMaintenanceRecord(record *MaintenanceRecord) error
	RemoveMaintenanceRecord(recordID string) bool
	MaintenanceHistory() []*MaintenanceRecord

	Describe() string
	Serialize() StoredVehicle
}

// StoredVehicle is the persisted shape of every vehicle variant.
type StoredVehicle struct {
	ID                 string                    `json:"id"`
	Model              string                    `json:"model"`
	Color              string                    `json:"color"`
	EngineOn           bool                      `json:"engineOn"`
	Speed              float64                   `json:"speed"`
	MaintenanceHistory []StoredMaintenanceRecord `json:"maintenanceHistory"`
	Type               string                    `json:"_type"`
	TurboEngaged       *bool                     `json:"turboEngaged,omitempty"`
	CargoCapacity      *float64                  `json:"cargoCapacity,omitempty"`
	CurrentCargo       *float64                  `json:"currentCargo,omitempty"`
}

// ErrInvalidRecord is returned when a record that was not built by a
// constructor is added to a vehicle.
var ErrInvalidRecord = errors.New("invalid maintenance record")

// BaseVehicle is the plain vehicle variant and the state shared by the others.
type BaseVehicle struct {
	id        string
	model     string
	color     string
	engineOn  bool
	speed     float64
	history   []*MaintenanceRecord
	kind      VehicleType
	storedTag string
}

// NewVehicle builds a plain vehicle. An empty id is replaced by a generated one.
func NewVehicle(id, model, color string) (*BaseVehicle, error) {
	b, err := newBase(id, model, color, TypeVehicle)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func newBase(id, model, color string, kind VehicleType) (BaseVehicle, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return BaseVehicle{}, invalid("model", "model must not be empty")
	}
	color = strings.TrimSpace(color)
	if color == "" {
		return BaseVehicle{}, invalid("color", "color must not be empty")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	return BaseVehicle{id: id, model: model, color: color, kind: kind}, nil
}

func (b *BaseVehicle) ID() string        { return b.id }
func (b *BaseVehicle) Type() VehicleType { return b.kind }
func (b *BaseVehicle) Model() string     { return b.model }
func (b *BaseVehicle) Color() string     { return b.color }
func (b *BaseVehicle) EngineOn() bool    { return b.engineOn }
func (b *BaseVehicle) Speed() float64    { return b.speed }

func (b *BaseVehicle) StoredType() string {
	if b.storedTag != "" {
		return b.storedTag
	}
	return string(b.kind)
}

func (b *BaseVehicle) TurnOn() Result {
	if b.engineOn {
		return informed("%s is already on.", b.model)
	}
	b.engineOn = true
	return succeeded("%s turned on.", b.model)
}

// TurnOff refuses while the vehicle is moving.
func (b *BaseVehicle) TurnOff() Result {
	if !b.engineOn {
		return informed("%s is already off.", b.model)
	}
	if b.speed > 0 {
		return rejected("Stop %s completely before turning it off (%.0f km/h).", b.model, b.speed)
	}
	b.engineOn = false
	return succeeded("%s turned off.", b.model)
}

func (b *BaseVehicle) Accelerate(amount float64) Result {
	if !validAmount(amount) {
		return rejected("Enter a positive amount to accelerate.")
	}
	if !b.engineOn {
		return rejected("%s must be on to accelerate.", b.model)
	}
	next := b.speed + amount
	if math.IsInf(next, 0) {
		return rejected("%s cannot go any faster.", b.model)
	}
	b.speed = next
	return succeeded("%s accelerated to %.0f km/h.", b.model, b.speed)
}

func (b *BaseVehicle) Brake(amount float64) Result {
	if !validAmount(amount) {
		return rejected("Enter a positive amount to brake.")
	}
	if b.speed == 0 {
		return informed("%s is already stopped.", b.model)
	}
	b.speed = math.Max(0, b.speed-amount)
	if b.speed == 0 {
		return succeeded("%s came to a stop.", b.model)
	}
	return succeeded("%s slowed down to %.0f km/h.", b.model, b.speed)
}

// AddMaintenanceRecord stores a copy of record stamped with this vehicle's id
// and keeps the history sorted most recent first.
func (b *BaseVehicle) AddMaintenanceRecord(record *MaintenanceRecord) error {
	if err := record.Validate(); err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	stamped := *record
	stamped.vehicleID = b.id
	b.history = append(b.history, &stamped)
	b.sortHistory()
	return nil
}

func (b *BaseVehicle) RemoveMaintenanceRecord(recordID string) bool {
	for i, r := range b.history {
		if r.id == recordID {
			b.history = append(b.history[:i], b.history[i+1:]...)
			return true
		}
	}
	return false
}

// MaintenanceHistory returns a copy of the history, most recent first.
func (b *BaseVehicle) MaintenanceHistory() []*MaintenanceRecord {
	out := make([]*MaintenanceRecord, len(b.history))
	copy(out, b.history)
	return out
}

// Clone returns an independent copy of v. Records are shared since they are
// immutable.
func Clone(v Vehicle) Vehicle {
	switch t := v.(type) {
	case *BaseVehicle:
		if t == nil {
			return nil
		}
		c := *t
		c.history = t.MaintenanceHistory()
		return &c
	case *SportsCar:
		if t == nil {
			return nil
		}
		c := *t
		c.history = t.MaintenanceHistory()
		return &c
	case *Truck:
		if t == nil {
			return nil
		}
		c := *t
		c.history = t.MaintenanceHistory()
		return &c
	}
	return nil
}

func (b *BaseVehicle) sortHistory() {
	sort.SliceStable(b.history, func(i, j int) bool {
		return b.history[i].date.After(b.history[j].date)
	})
}

func (b *BaseVehicle) Describe() string {
	return fmt.Sprintf("%s %s (%s) - %s, %.0f km/h", b.color, b.model, b.kind, engineLabel(b.engineOn), b.speed)
}

func (b *BaseVehicle) Serialize() StoredVehicle {
	history := make([]StoredMaintenanceRecord, 0, len(b.history))
	for _, r := range b.history {
		history = append(history, r.Serialize())
	}
	return StoredVehicle{
		ID:                 b.id,
		Model:              b.model,
		Color:              b.color,
		EngineOn:           b.engineOn,
		Speed:              b.speed,
		MaintenanceHistory: history,
		Type:               b.StoredType(),
	}
}

// IsValid reports whether v holds a usable vehicle, treating typed nil
// pointers as invalid.
func IsValid(v Vehicle) bool {
	switch t := v.(type) {
	case nil:
		return false
	case *BaseVehicle:
		return t != nil && t.id != ""
	case *SportsCar:
		return t != nil && t.id != ""
	case *Truck:
		return t != nil && t.id != ""
	default:
		return t.ID() != ""
	}
}

func validAmount(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0)
}

func engineLabel(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
