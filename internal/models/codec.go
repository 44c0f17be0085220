package models

import (
	"encoding/json"
	"math"
)

// storedVehicleInput mirrors StoredVehicle but keeps history entries raw so a
// single bad record does not fail the whole vehicle.
type storedVehicleInput struct {
	ID                 string            `json:"id"`
	Model              string            `json:"model"`
	Color              string            `json:"color"`
	EngineOn           bool              `json:"engineOn"`
	Speed              *float64          `json:"speed"`
	MaintenanceHistory []json.RawMessage `json:"maintenanceHistory"`
	Type               string            `json:"_type"`
	TurboEngaged       *bool             `json:"turboEngaged"`
	CargoCapacity      *float64          `json:"cargoCapacity"`
	CurrentCargo       *float64          `json:"currentCargo"`
}

type vehicleDecoder func(in storedVehicleInput) (Vehicle, *BaseVehicle, error)

var vehicleDecoders = map[VehicleType]vehicleDecoder{
	TypeVehicle:   decodeBaseVehicle,
	TypeSportsCar: decodeSportsCar,
	TypeTruck:     decodeTruck,
}

func decodeBaseVehicle(in storedVehicleInput) (Vehicle, *BaseVehicle, error) {
	v, err := NewVehicle(in.ID, in.Model, in.Color)
	if err != nil {
		return nil, nil, err
	}
	return v, v, nil
}

func decodeSportsCar(in storedVehicleInput) (Vehicle, *BaseVehicle, error) {
	s, err := NewSportsCar(in.ID, in.Model, in.Color)
	if err != nil {
		return nil, nil, err
	}
	s.turboEngaged = in.TurboEngaged != nil && *in.TurboEngaged && in.EngineOn
	return s, &s.BaseVehicle, nil
}

func decodeTruck(in storedVehicleInput) (Vehicle, *BaseVehicle, error) {
	var capacity float64
	if in.CargoCapacity != nil {
		capacity = *in.CargoCapacity
	}
	t, err := NewTruck(in.ID, in.Model, in.Color, capacity)
	if err != nil {
		return nil, nil, err
	}
	if in.CurrentCargo != nil {
		t.currentCargo = math.Min(math.Max(*in.CurrentCargo, 0), t.cargoCapacity)
	}
	return t, &t.BaseVehicle, nil
}

// DeserializeVehicle rebuilds a vehicle from stored JSON, choosing the variant
// by its _type. Unknown types are rebuilt as a plain vehicle that keeps the
// stored tag. History entries that cannot be rebuilt are dropped; their count is
// returned alongside the vehicle.
func DeserializeVehicle(raw json.RawMessage) (Vehicle, int, error) {
	var in storedVehicleInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, 0, reconstructionFailure("vehicle: %v", err)
	}
	if in.Type == "" {
		return nil, 0, reconstructionFailure("vehicle %s: missing _type", in.ID)
	}
	if in.ID == "" {
		return nil, 0, reconstructionFailure("vehicle: missing id")
	}
	if in.Speed == nil || *in.Speed < 0 {
		return nil, 0, reconstructionFailure("vehicle %s: invalid speed", in.ID)
	}

	decode, known := vehicleDecoders[VehicleType(in.Type)]
	if !known {
		decode = decodeBaseVehicle
	}
	v, base, err := decode(in)
	if err != nil {
		return nil, 0, reconstructionFailure("vehicle %s: %v", in.ID, err)
	}
	if !known {
		base.storedTag = in.Type
	}

	base.engineOn = in.EngineOn
	if in.EngineOn {
		base.speed = *in.Speed
	}

	discarded := 0
	for _, entry := range in.MaintenanceHistory {
		record, err := DeserializeMaintenanceRecord(entry)
		if err != nil {
			discarded++
			continue
		}
		record.vehicleID = base.id
		base.history = append(base.history, record)
	}
	base.sortHistory()

	return v, discarded, nil
}
