package models

import (
	"fmt"
	"math"
)

// Truck carries cargo up to a capacity fixed at construction.
type Truck struct {
	BaseVehicle
	cargoCapacity float64
	currentCargo  float64
}

func NewTruck(id, model, color string, capacity float64) (*Truck, error) {
	if math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		return nil, invalid("cargoCapacity", "capacity must be a number")
	}
	if capacity < 0 {
		return nil, invalid("cargoCapacity", "capacity must not be negative, got %.0f", capacity)
	}
	b, err := newBase(id, model, color, TypeTruck)
	if err != nil {
		return nil, err
	}
	return &Truck{BaseVehicle: b, cargoCapacity: capacity}, nil
}

func (t *Truck) CargoCapacity() float64 { return t.cargoCapacity }
func (t *Truck) CurrentCargo() float64  { return t.currentCargo }

// LoadCargo adds up to amount kg, clamped to the remaining room.
func (t *Truck) LoadCargo(amount float64) Result {
	if !validAmount(amount) {
		return rejected("Enter a positive amount of cargo to load.")
	}
	room := t.cargoCapacity - t.currentCargo
	if room <= 0 {
		return informed("%s is already fully loaded (%.0f kg).", t.model, t.cargoCapacity)
	}
	if amount > room {
		t.currentCargo = t.cargoCapacity
		res := succeeded("Only %.0f kg loaded on %s, capacity reached (%.0f kg).", room, t.model, t.cargoCapacity)
		res.Clamped = true
		return res
	}
	t.currentCargo += amount
	return succeeded("%.0f kg loaded on %s (%.0f/%.0f kg).", amount, t.model, t.currentCargo, t.cargoCapacity)
}

// UnloadCargo removes up to amount kg, clamped to the current load.
func (t *Truck) UnloadCargo(amount float64) Result {
	if !validAmount(amount) {
		return rejected("Enter a positive amount of cargo to unload.")
	}
	if t.currentCargo <= 0 {
		return informed("%s is already empty.", t.model)
	}
	if amount > t.currentCargo {
		unloaded := t.currentCargo
		t.currentCargo = 0
		res := succeeded("Only %.0f kg unloaded from %s, it is now empty.", unloaded, t.model)
		res.Clamped = true
		return res
	}
	t.currentCargo -= amount
	return succeeded("%.0f kg unloaded from %s (%.0f/%.0f kg).", amount, t.model, t.currentCargo, t.cargoCapacity)
}

func (t *Truck) Describe() string {
	return fmt.Sprintf("%s, cargo %.0f/%.0f kg", t.BaseVehicle.Describe(), t.currentCargo, t.cargoCapacity)
}

func (t *Truck) Serialize() StoredVehicle {
	stored := t.BaseVehicle.Serialize()
	capacity, cargo := t.cargoCapacity, t.currentCargo
	stored.CargoCapacity = &capacity
	stored.CurrentCargo = &cargo
	return stored
}
