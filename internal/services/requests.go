package services

import (
	"garage-backend/internal/models"
)

type CreateVehicleRequest struct {
	ID            string   `json:"id,omitempty" validate:"omitempty,max=64"`
	Type          string   `json:"type" validate:"required,oneof=Vehicle SportsCar Truck"`
	Model         string   `json:"model" validate:"required,max=100"`
	Color         string   `json:"color" validate:"required,max=50"`
	CargoCapacity *float64 `json:"cargoCapacity,omitempty" validate:"required_if=Type Truck,omitempty,min=0"`
}

type CreateMaintenanceRequest struct {
	Date        string   `json:"date" validate:"required"`
	ServiceType string   `json:"serviceType" validate:"required,max=100"`
	Cost        *float64 `json:"cost" validate:"required,min=0"`
	Description string   `json:"description,omitempty" validate:"max=500"`
}

type ActionRequest struct {
	Action Action   `json:"action" validate:"required,oneof=turn_on turn_off accelerate brake engage_turbo disengage_turbo load_cargo unload_cargo"`
	Amount *float64 `json:"amount,omitempty"`
}

// BuildVehicle constructs the variant named by req.Type.
func BuildVehicle(req CreateVehicleRequest) (models.Vehicle, error) {
	switch models.VehicleType(req.Type) {
	case models.TypeSportsCar:
		car, err := models.NewSportsCar(req.ID, req.Model, req.Color)
		if err != nil {
			return nil, err
		}
		return car, nil
	case models.TypeTruck:
		var capacity float64
		if req.CargoCapacity != nil {
			capacity = *req.CargoCapacity
		}
		truck, err := models.NewTruck(req.ID, req.Model, req.Color, capacity)
		if err != nil {
			return nil, err
		}
		return truck, nil
	default:
		v, err := models.NewVehicle(req.ID, req.Model, req.Color)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// BuildMaintenanceRecord validates req into a record for vehicleID.
func BuildMaintenanceRecord(vehicleID string, req CreateMaintenanceRequest) (*models.MaintenanceRecord, error) {
	var cost float64
	if req.Cost != nil {
		cost = *req.Cost
	}
	return models.NewMaintenanceRecord(req.Date, req.ServiceType, cost, req.Description, vehicleID)
}
