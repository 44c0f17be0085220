package handlers

import (
	"errors"
	"net/http"

	"garage-backend/internal/config"
	"garage-backend/internal/models"
	"garage-backend/internal/services"
	"garage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type GarageHandler struct {
	garage    *services.Garage
	defaults  config.ActionDefaults
	validator *validator.Validate
}

func NewGarageHandler(garage *services.Garage, defaults config.ActionDefaults) *GarageHandler {
	return &GarageHandler{
		garage:    garage,
		defaults:  defaults,
		validator: validator.New(),
	}
}

// ActionResponse is returned by PerformAction.
type ActionResponse struct {
	Result  models.Result        `json:"result"`
	Amount  float64              `json:"amount,omitempty"`
	Vehicle services.VehicleView `json:"vehicle"`
}

// GetVehicles retrieves all vehicles
func (h *GarageHandler) GetVehicles(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Vehicles retrieved successfully", h.garage.Snapshots())
}

// GetVehicle retrieves a specific vehicle by ID
func (h *GarageHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.garage.Snapshot(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Vehicle retrieved successfully", vehicle)
}

// CreateVehicle creates a new vehicle
func (h *GarageHandler) CreateVehicle(c *gin.Context) {
	var req services.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	vehicle, err := services.BuildVehicle(req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if err := h.garage.AddVehicle(c.Request.Context(), vehicle); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrDuplicateVehicle) {
			status = http.StatusConflict
		}
		utils.ErrorResponse(c, status, "Failed to create vehicle", err)
		return
	}

	view, err := h.garage.Snapshot(vehicle.ID())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to create vehicle", err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Vehicle created successfully", view)
}

// DeleteVehicle deletes a vehicle
func (h *GarageHandler) DeleteVehicle(c *gin.Context) {
	if err := h.garage.RemoveVehicle(c.Request.Context(), c.Param("id")); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Vehicle deleted successfully", nil)
}

// PerformAction runs an engine, speed, turbo or cargo action. A missing
// amount is replaced by the configured default for the vehicle type.
func (h *GarageHandler) PerformAction(c *gin.Context) {
	id := c.Param("id")
	var req services.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	vehicle, ok := h.garage.FindVehicle(id)
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", services.ErrVehicleNotFound)
		return
	}

	var amount float64
	if req.Action.TakesAmount() {
		if req.Amount != nil {
			amount = *req.Amount
		} else {
			amount = DefaultAmount(h.defaults, req.Action, vehicle.Type())
		}
	}

	result, err := h.garage.Perform(c.Request.Context(), id, req.Action, amount)
	switch {
	case errors.Is(err, services.ErrVehicleNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", err)
		return
	case errors.Is(err, services.ErrUnsupportedAction):
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "Action not supported", err)
		return
	case err != nil:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to perform action", err)
		return
	}

	view, err := h.garage.Snapshot(id)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, result.Message, ActionResponse{Result: result, Amount: amount, Vehicle: view})
}

// DefaultAmount picks the configured amount for an action that was sent
// without one.
func DefaultAmount(d config.ActionDefaults, action services.Action, kind models.VehicleType) float64 {
	switch action {
	case services.ActionAccelerate:
		switch kind {
		case models.TypeSportsCar:
			return d.AccelerateSportsCar
		case models.TypeTruck:
			return d.AccelerateTruck
		default:
			return d.AccelerateVehicle
		}
	case services.ActionBrake:
		return d.Brake
	case services.ActionLoadCargo, services.ActionUnloadCargo:
		return d.Cargo
	}
	return 0
}
