package handlers

import (
	"errors"
	"net/http"

	"garage-backend/internal/models"
	"garage-backend/internal/services"
	"garage-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type MaintenanceHandler struct {
	garage    *services.Garage
	validator *validator.Validate
}

func NewMaintenanceHandler(garage *services.Garage) *MaintenanceHandler {
	return &MaintenanceHandler{
		garage:    garage,
		validator: validator.New(),
	}
}

// MaintenanceView is a stored record plus its display text.
type MaintenanceView struct {
	models.StoredMaintenanceRecord
	Formatted string `json:"formatted"`
}

type UpcomingView struct {
	VehicleID    string             `json:"vehicleId"`
	VehicleModel string             `json:"vehicleModel"`
	VehicleType  models.VehicleType `json:"vehicleType"`
	Record       MaintenanceView    `json:"record"`
}

func maintenanceView(r *models.MaintenanceRecord) MaintenanceView {
	return MaintenanceView{StoredMaintenanceRecord: r.Serialize(), Formatted: r.Format()}
}

// GetMaintenance lists a vehicle's records, most recent first.
func (h *MaintenanceHandler) GetMaintenance(c *gin.Context) {
	records, err := h.garage.MaintenanceHistory(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Vehicle not found", err)
		return
	}
	out := make([]MaintenanceView, 0, len(records))
	for _, r := range records {
		out = append(out, maintenanceView(r))
	}
	utils.SuccessResponse(c, http.StatusOK, "Maintenance records retrieved successfully", out)
}

func (h *MaintenanceHandler) CreateMaintenance(c *gin.Context) {
	vehicleID := c.Param("id")
	var req services.CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	record, err := services.BuildMaintenanceRecord(vehicleID, req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", err)
		return
	}
	if err := h.garage.AddMaintenance(c.Request.Context(), vehicleID, record); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrVehicleNotFound) {
			status = http.StatusNotFound
		}
		utils.ErrorResponse(c, status, "Failed to add maintenance record", err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Maintenance record created successfully", maintenanceView(record))
}

func (h *MaintenanceHandler) DeleteMaintenance(c *gin.Context) {
	err := h.garage.RemoveMaintenance(c.Request.Context(), c.Param("id"), c.Param("recordId"))
	if err != nil {
		message := "Maintenance record not found"
		if errors.Is(err, services.ErrVehicleNotFound) {
			message = "Vehicle not found"
		}
		utils.ErrorResponse(c, http.StatusNotFound, message, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Maintenance record deleted successfully", nil)
}

// GetUpcoming lists future maintenance across the garage, soonest first.
func (h *MaintenanceHandler) GetUpcoming(c *gin.Context) {
	upcoming := h.garage.ListUpcomingMaintenance()
	out := make([]UpcomingView, 0, len(upcoming))
	for _, u := range upcoming {
		out = append(out, UpcomingView{
			VehicleID:    u.VehicleID,
			VehicleModel: u.VehicleModel,
			VehicleType:  u.VehicleType,
			Record:       maintenanceView(u.Record),
		})
	}
	utils.SuccessResponse(c, http.StatusOK, "Upcoming maintenance retrieved successfully", out)
}
