package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
)

// CreateVehicleRequest registers a fleet vehicle.
type CreateVehicleRequest struct {
	InternalID        *string `json:"internal_id"`
	Plate             string  `json:"plate" binding:"required"`
	Renavam           *string `json:"renavam"`
	Chassis           *string `json:"chassis"`
	Brand             string  `json:"brand" binding:"required"`
	Model             string  `json:"model" binding:"required"`
	Version           *string `json:"version"`
	ManufacturingYear *int    `json:"manufacturing_year"`
	ModelYear         *int    `json:"model_year"`
	VehicleType       string  `json:"vehicle_type"`
	Color             *string `json:"color"`
	Category          string  `json:"category"`
	ImageURL          *string `json:"image_url"`
}

// ListVehicles returns every vehicle.
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleRepo.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles, "total": len(vehicles)})
}

// GetVehicle returns one vehicle by plate.
func (h *Handler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleRepo.GetByPlate(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if vehicle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "veículo não encontrado"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// CreateVehicle registers a vehicle, starting it as available.
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle := &models.Vehicle{
		InternalID:        req.InternalID,
		Plate:             req.Plate,
		Renavam:           req.Renavam,
		Chassis:           req.Chassis,
		Brand:             req.Brand,
		Model:             req.Model,
		Version:           req.Version,
		ManufacturingYear: req.ManufacturingYear,
		ModelYear:         req.ModelYear,
		VehicleType:       req.VehicleType,
		Color:             req.Color,
		Category:          req.Category,
		Status:            models.VehicleDisponivel,
		ImageURL:          req.ImageURL,
	}
	if err := h.vehicleRepo.Create(c.Request.Context(), vehicle); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// SetVehicleStatusRequest is a manual status override.
type SetVehicleStatusRequest struct {
	Status models.VehicleStatus `json:"status" binding:"required,oneof=disponivel em_uso bloqueado agendado"`
}

// SetVehicleStatus overrides a vehicle's status by hand, for when the
// fleet manager needs to block or release a vehicle outside the trip flow.
func (h *Handler) SetVehicleStatus(c *gin.Context) {
	var req SetVehicleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plate := c.Param("plate")
	vehicle, err := h.vehicleRepo.GetByPlate(c.Request.Context(), plate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if vehicle == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "veículo não encontrado"})
		return
	}

	if err := h.vehicleRepo.SetStatus(c.Request.Context(), plate, req.Status); err != nil {
		h.respondError(c, err)
		return
	}
	vehicle.Status = req.Status
	c.JSON(http.StatusOK, vehicle)
}
