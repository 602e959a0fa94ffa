package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhugonogueira-beep/frota-ls/internal/api/storage"
	"github.com/vhugonogueira-beep/frota-ls/internal/config"
	"github.com/vhugonogueira-beep/frota-ls/internal/repository"
	"github.com/vhugonogueira-beep/frota-ls/internal/service"
)

// Handler wires the HTTP surface.
type Handler struct {
	logger      *zap.Logger
	cfg         *config.Config
	vehicleRepo *repository.VehicleRepository
	tripRepo    *repository.TripRepository
	auditRepo   *repository.AuditRepository
	fleet       *service.FleetService
	storage     *storage.Client
}

// NewHandler creates the handler.
func NewHandler(
	logger *zap.Logger,
	cfg *config.Config,
	vehicleRepo *repository.VehicleRepository,
	tripRepo *repository.TripRepository,
	auditRepo *repository.AuditRepository,
	fleet *service.FleetService,
	storageClient *storage.Client,
) *Handler {
	return &Handler{
		logger:      logger,
		cfg:         cfg,
		vehicleRepo: vehicleRepo,
		tripRepo:    tripRepo,
		auditRepo:   auditRepo,
		fleet:       fleet,
		storage:     storageClient,
	}
}

// RegisterRoutes registers everything on the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Inbound message transport
	r.POST("/webhook/whatsapp", h.HandleWebhook)

	api := r.Group("/api")
	{
		// Vehicles
		api.GET("/vehicles", h.ListVehicles)
		api.GET("/vehicles/:plate", h.GetVehicle)
		api.POST("/vehicles", h.CreateVehicle)
		api.PATCH("/vehicles/:plate/status", h.SetVehicleStatus)

		// Fleet records
		api.GET("/records", h.ListRecords)
		api.GET("/records/:id", h.GetRecord)
		api.POST("/records", h.CreateRecord)
		api.PATCH("/records/:id", h.UpdateRecord)
		api.POST("/records/:id/start", h.StartRecord)
		api.POST("/records/:id/finish", h.FinishRecord)
		api.POST("/records/:id/cancel", h.CancelRecord)
		api.POST("/records/:id/attachments", h.UploadAttachment)
		api.DELETE("/records/:id", h.DeleteRecord)
		api.GET("/records/:id/audit", h.GetRecordAudit)

		// Dashboard
		api.GET("/stats", h.GetStats)
	}

	r.GET("/health", h.HealthCheck)
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps service failures: validation rejections stay in the
// 4xx family, anything else is an infrastructure fault.
func (h *Handler) respondError(c *gin.Context, err error) {
	if service.IsValidation(err) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// actor identifies who performed a structured edit, for the audit trail.
func actor(c *gin.Context) string {
	if a := c.GetHeader("X-Actor"); a != "" {
		return a
	}
	return "web"
}
