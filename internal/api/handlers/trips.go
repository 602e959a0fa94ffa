package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vhugonogueira-beep/frota-ls/internal/models"
	"github.com/vhugonogueira-beep/frota-ls/internal/service"
)

// CreateRecordRequest is the manual entry form.
type CreateRecordRequest struct {
	Veiculo          string   `json:"veiculo" binding:"required"`
	DataInicial      string   `json:"data_inicial" binding:"required"`
	HorarioInicial   string   `json:"horario_inicial" binding:"required"`
	DataFinal        string   `json:"data_final"`
	HorarioFinal     string   `json:"horario_final"`
	Destino          string   `json:"destino"`
	KmInicial        float64  `json:"km_inicial"`
	KmFinal          *float64 `json:"km_final"`
	Responsavel      string   `json:"responsavel" binding:"required"`
	Atividade        string   `json:"atividade"`
	Lavagem          string   `json:"lavagem" binding:"omitempty,oneof=realizada pendente"`
	Tanque           string   `json:"tanque" binding:"omitempty,oneof=cheio meio_tanque necessario_abastecer"`
	AndarEstacionado string   `json:"andar_estacionado"`
	Status           string   `json:"status" binding:"omitempty,oneof=agendado em_andamento"`
}

// ListRecords returns fleet records, newest first, with limit/offset
// pagination.
func (h *Handler) ListRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	records, err := h.tripRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	total, err := h.tripRepo.Count(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetRecord returns one record by ID.
func (h *Handler) GetRecord(c *gin.Context) {
	record, err := h.tripRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "registro não encontrado"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// CreateRecord inserts a manually entered trip.
func (h *Handler) CreateRecord(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.RecordStatus(req.Status)
	if status == "" {
		status = models.RecordAgendado
	}
	lavagem := models.LavagemStatus(req.Lavagem)
	if lavagem == "" {
		lavagem = models.LavagemRealizada
	}
	tanque := models.TanqueStatus(req.Tanque)
	if tanque == "" {
		tanque = models.TanqueCheio
	}

	record := &models.FleetRecord{
		Veiculo:          req.Veiculo,
		DataInicial:      req.DataInicial,
		HorarioInicial:   req.HorarioInicial,
		DataFinal:        req.DataFinal,
		HorarioFinal:     req.HorarioFinal,
		Destino:          req.Destino,
		KmInicial:        req.KmInicial,
		KmFinal:          req.KmFinal,
		Responsavel:      req.Responsavel,
		Atividade:        req.Atividade,
		Lavagem:          lavagem,
		Tanque:           tanque,
		AndarEstacionado: req.AndarEstacionado,
		Status:           status,
		Source:           "web",
	}
	if record.DataFinal == "" {
		record.DataFinal = record.DataInicial
	}
	if record.HorarioFinal == "" {
		record.HorarioFinal = "00:00"
	}
	if record.Atividade == "" {
		record.Atividade = "Não informada"
	}
	if record.AndarEstacionado == "" {
		record.AndarEstacionado = "P"
	}

	created, err := h.fleet.CreateRecord(c.Request.Context(), record)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateRecord applies a partial edit and records the diff in the audit
// trail.
func (h *Handler) UpdateRecord(c *gin.Context) {
	var update service.RecordUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.fleet.UpdateRecord(c.Request.Context(), c.Param("id"), actor(c), &update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// StartRecord promotes a scheduled trip to in progress.
func (h *Handler) StartRecord(c *gin.Context) {
	record, err := h.fleet.StartRecord(c.Request.Context(), c.Param("id"), c.Query("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// FinishRecordRequest carries the closing data of a trip.
type FinishRecordRequest struct {
	KmFinal                     *float64 `json:"km_final"`
	FotoPainelFinalURL          *string  `json:"foto_painel_final_url"`
	ComprovanteAbastecimentoURL *string  `json:"comprovante_abastecimento_url"`
}

// FinishRecord closes a trip.
func (h *Handler) FinishRecord(c *gin.Context) {
	var req FinishRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.fleet.FinishRecord(c.Request.Context(), c.Param("id"), c.Query("plate"),
		req.KmFinal, req.FotoPainelFinalURL, req.ComprovanteAbastecimentoURL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// CancelRecord voids a trip.
func (h *Handler) CancelRecord(c *gin.Context) {
	record, err := h.fleet.CancelRecord(c.Request.Context(), c.Param("id"), c.Query("plate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteRecord removes a record.
func (h *Handler) DeleteRecord(c *gin.Context) {
	if err := h.fleet.DeleteRecord(c.Request.Context(), c.Param("id"), c.Query("plate")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadAttachment stores a photo (dashboard shot, fuel receipt) in the
// object store and links it to the record. The "kind" form field selects
// which slot the URL lands in.
func (h *Handler) UploadAttachment(c *gin.Context) {
	if !h.storage.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "armazenamento de anexos não configurado"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arquivo ausente"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	url, err := h.storage.Upload(c.Request.Context(), data, fileHeader.Filename)
	if err != nil {
		h.logger.Error("attachment upload failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "falha ao enviar anexo"})
		return
	}

	update := &service.RecordUpdate{}
	switch c.DefaultPostForm("kind", "foto_painel_final") {
	case "foto_painel_inicial":
		update.FotoPainelInicialURL = &url
	case "comprovante_abastecimento":
		update.ComprovanteAbastecimentoURL = &url
	default:
		update.FotoPainelFinalURL = &url
	}

	record, err := h.fleet.UpdateRecord(c.Request.Context(), c.Param("id"), actor(c), update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "record": record})
}

// GetRecordAudit returns the edit history of one record.
func (h *Handler) GetRecordAudit(c *gin.Context) {
	entries, err := h.auditRepo.ListByRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetStats returns the dashboard counters.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.fleet.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
