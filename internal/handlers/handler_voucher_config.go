package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/gin-gonic/gin"
)

type voucherConfigHandler struct {
	configService portssvc.VoucherConfigSvc
}

// RegisterVoucherConfigRoutes registers voucher mode configuration routes on an organization group.
func RegisterVoucherConfigRoutes(rg *gin.RouterGroup, configService portssvc.VoucherConfigSvc) {
	h := &voucherConfigHandler{configService: configService}

	configs := rg.Group("/voucher-configs")
	{
		configs.PUT("", h.upsertConfig)
		configs.GET("/:journal_type", h.getActiveConfig)
	}
}

// upsertConfig godoc
// @Summary Create or replace the configuration of a journal type
// @Tags voucher-configs
// @Accept json
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param config body dto.UpsertVoucherConfigRequest true "Configuration"
// @Success 200 {object} domain.VoucherModeConfig
// @Failure 422 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/voucher-configs [put]
func (h *voucherConfigHandler) upsertConfig(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.UpsertVoucherConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cfg, err := h.configService.UpsertConfig(c.Request.Context(), c.Param("organization_id"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to upsert voucher config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// getActiveConfig godoc
// @Summary Get the active configuration of a journal type
// @Tags voucher-configs
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param journal_type path string true "Journal type"
// @Success 200 {object} domain.VoucherModeConfig
// @Failure 404 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/voucher-configs/{journal_type} [get]
func (h *voucherConfigHandler) getActiveConfig(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	cfg, err := h.configService.GetActiveConfig(c.Request.Context(), c.Param("organization_id"), c.Param("journal_type"), userID)
	if err != nil {
		respondError(c, err, "Failed to get voucher config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}
