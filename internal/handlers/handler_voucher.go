package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// voucherHandler handles HTTP requests related to vouchers.
type voucherHandler struct {
	voucherService portssvc.VoucherSvcFacade
	builder        portssvc.VoucherBuilderSvc
	enqueuer       portssvc.VoucherTaskEnqueuer // nil disables async processing
}

// RegisterVoucherRoutes registers voucher specific routes on an organization group.
func RegisterVoucherRoutes(rg *gin.RouterGroup, voucherService portssvc.VoucherSvcFacade, builder portssvc.VoucherBuilderSvc, enqueuer portssvc.VoucherTaskEnqueuer) {
	h := &voucherHandler{
		voucherService: voucherService,
		builder:        builder,
		enqueuer:       enqueuer,
	}

	vouchers := rg.Group("/vouchers")
	{
		vouchers.POST("", h.createVoucher)
		vouchers.POST("/process", h.createAndProcessVoucher)
		vouchers.GET("/:voucher_id", h.getVoucher)
		vouchers.DELETE("/:voucher_id", h.deleteVoucher)
		vouchers.POST("/:voucher_id/process", h.processVoucher)
		vouchers.POST("/:voucher_id/reject", h.rejectVoucher)
		vouchers.POST("/:voucher_id/reverse", h.reverseVoucher)
		vouchers.GET("/:voucher_id/processes", h.listVoucherProcesses)
	}
}

// createVoucher godoc
// @Summary Create or edit a draft voucher
// @Description Saves a new voucher, or rewrites an editable one when voucherID is set
// @Tags vouchers
// @Accept json
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher body dto.CreateVoucherRequest true "Voucher"
// @Success 201 {object} dto.VoucherResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 412 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers [post]
func (h *voucherHandler) createVoucher(c *gin.Context) {
	orgID := c.Param("organization_id")
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	voucher, err := h.builder.CreateVoucherTransaction(c.Request.Context(), orgID, req, userID)
	if err != nil {
		respondError(c, err, "Failed to save voucher")
		return
	}

	status := http.StatusCreated
	if req.VoucherID != nil {
		status = http.StatusOK
	}
	c.JSON(status, dto.ToVoucherResponse(voucher))
}

// createAndProcessVoucher godoc
// @Summary Create a voucher and process it in one call
// @Description Builds the voucher and runs the action (save, submit_voucher, post_voucher). Replays with the same Idempotency-Key return the original voucher.
// @Tags vouchers
// @Accept json
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param voucher body dto.CreateAndProcessRequest true "Voucher and action"
// @Success 200 {object} dto.VoucherResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers/process [post]
func (h *voucherHandler) createAndProcessVoucher(c *gin.Context) {
	orgID := c.Param("organization_id")
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateAndProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	voucher, err := h.voucherService.CreateAndProcess(c.Request.Context(), orgID, req, userID, idempotencyKey(c))
	if err != nil {
		respondError(c, err, "Failed to create and process voucher")
		return
	}

	c.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
}

// processVoucher godoc
// @Summary Advance a voucher
// @Description Runs save, submit or post on an existing voucher. With async=true the request is queued and 202 is returned.
// @Tags vouchers
// @Accept json
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Param async query bool false "Queue instead of running inline"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body dto.ProcessVoucherRequest true "Commit type"
// @Success 200 {object} dto.VoucherResponse
// @Success 202 {object} dto.ProcessAcceptedResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id}/process [post]
func (h *voucherHandler) processVoucher(c *gin.Context) {
	orgID := c.Param("organization_id")
	voucherID := c.Param("voucher_id")
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body dto.ProcessVoucherRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}

	req := portssvc.ProcessRequest{
		OrganizationID: orgID,
		VoucherID:      voucherID,
		CommitType:     domain.CommitType(body.CommitType),
		ActorID:        userID,
		IdempotencyKey: idempotencyKey(c),
	}

	if c.Query("async") == "true" && h.enqueuer != nil {
		taskID, err := h.enqueuer.EnqueueProcess(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, "Failed to enqueue voucher processing")
			return
		}
		middleware.GetLoggerFromCtx(c.Request.Context()).Info("Voucher processing queued",
			slog.String("voucher_id", voucherID), slog.String("task_id", taskID))
		c.JSON(http.StatusAccepted, dto.ProcessAcceptedResponse{VoucherID: voucherID, TaskID: taskID})
		return
	}

	voucher, err := h.voucherService.Process(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to process voucher")
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
}

// getVoucher godoc
// @Summary Get a voucher
// @Tags vouchers
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Success 200 {object} dto.VoucherResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id} [get]
func (h *voucherHandler) getVoucher(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	voucher, err := h.voucherService.GetVoucher(c.Request.Context(), c.Param("organization_id"), c.Param("voucher_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to get voucher")
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
}

// deleteVoucher godoc
// @Summary Delete a draft voucher
// @Tags vouchers
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id} [delete]
func (h *voucherHandler) deleteVoucher(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.builder.DeleteDraft(c.Request.Context(), c.Param("organization_id"), c.Param("voucher_id"), userID); err != nil {
		respondError(c, err, "Failed to delete voucher")
		return
	}
	c.Status(http.StatusNoContent)
}

// rejectVoucher godoc
// @Summary Reject a voucher awaiting approval
// @Tags vouchers
// @Accept json
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Param request body dto.RejectVoucherRequest true "Reason"
// @Success 200 {object} dto.VoucherResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id}/reject [post]
func (h *voucherHandler) rejectVoucher(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body dto.RejectVoucherRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}

	voucher, err := h.voucherService.RejectVoucher(c.Request.Context(), c.Param("organization_id"), c.Param("voucher_id"), userID, body.Reason)
	if err != nil {
		respondError(c, err, "Failed to reject voucher")
		return
	}
	c.JSON(http.StatusOK, dto.ToVoucherResponse(voucher))
}

// reverseVoucher godoc
// @Summary Reverse a posted voucher
// @Description Creates and posts a mirror voucher with debits and credits swapped
// @Tags vouchers
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Success 201 {object} dto.VoucherResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id}/reverse [post]
func (h *voucherHandler) reverseVoucher(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	reversal, err := h.voucherService.ReverseVoucher(c.Request.Context(), c.Param("organization_id"), c.Param("voucher_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to reverse voucher")
		return
	}
	c.JSON(http.StatusCreated, dto.ToVoucherResponse(reversal))
}

// listVoucherProcesses godoc
// @Summary List the processing attempts of a voucher
// @Tags vouchers
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Success 200 {object} dto.ListVoucherProcessesResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id}/processes [get]
func (h *voucherHandler) listVoucherProcesses(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	processes, err := h.voucherService.ListProcesses(c.Request.Context(), c.Param("organization_id"), c.Param("voucher_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to list voucher processes")
		return
	}
	if processes == nil {
		processes = []domain.VoucherProcess{}
	}
	c.JSON(http.StatusOK, dto.ListVoucherProcessesResponse{Processes: processes})
}
