package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles read-only general ledger requests.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvc
}

// RegisterLedgerRoutes registers ledger specific routes on an organization group.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvc) {
	h := &ledgerHandler{ledgerService: ledgerService}

	rg.GET("/vouchers/:voucher_id/ledger-entries", h.listVoucherEntries)

	accounts := rg.Group("/accounts/:account_id")
	{
		accounts.GET("/ledger-entries", h.listAccountEntries)
		accounts.GET("/balance", h.getAccountBalance)
	}
}

// listVoucherEntries godoc
// @Summary List the ledger entries a voucher produced
// @Tags ledger
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param voucher_id path string true "Voucher ID"
// @Success 200 {object} dto.ListLedgerEntriesResponse
// @Router /organizations/{organization_id}/vouchers/{voucher_id}/ledger-entries [get]
func (h *ledgerHandler) listVoucherEntries(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	entries, err := h.ledgerService.ListEntriesByVoucher(c.Request.Context(), c.Param("organization_id"), c.Param("voucher_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to list voucher ledger entries")
		return
	}
	c.JSON(http.StatusOK, dto.ListLedgerEntriesResponse{Entries: entries})
}

// listAccountEntries godoc
// @Summary List an account's ledger entries
// @Description Newest first, paginated with nextToken
// @Tags ledger
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param account_id path string true "Account ID"
// @Param limit query int false "Page size (1-100)"
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListLedgerEntriesResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/accounts/{account_id}/ledger-entries [get]
func (h *ledgerHandler) listAccountEntries(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var params dto.ListLedgerEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.ledgerService.ListEntriesByAccount(c.Request.Context(), c.Param("organization_id"), c.Param("account_id"), params, userID)
	if err != nil {
		respondError(c, err, "Failed to list account ledger entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getAccountBalance godoc
// @Summary Get an account balance derived from its ledger entries
// @Tags ledger
// @Produce json
// @Param organization_id path string true "Organization ID"
// @Param account_id path string true "Account ID"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /organizations/{organization_id}/accounts/{account_id}/balance [get]
func (h *ledgerHandler) getAccountBalance(c *gin.Context) {
	userID, ok := actorFromContext(c)
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetAccountBalance(c.Request.Context(), c.Param("organization_id"), c.Param("account_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to get account balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}
