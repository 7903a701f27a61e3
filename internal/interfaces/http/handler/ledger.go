package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/interfaces/http/dto"
)

// LedgerReader lists a customer's ledger entries
type LedgerReader interface {
	ListByCustomer(ctx context.Context, customerID uuid.UUID, period shared.Period) ([]*ledger.Entry, error)
}

// LedgerHandler handles customer ledger endpoints
type LedgerHandler struct {
	BaseHandler
	entries LedgerReader
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(entries LedgerReader) *LedgerHandler {
	return &LedgerHandler{entries: entries}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/customers/:id/ledger", h.ListByCustomer)
}

// ListByCustomer godoc
// @ID           listCustomerLedger
// @Summary      List a customer's ledger entries with running balances
// @Description  Entries are returned in replay order: creation time ascending, ties broken by ID
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Customer ID"
// @Param        from query string false "Period start (2006-01-02); defaults to current financial year"
// @Param        to query string false "Period end (2006-01-02)"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /customers/{id}/ledger [get]
func (h *LedgerHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	period, err := resolvePeriod(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries, err := h.entries.ListByCustomer(c.Request.Context(), customerID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewLedgerEntryListResponse(entries))
}
