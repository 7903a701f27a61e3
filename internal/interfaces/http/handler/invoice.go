package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/interfaces/http/dto"
)

// InvoiceReader loads invoice aggregates for read endpoints
type InvoiceReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error)
	ListUncleared(ctx context.Context, filter shared.Filter) ([]*billing.Invoice, error)
}

// InvoiceRecorder persists a new invoice together with its ledger entry
type InvoiceRecorder interface {
	RecordInvoice(ctx context.Context, invoice *billing.Invoice) error
}

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceReader
	recorder InvoiceRecorder
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceReader, recorder InvoiceRecorder) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, recorder: recorder}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/invoices", h.Create)
	rg.GET("/invoices/uncleared", h.ListUncleared)
	rg.GET("/invoices/:id", h.Get)
}

// CreateInvoiceRequest is the request body for entering a new invoice
type CreateInvoiceRequest struct {
	Number     string          `json:"number" binding:"required"`
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	IssueDate  time.Time       `json:"issue_date" binding:"required"`
	DueDate    time.Time       `json:"due_date" binding:"required"`
	Value      decimal.Decimal `json:"value" binding:"required"`
	Tax        decimal.Decimal `json:"tax"`
	Additional decimal.Decimal `json:"additional"`
	Subtracted decimal.Decimal `json:"subtracted"`
}

// Create godoc
// @ID           createInvoice
// @Summary      Enter a new invoice
// @Description  Creates an invoice with its balance initialized to the total and debits the customer ledger
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	number, err := billing.ParseInvoiceNumber(req.Number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	invoice, err := billing.NewInvoice(number, req.CustomerID, req.IssueDate, req.DueDate,
		req.Value, req.Tax, req.Additional, req.Subtracted)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.recorder.RecordInvoice(c.Request.Context(), invoice); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewInvoiceResponse(invoice))
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice by ID
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoices.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewInvoiceResponse(invoice))
}

// ListUncleared godoc
// @ID           listUnclearedInvoices
// @Summary      List invoices not yet marked cleared
// @Tags         invoices
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        sort_by query string false "Sort column (due_date, issue_date, created_at)"
// @Param        sort_dir query string false "Sort direction (asc, desc)"
// @Success      200 {object} dto.Response
// @Router       /invoices/uncleared [get]
func (h *InvoiceHandler) ListUncleared(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	invoices, err := h.invoices.ListUncleared(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		SortBy:   req.SortBy,
		SortDesc: req.SortDir == "desc",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewInvoiceListResponse(invoices))
}
