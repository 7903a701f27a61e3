package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
)

// PaymentApplier applies a single payment to an invoice
type PaymentApplier interface {
	ApplyPayment(ctx context.Context, req appbilling.ApplyPaymentRequest) (*appbilling.ApplyPaymentResult, error)
}

// PaymentHandler handles payment application endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentApplier
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentApplier) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.Apply)
}

// Apply godoc
// @ID           applyPayment
// @Summary      Apply a payment to an invoice
// @Description  Records a payment, updates the invoice balance and status, and appends a ledger entry in one transaction
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body appbilling.ApplyPaymentRequest true "Payment application request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /payments [post]
func (h *PaymentHandler) Apply(c *gin.Context) {
	var req appbilling.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.payments.ApplyPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
