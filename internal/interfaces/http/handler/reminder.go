package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/interfaces/http/dto"
)

// ReminderSender dispatches one reminder tier for an invoice
type ReminderSender interface {
	SendReminder(ctx context.Context, req appbilling.SendReminderRequest) error
}

// DueReminderLister sweeps uncleared invoices for reminder tiers ready to send
type DueReminderLister interface {
	ListDueReminders(ctx context.Context, filter shared.Filter, today time.Time) ([]appbilling.DueReminder, error)
}

// ReminderHandler handles payment reminder endpoints
type ReminderHandler struct {
	BaseHandler
	reminders ReminderSender
	due       DueReminderLister
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(reminders ReminderSender, due DueReminderLister) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, due: due}
}

// RegisterRoutes registers reminder routes
func (h *ReminderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/invoices/:id/reminders", h.Send)
	rg.GET("/reminders/due", h.ListDue)
}

// SendReminderBody is the request body for sending a reminder. The invoice ID
// comes from the path.
type SendReminderBody struct {
	Tier          int    `json:"tier" binding:"required,min=1,max=3"`
	CustomMessage string `json:"custom_message"`
}

// Send godoc
// @ID           sendReminder
// @Summary      Send a payment reminder tier for an invoice
// @Description  Renders and dispatches one reminder tier to all customer contacts; the tier flag is stored only after every contact was reached
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Param        request body SendReminderBody true "Reminder request"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /invoices/{id}/reminders [post]
func (h *ReminderHandler) Send(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var body SendReminderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err = h.reminders.SendReminder(c.Request.Context(), appbilling.SendReminderRequest{
		InvoiceID:     invoiceID,
		Tier:          body.Tier,
		CustomMessage: body.CustomMessage,
	})
	if err != nil {
		var contactFailure *appbilling.ContactFailure
		if errors.As(err, &contactFailure) {
			failed := make([]string, 0, len(contactFailure.Failed))
			for contact := range contactFailure.Failed {
				failed = append(failed, contact)
			}
			h.Error(c, http.StatusBadGateway, "DISPATCH_FAILED",
				"Reminder could not reach contacts: "+strings.Join(failed, ", "))
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"invoice_id": invoiceID, "tier": body.Tier})
}

// ListDue godoc
// @ID           listDueReminders
// @Summary      List invoices with a reminder tier due today
// @Description  Sweeps uncleared invoices and reports the next reminder tier ready to send per invoice
// @Tags         reminders
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response
// @Router       /reminders/due [get]
func (h *ReminderHandler) ListDue(c *gin.Context) {
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

	due, err := h.due.ListDueReminders(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		SortBy:   req.SortBy,
		SortDesc: req.SortDir == "desc",
	}, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, due)
}
