package billing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/partner"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DueDateLayout formats due dates inside reminder messages
const DueDateLayout = "02 Jan 2006"

// shortCreditPeriodLimit is the credit period at or under which the compressed
// reminder schedule applies
const shortCreditPeriodLimit = 7

// DispatchCorrelation identifies the invoice and tier a dispatch belongs to
type DispatchCorrelation struct {
	InvoiceID uuid.UUID
	Tier      int
}

// Dispatcher delivers a reminder message to a single destination
type Dispatcher interface {
	Send(ctx context.Context, destination, body string, correlation DispatchCorrelation) error
}

// ContactFailure reports the contacts a reminder could not reach
type ContactFailure struct {
	InvoiceNumber string
	Tier          int
	Failed        map[string]error
}

// Error implements the error interface
func (e *ContactFailure) Error() string {
	contacts := make([]string, 0, len(e.Failed))
	for contact := range e.Failed {
		contacts = append(contacts, contact)
	}
	return fmt.Sprintf("reminder tier %d for invoice %s failed for contacts: %s",
		e.Tier, e.InvoiceNumber, strings.Join(contacts, ", "))
}

// SendReminderRequest asks for one reminder tier to be sent for an invoice.
// CustomMessage, when set, is sent verbatim instead of the tier template.
type SendReminderRequest struct {
	InvoiceID     uuid.UUID `json:"invoice_id" binding:"required"`
	Tier          int       `json:"tier" binding:"required"`
	CustomMessage string    `json:"custom_message"`
}

// ReminderService escalates payment reminders across three tiers. Flags are
// persisted only after every contact was reached, so a failed dispatch can be
// retried without losing its place in the escalation.
type ReminderService struct {
	invoiceRepo  billing.InvoiceRepository
	customerRepo partner.CustomerRepository
	dispatcher   Dispatcher
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	invoiceRepo billing.InvoiceRepository,
	customerRepo partner.CustomerRepository,
	dispatcher Dispatcher,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		invoiceRepo:  invoiceRepo,
		customerRepo: customerRepo,
		dispatcher:   dispatcher,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// DaysToDue counts the calendar days remaining before the due date, rounding
// partial days up. Negative when the invoice is overdue.
func DaysToDue(dueDate, today time.Time) int {
	return int(math.Ceil(dueDate.Sub(today).Hours() / 24))
}

// ReminderThresholds returns the days-to-due threshold per tier for a credit
// period. Short credit periods compress the schedule into thirds of the
// period; standard periods use the fixed 7/15/1 day schedule.
func ReminderThresholds(creditPeriodDays int) [billing.ReminderTierCount]int {
	if creditPeriodDays <= shortCreditPeriodLimit {
		interval := creditPeriodDays / 3
		return [billing.ReminderTierCount]int{
			creditPeriodDays,
			creditPeriodDays - interval,
			creditPeriodDays - 2*interval,
		}
	}
	return [billing.ReminderTierCount]int{7, 15, 1}
}

// DueReminderTier returns the next reminder tier due for the invoice, or 0
// when none is. Cleared invoices are never due. A tier is due when its
// threshold is reached, it has not been sent, and every lower tier has.
func DueReminderTier(invoice *billing.Invoice, customer *partner.Customer, today time.Time) int {
	if invoice.MarkCleared || invoice.IsPaid() {
		return 0
	}

	daysToDue := DaysToDue(invoice.DueDate, today)
	thresholds := ReminderThresholds(customer.CreditPeriodOrDefault())

	for tier := 1; tier <= billing.ReminderTierCount; tier++ {
		if invoice.ReminderFlags.Sent(tier) {
			continue
		}
		if tier > 1 && !invoice.ReminderFlags.Sent(tier-1) {
			return 0
		}
		if daysToDue <= thresholds[tier-1] {
			return tier
		}
		return 0
	}
	return 0
}

// DueReminder pairs an invoice with the reminder tier ready to be sent
type DueReminder struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Tier          int             `json:"tier"`
	DueDate       time.Time       `json:"due_date"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// ListDueReminders sweeps uncleared invoices and returns the ones whose next
// reminder tier is due as of today. Customers are loaded once per sweep.
func (s *ReminderService) ListDueReminders(ctx context.Context, filter shared.Filter, today time.Time) ([]DueReminder, error) {
	invoices, err := s.invoiceRepo.ListUncleared(ctx, filter)
	if err != nil {
		return nil, err
	}

	customers := make(map[uuid.UUID]*partner.Customer)
	due := make([]DueReminder, 0)
	for _, invoice := range invoices {
		customer, ok := customers[invoice.CustomerID]
		if !ok {
			customer, err = s.customerRepo.FindByID(ctx, invoice.CustomerID)
			if err != nil {
				return nil, err
			}
			customers[invoice.CustomerID] = customer
		}

		tier := DueReminderTier(invoice, customer, today)
		if tier == 0 {
			continue
		}
		due = append(due, DueReminder{
			InvoiceID:     invoice.ID,
			InvoiceNumber: invoice.Number.String(),
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			Tier:          tier,
			DueDate:       invoice.DueDate,
			Outstanding:   invoice.CurrentBalance(),
		})
	}
	return due, nil
}

// SendReminder renders and dispatches one reminder tier to every contact of
// the invoice's customer. The tier flag and message are stored only after all
// dispatches succeed.
func (s *ReminderService) SendReminder(ctx context.Context, req SendReminderRequest) error {
	if req.Tier < 1 || req.Tier > billing.ReminderTierCount {
		return shared.NewDomainError("INVALID_TIER", fmt.Sprintf("Reminder tier must be between 1 and %d", billing.ReminderTierCount))
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return err
	}
	if invoice.MarkCleared {
		return shared.NewDomainError("INVALID_STATE", "Cleared invoices do not receive reminders")
	}
	if invoice.ReminderFlags.Sent(req.Tier) {
		return shared.NewDomainError("ALREADY_SENT", fmt.Sprintf("Reminder tier %d was already sent for invoice %s", req.Tier, invoice.Number.String()))
	}
	if req.Tier > 1 && !invoice.ReminderFlags.Sent(req.Tier-1) {
		return shared.ErrSequenceViolation
	}

	customer, err := s.customerRepo.FindByID(ctx, invoice.CustomerID)
	if err != nil {
		return err
	}

	contacts := customer.Contacts()
	if len(contacts) == 0 {
		return shared.NewDomainError("NO_CONTACTS", "Customer "+customer.Name+" has no contact numbers on file")
	}

	message := req.CustomMessage
	if message == "" {
		message = RenderReminderMessage(req.Tier, invoice, customer)
	}

	correlation := DispatchCorrelation{InvoiceID: invoice.ID, Tier: req.Tier}
	failed := make(map[string]error)
	for _, contact := range contacts {
		if err := s.dispatcher.Send(ctx, contact, message, correlation); err != nil {
			failed[contact] = err
			s.logger.Warn("reminder dispatch failed",
				zap.String("invoice_number", invoice.Number.String()),
				zap.Int("tier", req.Tier),
				zap.String("contact", contact),
				zap.Error(err))
		}
	}
	if len(failed) > 0 {
		return &ContactFailure{
			InvoiceNumber: invoice.Number.String(),
			Tier:          req.Tier,
			Failed:        failed,
		}
	}

	if err := invoice.SetReminderSent(req.Tier, message); err != nil {
		return err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return err
	}

	if err := s.eventBus.Publish(ctx, invoice.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish reminder events",
			zap.String("invoice_number", invoice.Number.String()),
			zap.Error(err))
	}
	invoice.ClearDomainEvents()

	s.logger.Info("reminder sent",
		zap.String("invoice_number", invoice.Number.String()),
		zap.Int("tier", req.Tier),
		zap.Int("contacts", len(contacts)))

	return nil
}

// RenderReminderMessage renders the escalation template for a tier
func RenderReminderMessage(tier int, invoice *billing.Invoice, customer *partner.Customer) string {
	number := invoice.Number.String()
	dueDate := invoice.DueDate.Format(DueDateLayout)
	outstanding := invoice.CurrentBalance().StringFixed(2)

	switch tier {
	case 1:
		return fmt.Sprintf("Dear %s, this is a gentle reminder that invoice %s for Rs. %s is due on %s. Kindly arrange the payment.",
			customer.Name, number, outstanding, dueDate)
	case 2:
		return fmt.Sprintf("Dear %s, invoice %s for Rs. %s is due on %s and awaits payment. Please arrange the payment at the earliest.",
			customer.Name, number, outstanding, dueDate)
	default:
		return fmt.Sprintf("Dear %s, this is the final reminder for invoice %s. Rs. %s is due on %s. Please settle immediately to avoid interruption of service.",
			customer.Name, number, outstanding, dueDate)
	}
}
