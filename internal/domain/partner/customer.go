package partner

import (
	"strings"

	"github.com/invoicedesk/backend/internal/domain/shared"
)

// DefaultCreditPeriodDays applies when a customer has no negotiated credit
// period on file
const DefaultCreditPeriodDays = 30

// Customer is a billing counterparty. Reconciliation and reminders read
// customers but never modify them, customer master data is owned elsewhere.
type Customer struct {
	shared.BaseAggregateRoot
	Name             string
	CreditPeriodDays int
	BusinessPhone    string
	OwnerPhone       string
	Email            string
	Address          string
}

// NewCustomer creates a customer with validation
func NewCustomer(name string, creditPeriodDays int) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name is required")
	}
	if creditPeriodDays < 0 {
		return nil, shared.NewDomainError("INVALID_CREDIT_PERIOD", "Credit period cannot be negative")
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		CreditPeriodDays:  creditPeriodDays,
	}, nil
}

// CreditPeriodOrDefault returns the negotiated credit period, falling back to
// the default when none is on file
func (c *Customer) CreditPeriodOrDefault() int {
	if c.CreditPeriodDays <= 0 {
		return DefaultCreditPeriodDays
	}
	return c.CreditPeriodDays
}

// Contacts returns the distinct phone numbers reminders should reach,
// business number first
func (c *Customer) Contacts() []string {
	var contacts []string
	seen := make(map[string]struct{})
	for _, number := range []string{c.BusinessPhone, c.OwnerPhone} {
		number = strings.TrimSpace(number)
		if number == "" {
			continue
		}
		if _, ok := seen[number]; ok {
			continue
		}
		seen[number] = struct{}{}
		contacts = append(contacts, number)
	}
	return contacts
}
