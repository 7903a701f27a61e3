package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/ledger"
	"github.com/invoicedesk/backend/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPaymentApplier struct {
	mock.Mock
}

func (m *mockPaymentApplier) ApplyPayment(ctx context.Context, req appbilling.ApplyPaymentRequest) (*appbilling.ApplyPaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.ApplyPaymentResult), args.Error(1)
}

type mockSheetReconciler struct {
	mock.Mock
}

func (m *mockSheetReconciler) Reconcile(ctx context.Context, period shared.Period, rows []appbilling.ReconciliationRow) *appbilling.ReconciliationReport {
	args := m.Called(ctx, period, rows)
	return args.Get(0).(*appbilling.ReconciliationReport)
}

type mockReminderSender struct {
	mock.Mock
}

func (m *mockReminderSender) SendReminder(ctx context.Context, req appbilling.SendReminderRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type mockDueReminderLister struct {
	mock.Mock
}

func (m *mockDueReminderLister) ListDueReminders(ctx context.Context, filter shared.Filter, today time.Time) ([]appbilling.DueReminder, error) {
	args := m.Called(ctx, filter, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appbilling.DueReminder), args.Error(1)
}

type mockInvoiceReader struct {
	mock.Mock
}

func (m *mockInvoiceReader) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceReader) ListUncleared(ctx context.Context, filter shared.Filter) ([]*billing.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

type mockInvoiceRecorder struct {
	mock.Mock
}

func (m *mockInvoiceRecorder) RecordInvoice(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

type mockLedgerReader struct {
	mock.Mock
}

func (m *mockLedgerReader) ListByCustomer(ctx context.Context, customerID uuid.UUID, period shared.Period) ([]*ledger.Entry, error) {
	args := m.Called(ctx, customerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

// newTestRouter builds an engine with the registrar mounted under /api/v1
func newTestRouter(registrar interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	engine := gin.New()
	registrar.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
