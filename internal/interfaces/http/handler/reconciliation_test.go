package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
)

func uploadSheet(t *testing.T, engine *gin.Engine, path, csvContent string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "payments.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestReconciliationHandler_Import(t *testing.T) {
	const sheet = "invoice_number,transaction_id,amount,payment_date,mode\n" +
		"1755072000/12,TXN-001,400,2026-08-20,CASH\n" +
		"1755072000/13,TXN-002,250.50,2026-08-21,\n"

	t.Run("parses rows and returns the report", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		reconciler.On("Reconcile", mock.Anything, mock.Anything, mock.MatchedBy(func(rows []appbilling.ReconciliationRow) bool {
			return len(rows) == 2 &&
				rows[0].InvoiceNumber == "1755072000/12" &&
				rows[0].Amount == "400" &&
				rows[1].TransactionID == "TXN-002" &&
				rows[1].Mode == ""
		})).Return(&appbilling.ReconciliationReport{
			TotalRows: 2,
			Processed: []appbilling.RowOutcome{
				{LineNumber: 2, InvoiceNumber: "1755072000/12"},
				{LineNumber: 3, InvoiceNumber: "1755072000/13"},
			},
		})
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := uploadSheet(t, engine, "/api/v1/reconciliation/import", sheet)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(2), data["total_rows"])
		assert.Len(t, data["processed"], 2)
		reconciler.AssertExpectations(t)
	})

	t.Run("defaults the period to the current financial year", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		expected := shared.FinancialYear(time.Now())
		reconciler.On("Reconcile", mock.Anything, mock.MatchedBy(func(p shared.Period) bool {
			return p.Start.Equal(expected.Start) && p.End.Equal(expected.End)
		}), mock.Anything).Return(&appbilling.ReconciliationReport{TotalRows: 2})
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := uploadSheet(t, engine, "/api/v1/reconciliation/import", sheet)

		assert.Equal(t, http.StatusOK, w.Code)
		reconciler.AssertExpectations(t)
	})

	t.Run("explicit period is passed through", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		reconciler.On("Reconcile", mock.Anything, mock.MatchedBy(func(p shared.Period) bool {
			return p.Start.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) &&
				p.Contains(time.Date(2027, 3, 31, 23, 0, 0, 0, time.UTC))
		}), mock.Anything).Return(&appbilling.ReconciliationReport{TotalRows: 2})
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := uploadSheet(t, engine, "/api/v1/reconciliation/import?from=2026-04-01&to=2027-03-31", sheet)

		assert.Equal(t, http.StatusOK, w.Code)
		reconciler.AssertExpectations(t)
	})

	t.Run("missing required columns return 400", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := uploadSheet(t, engine, "/api/v1/reconciliation/import",
			"invoice_number,amount\n1755072000/12,400\n")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"].(map[string]any)["message"], "transaction_id")
		reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sheet with header but no rows returns 400", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := uploadSheet(t, engine, "/api/v1/reconciliation/import",
			"invoice_number,transaction_id,amount,payment_date\n")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file part returns 400", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := doJSON(t, engine, http.MethodPost, "/api/v1/reconciliation/import", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("one-sided period returns 400", func(t *testing.T) {
		reconciler := new(mockSheetReconciler)
		engine := newTestRouter(NewReconciliationHandler(reconciler))

		w := uploadSheet(t, engine, "/api/v1/reconciliation/import?from=2026-04-01", sheet)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
