package handler

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/invoicedesk/backend/internal/infrastructure/importer"
	"github.com/invoicedesk/backend/internal/interfaces/http/dto"
)

// Sheet column headers expected in an uploaded reconciliation CSV
const (
	ColumnInvoiceNumber = "invoice_number"
	ColumnTransactionID = "transaction_id"
	ColumnAmount        = "amount"
	ColumnPaymentDate   = "payment_date"
	ColumnMode          = "mode"
	ColumnChequeNumber  = "cheque_number"
	ColumnBankName      = "bank_name"
	ColumnRemarks       = "remarks"
)

// RequiredSheetColumns are the headers a reconciliation sheet must carry
var RequiredSheetColumns = []string{
	ColumnInvoiceNumber, ColumnTransactionID, ColumnAmount, ColumnPaymentDate,
}

// SheetReconciler applies a batch of payment rows against invoices
type SheetReconciler interface {
	Reconcile(ctx context.Context, period shared.Period, rows []appbilling.ReconciliationRow) *appbilling.ReconciliationReport
}

// ReconciliationHandler handles bulk payment sheet uploads
type ReconciliationHandler struct {
	BaseHandler
	reconciler SheetReconciler
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciler SheetReconciler) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconciliation/import", h.Import)
}

// Import godoc
// @ID           importReconciliationSheet
// @Summary      Reconcile a payment sheet against invoices
// @Description  Uploads a CSV of payment rows; every row receives exactly one outcome and the batch never aborts
// @Tags         reconciliation
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV payment sheet"
// @Param        from query string false "Period start (2006-01-02); defaults to current financial year"
// @Param        to query string false "Period end (2006-01-02)"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /reconciliation/import [post]
func (h *ReconciliationHandler) Import(c *gin.Context) {
	period, err := resolvePeriod(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file upload named 'file' is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	rows, err := parseSheet(file)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report := h.reconciler.Reconcile(c.Request.Context(), period, rows)
	h.Success(c, report)
}

// parseSheet reads an uploaded sheet into loose reconciliation rows. Parsing
// stays syntactic here; field validation belongs to the reconciler.
func parseSheet(r io.Reader) ([]appbilling.ReconciliationRow, error) {
	parser, err := importer.NewSheetParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders(RequiredSheetColumns); len(missing) > 0 {
		return nil, errors.New("sheet is missing required columns: " + strings.Join(missing, ", "))
	}

	sheetRows, err := parser.ReadAllRows()
	if err != nil {
		return nil, err
	}
	if len(sheetRows) == 0 {
		return nil, importer.ErrNoDataRows
	}

	rows := make([]appbilling.ReconciliationRow, len(sheetRows))
	for i, row := range sheetRows {
		rows[i] = appbilling.ReconciliationRow{
			LineNumber:    row.LineNumber,
			InvoiceNumber: row.Get(ColumnInvoiceNumber),
			TransactionID: row.Get(ColumnTransactionID),
			Amount:        row.Get(ColumnAmount),
			PaymentDate:   row.Get(ColumnPaymentDate),
			Mode:          row.Get(ColumnMode),
			ChequeNumber:  row.Get(ColumnChequeNumber),
			BankName:      row.Get(ColumnBankName),
			Remarks:       row.Get(ColumnRemarks),
		}
	}
	return rows, nil
}

// resolvePeriod reads an optional from/to query pair, defaulting to the
// financial year containing today
func resolvePeriod(c *gin.Context) (shared.Period, error) {
	var req dto.PeriodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return shared.Period{}, shared.NewDomainError("INVALID_PERIOD", err.Error())
	}
	if req.From == "" && req.To == "" {
		return shared.FinancialYear(time.Now()), nil
	}
	if req.From == "" || req.To == "" {
		return shared.Period{}, shared.NewDomainError("INVALID_PERIOD", "Both from and to must be provided")
	}

	start, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return shared.Period{}, shared.NewDomainError("INVALID_PERIOD", "from must be in 2006-01-02 format")
	}
	end, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return shared.Period{}, shared.NewDomainError("INVALID_PERIOD", "to must be in 2006-01-02 format")
	}
	return shared.NewPeriod(start, end.Add(24*time.Hour-time.Nanosecond))
}
