package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/invoicedesk/backend/internal/domain/billing"
	"github.com/invoicedesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func invoiceColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "version",
		"number_stamp", "number_sequence", "customer_id", "issue_date", "due_date",
		"value", "tax", "additional", "subtracted",
		"balance_amount", "payment_difference", "payment_status",
		"reminder1_sent", "reminder2_sent", "reminder3_sent",
		"reminder1_message", "reminder2_message", "reminder3_message",
		"mark_cleared",
	}
}

func TestGormInvoiceRepository_FindByID(t *testing.T) {
	now := time.Now()

	t.Run("finds existing invoice", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoiceID := uuid.New()
		customerID := uuid.New()
		balance := decimal.NewFromInt(600)

		rows := sqlmock.NewRows(invoiceColumns()).AddRow(
			invoiceID, now, now, 2,
			int64(1755072000), int64(12), customerID, now, now.AddDate(0, 1, 0),
			decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, decimal.Zero,
			balance, decimal.NewFromInt(600), "PARTIAL",
			false, false, false, "", "", "", false,
		)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnRows(rows)

		inv, err := repo.FindByID(context.Background(), invoiceID)

		require.NoError(t, err)
		assert.Equal(t, invoiceID, inv.ID)
		assert.Equal(t, int64(1755072000), inv.Number.Stamp)
		assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, billing.PaymentStatusPartial, inv.PaymentStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null balance falls back to the recomputed total", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoiceID := uuid.New()

		rows := sqlmock.NewRows(invoiceColumns()).AddRow(
			invoiceID, now, now, 1,
			int64(1755072000), int64(12), uuid.New(), now, now.AddDate(0, 1, 0),
			decimal.NewFromInt(900), decimal.NewFromInt(100), decimal.Zero, decimal.Zero,
			nil, decimal.Zero, "PENDING",
			false, false, false, "", "", "", false,
		)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnRows(rows)

		inv, err := repo.FindByID(context.Background(), invoiceID)

		require.NoError(t, err)
		assert.True(t, inv.BalanceAmount.Equal(decimal.NewFromInt(1000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing rows to ErrNotFound", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoiceID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		inv, err := repo.FindByID(context.Background(), invoiceID)

		assert.Nil(t, inv)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_FindByNumber(t *testing.T) {
	now := time.Now()

	t.Run("bounds the lookup to the period", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		number := billing.InvoiceNumber{Stamp: 1755072000, Sequence: 12}
		period := shared.FinancialYear(now)

		rows := sqlmock.NewRows(invoiceColumns()).AddRow(
			uuid.New(), now, now, 1,
			number.Stamp, number.Sequence, uuid.New(), now, now.AddDate(0, 1, 0),
			decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, decimal.Zero,
			decimal.NewFromInt(1000), decimal.Zero, "PENDING",
			false, false, false, "", "", "", false,
		)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE \(number_stamp = \$1 AND number_sequence = \$2\) AND issue_date BETWEEN \$3 AND \$4 ORDER BY .* LIMIT .*`).
			WithArgs(number.Stamp, number.Sequence, period.Start, period.End, 1).
			WillReturnRows(rows)

		inv, err := repo.FindByNumber(context.Background(), number, period)

		require.NoError(t, err)
		assert.Equal(t, number, inv.Number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	t.Run("stale version maps to concurrency conflict", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		inv, err := billing.NewInvoice(
			billing.InvoiceNumber{Stamp: 1755072000, Sequence: 12},
			uuid.New(),
			time.Now(), time.Now().AddDate(0, 1, 0),
			decimal.NewFromInt(1000), decimal.Zero, decimal.Zero, decimal.Zero,
		)
		require.NoError(t, err)
		_, err = inv.ApplyPayment(decimal.NewFromInt(400))
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "invoices" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), inv)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_ListUncleared(t *testing.T) {
	t.Run("sorts by a whitelisted column", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE mark_cleared = \$1 ORDER BY issue_date DESC LIMIT .*`).
			WillReturnRows(sqlmock.NewRows(invoiceColumns()))

		invoices, err := repo.ListUncleared(context.Background(), shared.Filter{
			Page: 1, PageSize: 20, SortBy: "issue_date", SortDesc: true,
		})

		require.NoError(t, err)
		assert.Empty(t, invoices)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-whitelisted sort column never reaches the driver", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(gormDB)

		invoices, err := repo.ListUncleared(context.Background(), shared.Filter{
			Page: 1, PageSize: 20, SortBy: "due_date; SELECT pg_sleep(10)--",
		})

		assert.Nil(t, invoices)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_SORT", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestValidateSortColumn(t *testing.T) {
	assert.NoError(t, ValidateSortColumn(""))
	assert.NoError(t, ValidateSortColumn("due_date"))
	assert.Error(t, ValidateSortColumn("payment_status; DROP TABLE invoices"))
}
