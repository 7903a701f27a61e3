package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	t.Run("creates period successfully", func(t *testing.T) {
		start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

		p, err := NewPeriod(start, end)
		require.NoError(t, err)
		assert.Equal(t, start, p.Start)
		assert.Equal(t, end, p.End)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

		_, err := NewPeriod(start, end)
		require.Error(t, err)

		var domainErr *DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PERIOD", domainErr.Code)
	})
}

func TestFinancialYear(t *testing.T) {
	t.Run("date after April belongs to same calendar year", func(t *testing.T) {
		p := FinancialYear(time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, 2025, p.Start.Year())
		assert.Equal(t, time.April, p.Start.Month())
		assert.Equal(t, 2026, p.End.Year())
	})

	t.Run("date before April belongs to previous year", func(t *testing.T) {
		p := FinancialYear(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, 2025, p.Start.Year())
	})

	t.Run("period contains its own boundaries", func(t *testing.T) {
		p := FinancialYear(time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC))
		assert.True(t, p.Contains(p.Start))
		assert.True(t, p.Contains(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))
		assert.False(t, p.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	})
}
