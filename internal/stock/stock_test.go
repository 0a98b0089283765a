package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestInferQuantity(t *testing.T) {
	assert.Equal(t, 18, InferQuantity(9.9, fptr(0.55), 0))
	assert.Equal(t, 0, InferQuantity(0.34, fptr(0.35), 7))
	assert.Equal(t, 0, InferQuantity(0, fptr(0.5), 3))
	assert.Equal(t, 200, InferQuantity(100, fptr(0.5), 0))
}

func TestInferQuantityUnusableUnitWeight(t *testing.T) {
	// Zero, negative or absent unit weight keeps the tracked count untouched
	assert.Equal(t, 7, InferQuantity(123.4, nil, 7))
	assert.Equal(t, 7, InferQuantity(123.4, fptr(0), 7))
	assert.Equal(t, 7, InferQuantity(123.4, fptr(-1), 7))
}

func TestInferQuantityNeverNegative(t *testing.T) {
	assert.Equal(t, 0, InferQuantity(-5, fptr(0.5), 9))
}

func TestDaysToExpiry(t *testing.T) {
	today := time.Date(2026, 1, 15, 13, 45, 0, 0, time.UTC)

	_, ok := DaysToExpiry(nil, today)
	assert.False(t, ok)

	exp := time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC)
	days, ok := DaysToExpiry(&exp, today)
	assert.True(t, ok)
	assert.Equal(t, 7, days)

	past := time.Date(2026, 1, 14, 23, 59, 0, 0, time.UTC)
	days, ok = DaysToExpiry(&past, today)
	assert.True(t, ok)
	assert.Equal(t, -1, days)
}

func TestClassifyPrecedence(t *testing.T) {
	today := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	in := func(days int) *time.Time {
		d := today.AddDate(0, 0, days)
		return &d
	}

	tests := []struct {
		name     string
		quantity int
		reorder  int
		expiry   *time.Time
		want     Status
	}{
		{"zero quantity dominates everything", 0, 8, in(-10), StatusOutOfStock},
		{"negative quantity is out of stock", -1, 0, nil, StatusOutOfStock},
		{"expired beats low stock", 5, 8, in(-1), StatusExpired},
		{"expires today", 5, 8, in(0), StatusExpiresSoon},
		{"seven days is still soon", 5, 8, in(7), StatusExpiresSoon},
		{"eight days moves to the 30-day window", 5, 8, in(8), StatusExpires30},
		{"thirty days is the window edge", 5, 8, in(30), StatusExpires30},
		{"thirty-one days falls through to low stock", 5, 8, in(31), StatusLowStock},
		{"no expiry, at reorder level", 8, 8, nil, StatusLowStock},
		{"healthy item", 20, 8, in(365), StatusOK},
		{"healthy item without expiry", 20, 8, nil, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.quantity, tt.reorder, tt.expiry, today))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	today := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	exp := today.AddDate(0, 0, 5)

	first := Classify(3, 8, &exp, today)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(3, 8, &exp, today))
	}
}

func TestAlertSeverity(t *testing.T) {
	assert.Equal(t, "critical", AlertSeverity(StatusOutOfStock))
	assert.Equal(t, "critical", AlertSeverity(StatusExpired))
	assert.Equal(t, "warning", AlertSeverity(StatusLowStock))
	assert.Equal(t, "warning", AlertSeverity(StatusExpiresSoon))
	assert.Equal(t, "", AlertSeverity(StatusExpires30))
	assert.Equal(t, "", AlertSeverity(StatusOK))
}
