// Package stock converts raw weight observations into unit counts and
// derives an operational status for an inventory item. Everything here is
// pure: no I/O, deterministic for identical inputs.
package stock

import (
	"math"
	"time"
)

// Status is the operational label of an item
type Status string

const (
	StatusOutOfStock  Status = "OUT_OF_STOCK"
	StatusExpired     Status = "EXPIRED"
	StatusExpiresSoon Status = "EXPIRES_SOON"
	StatusExpires30   Status = "EXPIRES_30"
	StatusLowStock    Status = "LOW_STOCK"
	StatusOK          Status = "OK"
)

// Expiry windows in days. EXPIRES_SOON covers 0..7, EXPIRES_30 covers 8..30.
const (
	expiresSoonDays = 7
	expires30Days   = 30
)

// InferQuantity derives a unit count from a weight reading. A partially
// consumed unit counts as zero remaining units, so the quotient is truncated
// toward zero and never negative. When the unit weight is unknown or not
// positive the reading is advisory only and fallback is returned unchanged.
func InferQuantity(currentWeight float64, unitWeight *float64, fallback int) int {
	if unitWeight == nil || *unitWeight <= 0 {
		return fallback
	}
	if currentWeight <= 0 {
		return 0
	}
	return int(math.Floor(currentWeight / *unitWeight))
}

// DaysToExpiry returns the number of calendar days until expiry, negative if
// already expired. The second return is false when no expiry date is set.
func DaysToExpiry(expiry *time.Time, today time.Time) (int, bool) {
	if expiry == nil {
		return 0, false
	}
	e := truncateToDate(*expiry)
	t := truncateToDate(today)
	return int(e.Sub(t) / (24 * time.Hour)), true
}

// Classify derives the status label for an item. The ordering is a policy
// decision, evaluated top to bottom, first match wins: an empty compartment
// is always actionable first; among non-empty items imminent expiry
// dominates reorder urgency.
func Classify(quantity, reorderLevel int, expiry *time.Time, today time.Time) Status {
	if quantity <= 0 {
		return StatusOutOfStock
	}

	if days, ok := DaysToExpiry(expiry, today); ok {
		switch {
		case days < 0:
			return StatusExpired
		case days <= expiresSoonDays:
			return StatusExpiresSoon
		case days <= expires30Days:
			return StatusExpires30
		}
	}

	if quantity <= reorderLevel {
		return StatusLowStock
	}
	return StatusOK
}

// AlertSeverity maps a status to an ingestion alert severity. The empty
// string means no alert is raised for that status.
func AlertSeverity(s Status) string {
	switch s {
	case StatusOutOfStock, StatusExpired:
		return "critical"
	case StatusLowStock, StatusExpiresSoon:
		return "warning"
	default:
		return ""
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
