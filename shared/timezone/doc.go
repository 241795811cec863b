// Package timezone resolves wall-clock and calendar dates in the application timezone.
//
// Booking dates are civil dates ("2006-01-02") interpreted in the zone configured by
// APP_TIMEZONE. Use ParseDate and DateKey for them rather than time.Parse, so that a
// date typed by a customer in one zone is never shifted into the previous day.
//
//	now := timezone.Now()
//	day, err := timezone.ParseDate("2025-03-10")
//	key := timezone.DateKey(day) // "2025-03-10"
//	first, last := timezone.MonthBounds(day)
//
// The timezone is loaded when the package is imported; an unknown name falls back to UTC.
package timezone
