package model

import (
	"time"

	catalogModel "feastline/internal/domains/catalog/model"
)

type Status string

const (
	StatusNoSlots         Status = "no-slots"
	StatusFullyFree       Status = "fully-free"
	StatusPartiallyBooked Status = "partially-booked"
	StatusFullyBooked     Status = "fully-booked"
)

// Bookable reports whether at least one slot is free on the day.
func (s Status) Bookable() bool {
	return s == StatusFullyFree || s == StatusPartiallyBooked
}

// DayAvailability is derived on demand and never stored.
type DayAvailability struct {
	Date      string                  `json:"date"`
	Weekday   int                     `json:"weekday"`
	Status    Status                  `json:"status"`
	FreeSlots []catalogModel.TimeSlot `json:"free_slots"`
	AllSlots  []catalogModel.TimeSlot `json:"all_slots"`
}

// IsFree reports whether slotID is among the free slots of the day.
func (d DayAvailability) IsFree(slotID int64) bool {
	for _, s := range d.FreeSlots {
		if s.ID == slotID {
			return true
		}
	}

	return false
}

// CanonicalWeekday maps t to Monday=0 through Sunday=6.
func CanonicalWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func WeekdayName(index int) string {
	if index < 0 || index > 6 {
		return ""
	}

	return weekdayNames[index]
}
