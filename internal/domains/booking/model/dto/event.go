package dto

import (
	"time"

	"feastline/internal/domains/booking/model"
)

// CommittedEvent is published once the commit endpoint accepted a booking.
type CommittedEvent struct {
	BookingID    string    `json:"booking_id"`
	Date         string    `json:"date"`
	TimeSlotID   int64     `json:"time_slot_id"`
	PersonsCount int       `json:"persons_count"`
	CuisineID    int64     `json:"cuisine_id"`
	MenuItemIDs  []int64   `json:"menu_item_ids"`
	Owner        string    `json:"owner"`
	CommittedAt  time.Time `json:"committed_at"`
}

func (e *CommittedEvent) FromModel(booking model.Booking, owner string, at time.Time) {
	e.BookingID = booking.ID
	e.Date = booking.Date
	e.TimeSlotID = booking.TimeSlotID
	e.PersonsCount = booking.PersonsCount
	e.CuisineID = booking.CuisineID
	e.MenuItemIDs = booking.MenuItemIDs
	e.Owner = owner
	e.CommittedAt = at
}
