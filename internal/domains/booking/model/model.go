package model

import (
	"errors"
)

const (
	EntityName = "booking"
)

var (
	ErrValidationRejected = errors.New("booking proposal rejected")
	ErrCommitFailed       = errors.New("booking commit failed")
)

type Extra struct {
	Name string `json:"name"`
}

// Draft is a fully validated booking awaiting human confirmation. It is never persisted.
type Draft struct {
	CustomerName    string  `json:"customer_name"`
	CustomerContact string  `json:"customer_contact"`
	CustomerEmail   string  `json:"customer_email"`
	CustomerAddress string  `json:"customer_address,omitempty"`
	EventName       string  `json:"event_name"`
	Date            string  `json:"date"`
	TimeSlotID      int64   `json:"time_slot_id"`
	PersonsCount    int     `json:"persons_count"`
	CuisineID       int64   `json:"cuisine_id"`
	MenuItemIDs     []int64 `json:"selected_menu_item_ids"`
	Extras          []Extra `json:"extras"`
}

// Booking is what the commit endpoint persisted.
type Booking struct {
	ID           string  `json:"id"`
	Date         string  `json:"date"`
	TimeSlotID   int64   `json:"time_slot_id"`
	PersonsCount int     `json:"persons_count"`
	CuisineID    int64   `json:"cuisine_id"`
	MenuItemIDs  []int64 `json:"menu_item_ids"`
}

type SummaryItem struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    *float64 `json:"price,omitempty"`
}

type Summary struct {
	BookingID           string        `json:"booking_id,omitempty"`
	CustomerName        string        `json:"customer_name"`
	CustomerContact     string        `json:"customer_contact"`
	CustomerEmail       string        `json:"customer_email"`
	EventName           string        `json:"event_name"`
	Date                string        `json:"date"`
	TimeSlot            string        `json:"time_slot"`
	StartTime           string        `json:"start_time"`
	EndTime             string        `json:"end_time"`
	PersonsCount        int           `json:"persons_count"`
	Cuisine             string        `json:"cuisine"`
	FixedPricePerPerson *float64      `json:"fixed_price_per_person,omitempty"`
	Items               []SummaryItem `json:"items"`
	Extras              []string      `json:"extras"`
}

type Confirmation struct {
	Booking Booking `json:"booking"`
	Summary Summary `json:"summary"`
}

// Rejection is a failed proposal check. Its message is spoken back to the customer by the agent.
type Rejection struct {
	Reason string
}

func Reject(reason string) *Rejection {
	return &Rejection{Reason: reason}
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return ErrValidationRejected
}

// CommitError carries the commit endpoint's message verbatim.
type CommitError struct {
	Code    int
	Message string
}

func (c *CommitError) Error() string {
	return c.Message
}

func (c *CommitError) Unwrap() error {
	return ErrCommitFailed
}
