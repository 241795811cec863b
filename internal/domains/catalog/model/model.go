package model

import (
	"slices"
	"time"
)

const EntityName = "catalog"

// TimeSlot is a bookable part of the day. Weekdays holds canonical indices, Monday=0 through Sunday=6.
type TimeSlot struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Weekdays  []int  `json:"weekdays"`
}

func (t TimeSlot) OffersOn(weekday int) bool {
	return slices.Contains(t.Weekdays, weekday)
}

// BookedEvent is an already persisted booking. Date is a civil date, YYYY-MM-DD.
type BookedEvent struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	TimeSlotID   int64  `json:"time_slot_id"`
	Name         string `json:"name"`
	CustomerName string `json:"customer_name"`
}

type Cuisine struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	FixedPricePerPerson *float64 `json:"fixed_price_per_person,omitempty"`
}

type MenuCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MenuItem struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Price          *float64 `json:"price,omitempty"`
	CuisineID      int64    `json:"cuisine_id"`
	MenuCategoryID int64    `json:"menu_category_id"`
}

// Snapshot is the read-only catalog and calendar state a voice session validates against.
// It is never mutated after construction; a refresh builds a new one.
type Snapshot struct {
	From       time.Time
	To         time.Time
	LoadedAt   time.Time
	TimeSlots  []TimeSlot
	Events     []BookedEvent
	Cuisines   []Cuisine
	Categories []MenuCategory
	Items      []MenuItem

	slots      map[int64]TimeSlot
	cuisines   map[int64]Cuisine
	categories map[int64]MenuCategory
	items      map[int64]MenuItem
	eventsOn   map[string][]BookedEvent
}

type SnapshotData struct {
	From       time.Time
	To         time.Time
	LoadedAt   time.Time
	TimeSlots  []TimeSlot
	Events     []BookedEvent
	Cuisines   []Cuisine
	Categories []MenuCategory
	Items      []MenuItem
}

func NewSnapshot(data SnapshotData) *Snapshot {
	snap := &Snapshot{
		From:       data.From,
		To:         data.To,
		LoadedAt:   data.LoadedAt,
		TimeSlots:  data.TimeSlots,
		Events:     data.Events,
		Cuisines:   data.Cuisines,
		Categories: data.Categories,
		Items:      data.Items,
		slots:      make(map[int64]TimeSlot, len(data.TimeSlots)),
		cuisines:   make(map[int64]Cuisine, len(data.Cuisines)),
		categories: make(map[int64]MenuCategory, len(data.Categories)),
		items:      make(map[int64]MenuItem, len(data.Items)),
		eventsOn:   make(map[string][]BookedEvent),
	}

	for _, s := range data.TimeSlots {
		snap.slots[s.ID] = s
	}

	for _, c := range data.Cuisines {
		snap.cuisines[c.ID] = c
	}

	for _, c := range data.Categories {
		snap.categories[c.ID] = c
	}

	for _, i := range data.Items {
		snap.items[i.ID] = i
	}

	for _, e := range data.Events {
		snap.eventsOn[e.Date] = append(snap.eventsOn[e.Date], e)
	}

	return snap
}

func (s *Snapshot) Slot(id int64) (TimeSlot, bool) {
	slot, ok := s.slots[id]
	return slot, ok
}

func (s *Snapshot) Cuisine(id int64) (Cuisine, bool) {
	c, ok := s.cuisines[id]
	return c, ok
}

func (s *Snapshot) Category(id int64) (MenuCategory, bool) {
	c, ok := s.categories[id]
	return c, ok
}

func (s *Snapshot) Item(id int64) (MenuItem, bool) {
	i, ok := s.items[id]
	return i, ok
}

// EventsOn returns the booked events for a civil date.
func (s *Snapshot) EventsOn(date string) []BookedEvent {
	return s.eventsOn[date]
}

// Covers reports whether day lies inside the loaded calendar window.
func (s *Snapshot) Covers(day time.Time) bool {
	return !day.Before(s.From) && !day.After(s.To)
}

// ItemsOf returns the menu items of a cuisine grouped by category id, in catalog order.
func (s *Snapshot) ItemsOf(cuisineID int64) map[int64][]MenuItem {
	grouped := map[int64][]MenuItem{}

	for _, item := range s.Items {
		if item.CuisineID == cuisineID {
			grouped[item.MenuCategoryID] = append(grouped[item.MenuCategoryID], item)
		}
	}

	return grouped
}

// Booked reports whether slot is taken on date.
func (s *Snapshot) Booked(date string, slotID int64) bool {
	return slices.ContainsFunc(s.eventsOn[date], func(e BookedEvent) bool {
		return e.TimeSlotID == slotID
	})
}

// WithEvents returns a copy of the snapshot that also holds events. Events whose date and slot
// are already booked are skipped; s itself is left untouched.
func (s *Snapshot) WithEvents(events ...BookedEvent) *Snapshot {
	merged := slices.Clone(s.Events)

	for _, e := range events {
		added := slices.ContainsFunc(merged[len(s.Events):], func(m BookedEvent) bool {
			return m.Date == e.Date && m.TimeSlotID == e.TimeSlotID
		})

		if !added && !s.Booked(e.Date, e.TimeSlotID) {
			merged = append(merged, e)
		}
	}

	if len(merged) == len(s.Events) {
		return s
	}

	return NewSnapshot(SnapshotData{
		From:       s.From,
		To:         s.To,
		LoadedAt:   s.LoadedAt,
		TimeSlots:  s.TimeSlots,
		Events:     merged,
		Cuisines:   s.Cuisines,
		Categories: s.Categories,
		Items:      s.Items,
	})
}
