package service_test

import (
	"testing"
	"time"

	"feastline/internal/domains/availability/model"
	"feastline/internal/domains/availability/service"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/shared/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()

	day, err := timezone.ParseDate(value)
	require.NoError(t, err)

	return day
}

func slotIDs(slots []catalogModel.TimeSlot) []int64 {
	ids := []int64{}
	for _, s := range slots {
		ids = append(ids, s.ID)
	}

	return ids
}

func TestCompute_MondayScenario(t *testing.T) {
	day := mustDate(t, "2025-03-10")
	slots := []catalogModel.TimeSlot{{ID: 5, Name: "Lunch", Weekdays: []int{0, 2}}}

	free := service.Compute(day, slots, nil)

	assert.Equal(t, 0, free.Weekday)
	assert.Equal(t, "2025-03-10", free.Date)
	assert.Equal(t, model.StatusFullyFree, free.Status)
	assert.Equal(t, []int64{5}, slotIDs(free.FreeSlots))

	booked := service.Compute(day, slots, []catalogModel.BookedEvent{{ID: 1, Date: "2025-03-10", TimeSlotID: 5}})

	assert.Equal(t, model.StatusFullyBooked, booked.Status)
	assert.Empty(t, booked.FreeSlots)
	assert.Equal(t, []int64{5}, slotIDs(booked.AllSlots))
}

func TestCompute(t *testing.T) {
	slots := []catalogModel.TimeSlot{
		{ID: 1, Name: "Breakfast", Weekdays: []int{0, 1, 2, 3, 4}},
		{ID: 2, Name: "Lunch", Weekdays: []int{0, 5}},
		{ID: 3, Name: "Dinner", Weekdays: []int{5, 6}},
	}

	tests := []struct {
		name     string
		date     string
		events   []catalogModel.BookedEvent
		status   model.Status
		free     []int64
		offered  []int64
		bookable bool
	}{
		{
			name:     "monday with nothing booked",
			date:     "2025-03-10",
			status:   model.StatusFullyFree,
			free:     []int64{1, 2},
			offered:  []int64{1, 2},
			bookable: true,
		},
		{
			name:     "monday with one slot booked",
			date:     "2025-03-10",
			events:   []catalogModel.BookedEvent{{Date: "2025-03-10", TimeSlotID: 2}},
			status:   model.StatusPartiallyBooked,
			free:     []int64{1},
			offered:  []int64{1, 2},
			bookable: true,
		},
		{
			name: "monday fully booked",
			date: "2025-03-10",
			events: []catalogModel.BookedEvent{
				{Date: "2025-03-10", TimeSlotID: 1},
				{Date: "2025-03-10", TimeSlotID: 2},
			},
			status:  model.StatusFullyBooked,
			free:    []int64{},
			offered: []int64{1, 2},
		},
		{
			name:    "sunday offers only dinner",
			date:    "2025-03-16",
			status:  model.StatusFullyFree,
			free:    []int64{3},
			offered: []int64{3},
			events:  []catalogModel.BookedEvent{{Date: "2025-03-10", TimeSlotID: 3}},
			// events of other dates never count
			bookable: true,
		},
		{
			name:    "booking a slot that is not offered that day changes nothing",
			date:    "2025-03-11",
			events:  []catalogModel.BookedEvent{{Date: "2025-03-11", TimeSlotID: 3}},
			status:  model.StatusFullyFree,
			free:    []int64{1},
			offered: []int64{1},
			// tuesday
			bookable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Compute(mustDate(t, tt.date), slots, tt.events)

			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.free, slotIDs(got.FreeSlots))
			assert.Equal(t, tt.offered, slotIDs(got.AllSlots))
			assert.Equal(t, tt.bookable, got.Status.Bookable())
		})
	}
}

func TestCompute_NoSlotsRegardlessOfBookings(t *testing.T) {
	day := mustDate(t, "2025-03-12")
	slots := []catalogModel.TimeSlot{{ID: 7, Weekdays: []int{5, 6}}}

	tests := []struct {
		name   string
		events []catalogModel.BookedEvent
	}{
		{name: "no events"},
		{name: "events on the same date", events: []catalogModel.BookedEvent{{Date: "2025-03-12", TimeSlotID: 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Compute(day, slots, tt.events)

			assert.Equal(t, model.StatusNoSlots, got.Status)
			assert.Empty(t, got.AllSlots)
			assert.False(t, got.Status.Bookable())
		})
	}
}

func TestCompute_FullyBookedIffEveryOfferedSlotIsTaken(t *testing.T) {
	slots := []catalogModel.TimeSlot{
		{ID: 1, Weekdays: []int{0, 1, 2, 3, 4, 5, 6}},
		{ID: 2, Weekdays: []int{0, 1, 2, 3, 4, 5, 6}},
		{ID: 3, Weekdays: []int{0, 1, 2, 3, 4, 5, 6}},
	}
	day := mustDate(t, "2025-03-14")

	for mask := 0; mask < 8; mask++ {
		events := []catalogModel.BookedEvent{}
		for bit := 0; bit < 3; bit++ {
			if mask&(1<<bit) != 0 {
				events = append(events, catalogModel.BookedEvent{Date: "2025-03-14", TimeSlotID: int64(bit + 1)})
			}
		}

		got := service.Compute(day, slots, events)

		assert.Equal(t, mask == 7, got.Status == model.StatusFullyBooked, "mask %03b", mask)
		assert.Equal(t, mask == 0, got.Status == model.StatusFullyFree, "mask %03b", mask)
		assert.Len(t, got.FreeSlots, 3-len(events))
	}
}

func TestComputeRange(t *testing.T) {
	slots := []catalogModel.TimeSlot{{ID: 5, Weekdays: []int{0, 2}}}
	events := []catalogModel.BookedEvent{{Date: "2025-03-10", TimeSlotID: 5}}

	days := service.ComputeRange(mustDate(t, "2025-03-01"), mustDate(t, "2025-03-31"), slots, events)

	require.Len(t, days, 31)
	assert.Equal(t, "2025-03-01", days[0].Date)
	assert.Equal(t, "2025-03-31", days[30].Date)
	assert.Equal(t, model.StatusNoSlots, days[0].Status)
	assert.Equal(t, model.StatusFullyBooked, days[9].Status)
	assert.Equal(t, model.StatusFullyFree, days[11].Status)
}

func TestForSnapshot(t *testing.T) {
	snap := catalogModel.NewSnapshot(catalogModel.SnapshotData{
		From:      mustDate(t, "2025-02-01"),
		To:        mustDate(t, "2025-02-28"),
		TimeSlots: []catalogModel.TimeSlot{{ID: 1, Weekdays: []int{6}}},
	})

	days := service.ForSnapshot(snap)

	require.Len(t, days, 28)
	assert.Equal(t, model.StatusFullyFree, days[1].Status)
	assert.Equal(t, 6, days[1].Weekday)
}
