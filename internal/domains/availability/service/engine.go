package service

import (
	"time"

	"feastline/internal/domains/availability/model"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/shared/timezone"
)

// Compute derives the availability of one civil day. It is pure: the result depends only
// on its arguments, and events for other dates are ignored.
func Compute(day time.Time, slots []catalogModel.TimeSlot, events []catalogModel.BookedEvent) model.DayAvailability {
	date := timezone.DateKey(day)
	weekday := model.CanonicalWeekday(timezone.ToAppTime(day))

	booked := map[int64]struct{}{}
	for _, e := range events {
		if e.Date == date {
			booked[e.TimeSlotID] = struct{}{}
		}
	}

	offered := []catalogModel.TimeSlot{}
	free := []catalogModel.TimeSlot{}

	for _, slot := range slots {
		if !slot.OffersOn(weekday) {
			continue
		}

		offered = append(offered, slot)

		if _, taken := booked[slot.ID]; !taken {
			free = append(free, slot)
		}
	}

	return model.DayAvailability{
		Date:      date,
		Weekday:   weekday,
		Status:    status(len(offered), len(free)),
		FreeSlots: free,
		AllSlots:  offered,
	}
}

func status(offered, free int) model.Status {
	switch {
	case offered == 0:
		return model.StatusNoSlots
	case free == 0:
		return model.StatusFullyBooked
	case free == offered:
		return model.StatusFullyFree
	default:
		return model.StatusPartiallyBooked
	}
}

// ComputeRange runs Compute for every day from first to last inclusive.
func ComputeRange(first, last time.Time, slots []catalogModel.TimeSlot, events []catalogModel.BookedEvent) []model.DayAvailability {
	first = timezone.StartOfDay(first)
	last = timezone.StartOfDay(last)

	days := []model.DayAvailability{}
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		days = append(days, Compute(day, slots, events))
	}

	return days
}

// ForSnapshot computes every day of the snapshot's calendar window.
func ForSnapshot(snap *catalogModel.Snapshot) []model.DayAvailability {
	return ComputeRange(snap.From, snap.To, snap.TimeSlots, snap.Events)
}
