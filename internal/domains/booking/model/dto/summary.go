package dto

import (
	"feastline/internal/domains/booking/model"
	catalogModel "feastline/internal/domains/catalog/model"
)

// BuildSummary resolves the draft's identifiers against the catalog for display. No total price is
// computed: the cuisine's fixed price per person is shown when set, item prices otherwise.
func BuildSummary(draft model.Draft, snap *catalogModel.Snapshot, bookingID string) model.Summary {
	summary := model.Summary{
		BookingID:       bookingID,
		CustomerName:    draft.CustomerName,
		CustomerContact: draft.CustomerContact,
		CustomerEmail:   draft.CustomerEmail,
		EventName:       draft.EventName,
		Date:            draft.Date,
		PersonsCount:    draft.PersonsCount,
		Items:           []model.SummaryItem{},
		Extras:          []string{},
	}

	if slot, ok := snap.Slot(draft.TimeSlotID); ok {
		summary.TimeSlot = slot.Name
		summary.StartTime = slot.StartTime
		summary.EndTime = slot.EndTime
	}

	if cuisine, ok := snap.Cuisine(draft.CuisineID); ok {
		summary.Cuisine = cuisine.Name
		summary.FixedPricePerPerson = cuisine.FixedPricePerPerson
	}

	for _, id := range draft.MenuItemIDs {
		item, ok := snap.Item(id)
		if !ok {
			continue
		}

		entry := model.SummaryItem{ID: item.ID, Name: item.Name}
		if category, ok := snap.Category(item.MenuCategoryID); ok {
			entry.Category = category.Name
		}

		if summary.FixedPricePerPerson == nil {
			entry.Price = item.Price
		}

		summary.Items = append(summary.Items, entry)
	}

	for _, extra := range draft.Extras {
		summary.Extras = append(summary.Extras, extra.Name)
	}

	return summary
}
