package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	availabilityModel "feastline/internal/domains/availability/model"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/shared/constant"
	"feastline/shared/timezone"
)

type promptItem struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
}

type promptCategory struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Items []promptItem `json:"items"`
}

type promptCuisine struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	FixedPricePerPerson *float64         `json:"fixed_price_per_person,omitempty"`
	Categories          []promptCategory `json:"menu_categories"`
}

// catalogTree nests the snapshot as cuisines, then menu categories, then menu items.
// Categories without items of a cuisine are left out of that cuisine.
func catalogTree(snap *catalogModel.Snapshot) []promptCuisine {
	tree := make([]promptCuisine, 0, len(snap.Cuisines))

	for _, cuisine := range snap.Cuisines {
		grouped := snap.ItemsOf(cuisine.ID)
		node := promptCuisine{
			ID:                  cuisine.ID,
			Name:                cuisine.Name,
			FixedPricePerPerson: cuisine.FixedPricePerPerson,
			Categories:          []promptCategory{},
		}

		for _, category := range snap.Categories {
			items := grouped[category.ID]
			if len(items) == 0 {
				continue
			}

			cat := promptCategory{ID: category.ID, Name: category.Name, Items: make([]promptItem, 0, len(items))}
			for _, item := range items {
				cat.Items = append(cat.Items, promptItem{ID: item.ID, Name: item.Name, Price: item.Price})
			}

			node.Categories = append(node.Categories, cat)
		}

		tree = append(tree, node)
	}

	return tree
}

// BuildSystemInstruction renders the agent's instructions from the month's availability and the catalog.
func BuildSystemInstruction(snap *catalogModel.Snapshot, days []availabilityModel.DayAvailability, now time.Time) (string, error) {
	catalog, err := json.MarshalIndent(catalogTree(snap), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode catalog: %w", err)
	}

	today := timezone.ToAppTime(now)

	var b strings.Builder

	fmt.Fprintf(&b, "You are the voice booking assistant of a catering business. Today is %s, %s.\n",
		availabilityModel.WeekdayName(availabilityModel.CanonicalWeekday(today)), today.Format(constant.CivilDateFormat))
	b.WriteString("Help the customer choose a date, a time slot, a cuisine and its menu, then collect their full name, " +
		"email address, phone number, an optional event address, a name for the event and the number of guests.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Only offer dates and time slots listed as free below. Never offer a date in the past.\n")
	b.WriteString("- Every menu item must belong to the chosen cuisine, and at most one item may be picked per menu category.\n")
	b.WriteString("- Use the numeric ids below when calling " + ProposeBookingName + ".\n")
	b.WriteString("- Once every detail is agreed, call " + ProposeBookingName + ". The customer then confirms or rejects it on screen. " +
		"Never say the booking is confirmed before you are told so.\n")
	b.WriteString("- If " + ProposeBookingName + " returns an error, explain it to the customer in plain words and help them fix it.\n\n")

	fmt.Fprintf(&b, "Availability from %s to %s:\n", timezone.DateKey(snap.From), timezone.DateKey(snap.To))
	b.WriteString(AvailabilityLines(days))

	b.WriteString("\nCatalog (cuisines, their menu categories and items):\n")
	b.Write(catalog)
	b.WriteString("\n")

	return b.String(), nil
}

// AvailabilityLines renders one line per day, for example "2025-03-10 Monday: free Lunch (id 5); already booked Dinner".
func AvailabilityLines(days []availabilityModel.DayAvailability) string {
	var b strings.Builder

	for _, day := range days {
		fmt.Fprintf(&b, "%s %s: %s\n", day.Date, availabilityModel.WeekdayName(day.Weekday), describeDay(day))
	}

	return b.String()
}

func describeDay(day availabilityModel.DayAvailability) string {
	switch day.Status {
	case availabilityModel.StatusNoSlots:
		return "no time slots offered"
	case availabilityModel.StatusFullyBooked:
		return "fully booked"
	}

	free := make([]string, 0, len(day.FreeSlots))
	for _, slot := range day.FreeSlots {
		free = append(free, describeSlot(slot))
	}

	booked := []string{}
	for _, slot := range day.AllSlots {
		if !day.IsFree(slot.ID) {
			booked = append(booked, slot.Name)
		}
	}

	text := "free " + strings.Join(free, ", ")
	if len(booked) > 0 {
		text += "; already booked " + strings.Join(booked, ", ")
	}

	return text
}

func describeSlot(slot catalogModel.TimeSlot) string {
	if slot.StartTime == "" || slot.EndTime == "" {
		return fmt.Sprintf("%s (id %d)", slot.Name, slot.ID)
	}

	return fmt.Sprintf("%s (id %d, %s-%s)", slot.Name, slot.ID, slot.StartTime, slot.EndTime)
}
