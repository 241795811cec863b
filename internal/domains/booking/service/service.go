package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"fmt"
	"strings"

	"feastline/config"
	"feastline/infras/kafka"
	"feastline/infras/otel"
	availabilityModel "feastline/internal/domains/availability/model"
	availability "feastline/internal/domains/availability/service"
	"feastline/internal/domains/booking/model"
	"feastline/internal/domains/booking/model/dto"
	"feastline/internal/domains/booking/repository"
	catalogModel "feastline/internal/domains/catalog/model"
	"feastline/shared"
	"feastline/shared/constant"
	"feastline/shared/timezone"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Booking interface {
	// Propose validates raw function-call arguments against snap and returns the draft.
	// Checks run in order and stop at the first failure, which is returned as a *model.Rejection.
	Propose(ctx context.Context, args map[string]any, snap *catalogModel.Snapshot) (model.Draft, error)
	// Commit persists a confirmed draft. Failures wrap a *model.CommitError.
	Commit(ctx context.Context, token string, draft model.Draft, snap *catalogModel.Snapshot) (model.Confirmation, error)
}

type serviceImpl struct {
	committer repository.Committer
	kafka     kafka.Client
	cfg       *config.Config
	otel      otel.Otel
	clock     clockwork.Clock
}

func New(committer repository.Committer, kafka kafka.Client, cfg *config.Config, otel otel.Otel, clock clockwork.Clock) Booking {
	return &serviceImpl{
		committer: committer,
		kafka:     kafka,
		cfg:       cfg,
		otel:      otel,
		clock:     clock,
	}
}

func (s *serviceImpl) Propose(ctx context.Context, raw map[string]any, snap *catalogModel.Snapshot) (draft model.Draft, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Propose")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	args, err := dto.DecodeProposeBookingArgs(raw)
	if err != nil {
		return draft, err
	}

	draft = args.ToDraft()

	if err = s.checkSlot(draft, snap); err != nil {
		return model.Draft{}, err
	}

	items, err := resolveItems(draft, snap)
	if err != nil {
		return model.Draft{}, err
	}

	if err = checkCuisine(draft, items, snap); err != nil {
		return model.Draft{}, err
	}

	if err = checkCategories(items, snap); err != nil {
		return model.Draft{}, err
	}

	scope.SetAttributes(map[string]any{
		"booking.date":         draft.Date,
		"booking.time_slot_id": draft.TimeSlotID,
		"booking.items":        draft.MenuItemIDs,
	})

	return draft, nil
}

func (s *serviceImpl) checkSlot(draft model.Draft, snap *catalogModel.Snapshot) error {
	day, err := timezone.ParseDate(draft.Date)
	if err != nil {
		return model.Reject(fmt.Sprintf("%s is not a valid date", draft.Date))
	}

	if day.Before(timezone.StartOfDay(s.clock.Now())) {
		return model.Reject(fmt.Sprintf("%s is in the past", draft.Date))
	}

	if !snap.Covers(day) {
		return model.Reject(fmt.Sprintf("%s is outside the bookable calendar, from %s to %s",
			draft.Date, timezone.DateKey(snap.From), timezone.DateKey(snap.To)))
	}

	slot, ok := snap.Slot(draft.TimeSlotID)
	if !ok {
		return model.Reject(fmt.Sprintf("time slot %d does not exist", draft.TimeSlotID))
	}

	dayAvailability := availability.Compute(day, snap.TimeSlots, snap.EventsOn(draft.Date))
	weekday := availabilityModel.WeekdayName(dayAvailability.Weekday)

	switch {
	case dayAvailability.Status == availabilityModel.StatusNoSlots:
		return model.Reject(fmt.Sprintf("no time slots are offered on %s %s", weekday, draft.Date))
	case !slot.OffersOn(dayAvailability.Weekday):
		return model.Reject(fmt.Sprintf("%s is not offered on %s %s, offered slots are %s",
			slot.Name, weekday, draft.Date, slotNames(dayAvailability.AllSlots)))
	case !dayAvailability.IsFree(slot.ID):
		if dayAvailability.Status == availabilityModel.StatusFullyBooked {
			return model.Reject(fmt.Sprintf("%s %s is already booked and the day is fully booked", draft.Date, slot.Name))
		}

		return model.Reject(fmt.Sprintf("%s %s is already booked, free slots are %s",
			draft.Date, slot.Name, slotNames(dayAvailability.FreeSlots)))
	}

	return nil
}

func slotNames(slots []catalogModel.TimeSlot) string {
	names := make([]string, 0, len(slots))
	for _, s := range slots {
		names = append(names, s.Name)
	}

	return strings.Join(names, ", ")
}

func resolveItems(draft model.Draft, snap *catalogModel.Snapshot) ([]catalogModel.MenuItem, error) {
	items := make([]catalogModel.MenuItem, 0, len(draft.MenuItemIDs))
	missing := []string{}

	for _, id := range draft.MenuItemIDs {
		item, ok := snap.Item(id)
		if !ok {
			missing = append(missing, fmt.Sprint(id))
			continue
		}

		items = append(items, item)
	}

	if len(missing) > 0 {
		return nil, model.Reject(fmt.Sprintf("menu items %s do not exist", strings.Join(missing, ", ")))
	}

	return items, nil
}

func checkCuisine(draft model.Draft, items []catalogModel.MenuItem, snap *catalogModel.Snapshot) error {
	cuisineName := func(id int64) string {
		if c, ok := snap.Cuisine(id); ok {
			return c.Name
		}

		return fmt.Sprintf("cuisine %d", id)
	}

	first := items[0]
	for _, item := range items[1:] {
		if item.CuisineID != first.CuisineID {
			return model.Reject(fmt.Sprintf("the menu must be one cuisine, %s is %s but %s is %s",
				first.Name, cuisineName(first.CuisineID), item.Name, cuisineName(item.CuisineID)))
		}
	}

	if _, ok := snap.Cuisine(draft.CuisineID); !ok {
		return model.Reject(fmt.Sprintf("the menu must be one cuisine, cuisine %d does not exist", draft.CuisineID))
	}

	if first.CuisineID != draft.CuisineID {
		return model.Reject(fmt.Sprintf("the menu must be one cuisine, the selected items are %s but %s was chosen",
			cuisineName(first.CuisineID), cuisineName(draft.CuisineID)))
	}

	return nil
}

func checkCategories(items []catalogModel.MenuItem, snap *catalogModel.Snapshot) error {
	seen := map[int64]catalogModel.MenuItem{}

	for _, item := range items {
		if other, ok := seen[item.MenuCategoryID]; ok {
			if other.ID == item.ID {
				return model.Reject(fmt.Sprintf("only one item per menu, %s was chosen twice", item.Name))
			}

			category := fmt.Sprintf("category %d", item.MenuCategoryID)
			if c, ok := snap.Category(item.MenuCategoryID); ok {
				category = c.Name
			}

			return model.Reject(fmt.Sprintf("only one item per menu, %s and %s are both %s", other.Name, item.Name, category))
		}

		seen[item.MenuCategoryID] = item
	}

	return nil
}

func (s *serviceImpl) Commit(ctx context.Context, token string, draft model.Draft, snap *catalogModel.Snapshot) (res model.Confirmation, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Commit")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.committer.Commit(ctx, token, draft)
	if err != nil {
		log.Error().Err(err).Msg("failed to commit booking")

		return res, fmt.Errorf("failed to commit booking: %w", err)
	}

	scope.SetAttribute("booking.id", booking.ID)

	var event dto.CommittedEvent
	event.FromModel(booking, shared.HashToken(token), s.clock.Now())

	err = s.kafka.SendMessages(context.WithoutCancel(ctx), s.cfg.Kafka.BookingTopic, kafka.Message{Key: booking.ID, Value: event})
	if err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to publish booking committed event")

		err = nil
	}

	return model.Confirmation{
		Booking: booking,
		Summary: dto.BuildSummary(draft, snap, booking.ID),
	}, nil
}
