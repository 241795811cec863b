package dto

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"feastline/internal/domains/booking/model"
	"feastline/shared/validator"

	"github.com/mitchellh/mapstructure"
)

// ProposeBookingArgs is the argument set of the propose_booking function call.
type ProposeBookingArgs struct {
	CustomerName    string        `mapstructure:"customer_name"          json:"customer_name"          validate:"required,max=100"`
	CustomerEmail   string        `mapstructure:"customer_email"         json:"customer_email"         validate:"required,email,max=100"`
	CustomerContact string        `mapstructure:"customer_contact"       json:"customer_contact"       validate:"required,max=50"`
	CustomerAddress string        `mapstructure:"customer_address"       json:"customer_address"       validate:"omitempty,max=255"`
	EventName       string        `mapstructure:"event_name"             json:"event_name"             validate:"required,max=100"`
	Date            string        `mapstructure:"date"                   json:"date"                   validate:"required,civildate"`
	TimeSlotID      int64         `mapstructure:"time_slot_id"           json:"time_slot_id"           validate:"required,gt=0"`
	PersonsCount    int           `mapstructure:"persons_count"          json:"persons_count"          validate:"required,gt=0"`
	CuisineID       int64         `mapstructure:"cuisine_id"             json:"cuisine_id"             validate:"required,gt=0"`
	MenuItemIDs     []int64       `mapstructure:"selected_menu_item_ids" json:"selected_menu_item_ids" validate:"required,min=1,dive,gt=0"`
	Extras          []model.Extra `mapstructure:"extras"                 json:"extras"                 validate:"omitempty,dive"`
}

var extraType = reflect.TypeOf(model.Extra{})

// wholeNumberHook refuses fractional numbers and accepts numeric strings for integer fields.
func wholeNumberHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}

	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%v is not a whole number", data)
		}

		return int64(f), nil
	case reflect.String:
		n, err := strconv.ParseInt(strings.TrimSpace(data.(string)), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", data)
		}

		return n, nil
	default:
		return data, nil
	}
}

// extraNameHook lets an extra be given as a bare name.
func extraNameHook(from, to reflect.Type, data any) (any, error) {
	if to != extraType || from.Kind() != reflect.String {
		return data, nil
	}

	return map[string]any{"name": data}, nil
}

// DecodeProposeBookingArgs turns the untyped function-call arguments into typed, validated args.
// Every failure is a model.Rejection whose message can be read back to the customer.
func DecodeProposeBookingArgs(raw map[string]any) (ProposeBookingArgs, error) {
	var args ProposeBookingArgs

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(wholeNumberHook, extraNameHook),
		Result:     &args,
	})
	if err != nil {
		return args, fmt.Errorf("failed to build argument decoder: %w", err)
	}

	if err = decoder.Decode(raw); err != nil {
		return args, model.Reject("the booking details are malformed: " + decodeMessage(err))
	}

	args.normalize()

	if err = validator.ValidateStruct(&args); err != nil {
		return args, model.Reject(err.Error())
	}

	for _, extra := range args.Extras {
		if extra.Name == "" {
			return args, model.Reject("extras must each have a name")
		}
	}

	return args, nil
}

func decodeMessage(err error) string {
	var mErr *mapstructure.Error
	if errors.As(err, &mErr) {
		return strings.Join(mErr.Errors, "; ")
	}

	return err.Error()
}

func (a *ProposeBookingArgs) normalize() {
	a.CustomerName = strings.TrimSpace(a.CustomerName)
	a.CustomerEmail = strings.TrimSpace(a.CustomerEmail)
	a.CustomerContact = strings.TrimSpace(a.CustomerContact)
	a.CustomerAddress = strings.TrimSpace(a.CustomerAddress)
	a.EventName = strings.TrimSpace(a.EventName)
	a.Date = strings.TrimSpace(a.Date)

	for i := range a.Extras {
		a.Extras[i].Name = strings.TrimSpace(a.Extras[i].Name)
	}
}

func (a *ProposeBookingArgs) ToDraft() model.Draft {
	extras := make([]model.Extra, len(a.Extras))
	copy(extras, a.Extras)

	items := make([]int64, len(a.MenuItemIDs))
	copy(items, a.MenuItemIDs)

	return model.Draft{
		CustomerName:    a.CustomerName,
		CustomerContact: a.CustomerContact,
		CustomerEmail:   a.CustomerEmail,
		CustomerAddress: a.CustomerAddress,
		EventName:       a.EventName,
		Date:            a.Date,
		TimeSlotID:      a.TimeSlotID,
		PersonsCount:    a.PersonsCount,
		CuisineID:       a.CuisineID,
		MenuItemIDs:     items,
		Extras:          extras,
	}
}

// CommitRequest is the payload of the booking commit endpoint.
type CommitRequest struct {
	Name            string        `json:"name"`
	Date            string        `json:"date"`
	TimeSlotID      int64         `json:"time_slot_id"`
	PersonsCount    int           `json:"persons_count"`
	CustomerName    string        `json:"customer_name"`
	CustomerContact string        `json:"customer_contact"`
	CustomerEmail   string        `json:"customer_email"`
	CustomerAddress string        `json:"customer_address,omitempty"`
	CuisineID       int64         `json:"cuisine_id"`
	MenuItemIDs     []int64       `json:"menu_item_ids"`
	Extras          []model.Extra `json:"extras"`
}

func (c *CommitRequest) FromDraft(draft model.Draft) {
	c.Name = draft.EventName
	c.Date = draft.Date
	c.TimeSlotID = draft.TimeSlotID
	c.PersonsCount = draft.PersonsCount
	c.CustomerName = draft.CustomerName
	c.CustomerContact = draft.CustomerContact
	c.CustomerEmail = draft.CustomerEmail
	c.CustomerAddress = draft.CustomerAddress
	c.CuisineID = draft.CuisineID
	c.MenuItemIDs = draft.MenuItemIDs
	c.Extras = draft.Extras

	if c.Extras == nil {
		c.Extras = []model.Extra{}
	}
}

// CommitResponse is the persisted event as returned by the commit endpoint.
type CommitResponse struct {
	ID any `json:"id"`
}

// ToModel pins the booking to the draft's values; only the identifier comes from the endpoint.
func (c *CommitResponse) ToModel(draft model.Draft) model.Booking {
	id := ""
	switch v := c.ID.(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	case nil:
	default:
		id = fmt.Sprint(v)
	}

	items := make([]int64, len(draft.MenuItemIDs))
	copy(items, draft.MenuItemIDs)

	return model.Booking{
		ID:           id,
		Date:         draft.Date,
		TimeSlotID:   draft.TimeSlotID,
		PersonsCount: draft.PersonsCount,
		CuisineID:    draft.CuisineID,
		MenuItemIDs:  items,
	}
}
