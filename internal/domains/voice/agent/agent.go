package agent

//go:generate go run go.uber.org/mock/mockgen -source=./agent.go -destination=../mocks/agent_mock.go -package=mocks

import (
	"context"
	"fmt"

	"feastline/internal/domains/voice/model"

	"google.golang.org/genai"
)

const ProposeBookingName = "propose_booking"

// Setup is the one-time configuration sent when a connection opens.
type Setup struct {
	SystemInstruction string
	Functions         []*genai.FunctionDeclaration
}

type Kind int

const (
	KindAudio Kind = iota + 1
	KindFunctionCall
	KindInterrupted
	KindLifecycle
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindFunctionCall:
		return "function-call"
	case KindInterrupted:
		return "interrupted"
	case KindLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

type Lifecycle string

const (
	LifecycleSetupComplete     Lifecycle = "setup-complete"
	LifecycleTurnComplete      Lifecycle = "turn-complete"
	LifecycleToolCallCancelled Lifecycle = "tool-call-cancelled"
	LifecycleGoAway            Lifecycle = "go-away"
	LifecycleClosed            Lifecycle = "closed"
)

// AudioDelta is mono PCM16 LE audio from the agent.
type AudioDelta struct {
	Data       []byte
	SampleRate int
}

type FunctionCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Inbound is one message from the agent. A well formed message carries exactly one payload.
type Inbound struct {
	Audio       *AudioDelta
	Call        *FunctionCall
	Interrupted bool
	Lifecycle   Lifecycle
}

func (m Inbound) Kind() (Kind, error) {
	kinds := []Kind{}

	if m.Audio != nil {
		kinds = append(kinds, KindAudio)
	}

	if m.Call != nil {
		kinds = append(kinds, KindFunctionCall)
	}

	if m.Interrupted {
		kinds = append(kinds, KindInterrupted)
	}

	if m.Lifecycle != "" {
		kinds = append(kinds, KindLifecycle)
	}

	if len(kinds) != 1 {
		return 0, fmt.Errorf("%w: message carries %d payloads", model.ErrProtocolAnomaly, len(kinds))
	}

	return kinds[0], nil
}

type ToolResponse struct {
	CallID string
	Name   string
	Result map[string]any
}

// Conn is an open duplex connection to the agent. Sends are safe for concurrent use;
// Receive must be called from a single goroutine.
type Conn interface {
	SendAudio(ctx context.Context, frame []byte) error
	SendText(ctx context.Context, text string) error
	SendToolResponse(ctx context.Context, resp ToolResponse) error
	Receive() (Inbound, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, setup Setup) (Conn, error)
}

// ProposeBookingDeclaration is the only function the agent may call.
func ProposeBookingDeclaration() *genai.FunctionDeclaration {
	str := func(description string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: description}
	}

	integer := func(description string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeInteger, Description: description}
	}

	return &genai.FunctionDeclaration{
		Name:        ProposeBookingName,
		Description: "Propose a catering booking once every detail is agreed. The customer confirms it on screen; the booking is not final until then.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"customer_name":    str("Full name of the customer"),
				"customer_email":   str("Email address of the customer"),
				"customer_contact": str("Phone number of the customer"),
				"customer_address": str("Event address, optional"),
				"event_name":       str("Short name of the event"),
				"date":             str("Event date, YYYY-MM-DD"),
				"time_slot_id":     integer("Id of a free time slot on that date"),
				"persons_count":    integer("Number of guests"),
				"cuisine_id":       integer("Id of the chosen cuisine"),
				"selected_menu_item_ids": {
					Type:        genai.TypeArray,
					Description: "Menu item ids, all from the chosen cuisine, at most one per menu category",
					Items:       &genai.Schema{Type: genai.TypeInteger},
				},
				"extras": {
					Type:        genai.TypeArray,
					Description: "Additional requests",
					Items: &genai.Schema{
						Type:       genai.TypeObject,
						Properties: map[string]*genai.Schema{"name": str("What is requested")},
						Required:   []string{"name"},
					},
				},
			},
			Required: []string{
				"customer_name", "customer_email", "customer_contact", "event_name", "date",
				"time_slot_id", "persons_count", "cuisine_id", "selected_menu_item_ids",
			},
		},
	}
}
