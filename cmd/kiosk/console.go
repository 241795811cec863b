package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"feastline/internal/domains/voice/model"
	voiceService "feastline/internal/domains/voice/service"
)

const (
	commandAccept  = "accept"
	commandReject  = "reject"
	commandRefresh = "refresh"
	commandStatus  = "status"
	commandQuit    = "quit"
)

// console drives one voice session from line commands.
type console struct {
	voice voiceService.Voice
	token string
	id    string
	out   io.Writer
}

// run reads commands until quit, end of input or ctx cancellation.
func (c *console) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || !c.execute(ctx, strings.ToLower(strings.TrimSpace(line))) {
				return
			}
		}
	}
}

// execute runs one command and reports whether the console keeps going.
func (c *console) execute(ctx context.Context, command string) bool {
	var (
		status model.Status
		err    error
	)

	switch command {
	case "":
		return true
	case commandAccept:
		status, err = c.voice.Accept(ctx, c.token, c.id)
	case commandReject:
		status, err = c.voice.Reject(ctx, c.token, c.id)
	case commandRefresh:
		status, err = c.voice.Refresh(ctx, c.token, c.id)
	case commandStatus:
		status, err = c.voice.Status(ctx, c.token, c.id)
	case commandQuit:
		return false
	default:
		fmt.Fprintf(c.out, "unknown command %q, use accept, reject, refresh, status or quit\n", command)

		return true
	}

	if err != nil {
		fmt.Fprintf(c.out, "%s failed: %v\n", command, err)

		return true
	}

	fmt.Fprint(c.out, formatStatus(status))

	return true
}

func formatStatus(status model.Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]\n", status.Display)

	if draft := status.PendingDraft; draft != nil && status.ConfirmationState == model.ConfirmationAwaiting {
		fmt.Fprintf(&b, "  %s for %s on %s, slot %d, %d persons\n", draft.EventName, draft.CustomerName, draft.Date, draft.TimeSlotID, draft.PersonsCount)
		fmt.Fprintf(&b, "  cuisine %d, menu items %v\n", draft.CuisineID, draft.MenuItemIDs)
		fmt.Fprintf(&b, "  type accept or reject\n")
	}

	if summary := status.Summary; summary != nil {
		fmt.Fprintf(&b, "  booking %s: %s for %s on %s, %s %s-%s, %d persons, %s\n",
			summary.BookingID, summary.EventName, summary.CustomerName, summary.Date,
			summary.TimeSlot, summary.StartTime, summary.EndTime, summary.PersonsCount, summary.Cuisine)

		for _, item := range summary.Items {
			fmt.Fprintf(&b, "    %s: %s\n", item.Category, item.Name)
		}

		if summary.FixedPricePerPerson != nil {
			fmt.Fprintf(&b, "  fixed price per person %.2f\n", *summary.FixedPricePerPerson)
		}
	}

	return b.String()
}

// watch prints every display change until updates closes.
func (c *console) watch(updates <-chan model.Status) {
	var last string

	for status := range updates {
		if status.Display == last && status.Summary == nil {
			continue
		}

		last = status.Display

		fmt.Fprint(c.out, formatStatus(status))
	}
}
