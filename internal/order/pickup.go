package order

import (
	"strings"
	"time"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

// Wire formats expected by the pickup-date endpoint.
const (
	WireDateLayout = "01/02/2006"
	WireTimeLayout = "03:04 PM"
)

var dateLayouts = []string{"2006-01-02", WireDateLayout}

var timeLayouts = []string{WireTimeLayout, "3:04 PM", "15:04"}

// MinPickupDate is the first selectable calendar day, leadDays after now.
func MinPickupDate(now time.Time, leadDays int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+leadDays, 0, 0, 0, 0, now.Location())
}

// PickupSlot is a validated pickup request in wire format.
type PickupSlot struct {
	Date      string
	Time      string
	EventName string
}

// ParsePickup validates user input against the minimum date and converts it
// to the wire formats.
func ParsePickup(now time.Time, leadDays int, date, clock, event string) (PickupSlot, error) {
	date, clock, event = strings.TrimSpace(date), strings.TrimSpace(clock), strings.TrimSpace(event)
	if date == "" {
		return PickupSlot{}, invalid(ErrInvalidPickupDate, "Please select a date")
	}
	var day time.Time
	var err error
	for _, layout := range dateLayouts {
		day, err = time.ParseInLocation(layout, date, now.Location())
		if err == nil {
			break
		}
	}
	if err != nil {
		return PickupSlot{}, invalid(ErrInvalidPickupDate, "Please select a valid date")
	}
	if day.Before(MinPickupDate(now, leadDays)) {
		return PickupSlot{}, invalid(ErrPickupTooSoon, "Pickup date must be on or after "+MinPickupDate(now, leadDays).Format(WireDateLayout))
	}

	if clock == "" {
		return PickupSlot{}, invalid(ErrMissingPickupTime, "Please select a time")
	}
	var tm time.Time
	for _, layout := range timeLayouts {
		tm, err = time.Parse(layout, strings.ToUpper(clock))
		if err == nil {
			break
		}
	}
	if err != nil {
		return PickupSlot{}, invalid(ErrMissingPickupTime, "Please select a valid time")
	}

	if event != "" {
		if _, ok := entity.EventNames[strings.ToLower(event)]; !ok {
			return PickupSlot{}, invalid(ErrUnknownEvent, "Please select a valid event type")
		}
		event = strings.ToLower(event)
	}
	return PickupSlot{Date: day.Format(WireDateLayout), Time: tm.Format(WireTimeLayout), EventName: event}, nil
}
