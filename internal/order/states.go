package order

import (
	"errors"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/receipt"
)

// State is a screen of the order composition flow.
type State string

const (
	SelectingPackagingMode  State = "SelectingPackagingMode"
	BrowsingCatalog         State = "BrowsingCatalog"
	SelectingServingMethod  State = "SelectingServingMethod"
	SelectingPickupLocation State = "SelectingPickupLocation"
	SelectingPickupDateTime State = "SelectingPickupDateTime"
	ReviewingOrderSummary   State = "ReviewingOrderSummary"
	ConfirmingOrder         State = "ConfirmingOrder"
	ViewingReceipt          State = "ViewingReceipt"
	AwaitingPayment         State = "AwaitingPayment"
	Done                    State = "Done"
)

var (
	ErrBusy              = errors.New("another step is in progress")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation failed")

	ErrPickupTooSoon     = errors.New("pickup date is too soon")
	ErrInvalidPickupDate = errors.New("invalid pickup date")
	ErrMissingPickupTime = errors.New("pickup time is required")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrMissingLocation   = errors.New("pickup location is required")
	ErrMissingInfo       = errors.New("required order details are missing")
	ErrPaymentIncomplete = receipt.ErrPaymentIncomplete
)

// ValidationError blocks a transition with a message meant for the devotee.
// It matches both ErrValidation and the specific cause.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(cause error, msg string) error {
	return &ValidationError{Message: msg, Err: cause}
}

// previous is the screen Back returns to. ok is false where going back
// is not allowed.
func previous(s State, mode entity.PackagingMode) (State, bool) {
	switch s {
	case BrowsingCatalog:
		return SelectingPackagingMode, true
	case SelectingServingMethod:
		return BrowsingCatalog, true
	case SelectingPickupLocation:
		if mode == entity.SelfServing {
			return SelectingServingMethod, true
		}
		return BrowsingCatalog, true
	case SelectingPickupDateTime:
		return SelectingPickupLocation, true
	case ReviewingOrderSummary:
		return SelectingPickupDateTime, true
	}
	return s, false
}
