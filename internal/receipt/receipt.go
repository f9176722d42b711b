// Package receipt reads pickup receipts and records counter payments
// against them.
package receipt

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

var (
	ErrUnknownStatus     = errors.New("status must be paid or unpaid")
	ErrPaymentIncomplete = errors.New("payment details are incomplete")
)

// Remote is the receipt side of the remote API. *apiclient.Client satisfies
// it.
type Remote interface {
	GetReceipt(ctx context.Context, mode entity.PackagingMode, orderID string) (entity.Receipt, error)
	ListReceipts(ctx context.Context, mode entity.PackagingMode, status, userID string) ([]entity.Receipt, error)
	SubmitPayment(ctx context.Context, mode entity.PackagingMode, receiptID string, p entity.Payment) (entity.Receipt, error)
}

type Identity interface {
	Identity(ctx context.Context) (string, entity.PackagingMode, error)
}

// PaymentError names the first missing payment field.
type PaymentError struct {
	Message string
}

func (e *PaymentError) Error() string { return e.Message }

func (e *PaymentError) Unwrap() error { return ErrPaymentIncomplete }

// ValidatePayment requires every field of the payment evidence.
func ValidatePayment(p entity.Payment) error {
	switch {
	case p.CashierName == "":
		return &PaymentError{Message: "Please enter cashier name"}
	case p.ReceiptNumber == "":
		return &PaymentError{Message: "Please enter payment receipt number"}
	case p.PhotoURL == "":
		return &PaymentError{Message: "Please upload receipt photo"}
	}
	return nil
}

type Service struct {
	remote   Remote
	identity Identity
	logger   *zap.Logger
}

func NewService(remote Remote, id Identity, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{remote: remote, identity: id, logger: logger}
}

func (s *Service) Get(ctx context.Context, orderID string) (entity.Receipt, error) {
	_, mode, err := s.identity.Identity(ctx)
	if err != nil {
		return entity.Receipt{}, err
	}
	return s.remote.GetReceipt(ctx, mode, orderID)
}

// List returns the session user's receipts. Unpaid listings also carry
// receipts whose payment awaits approval.
func (s *Service) List(ctx context.Context, status string) ([]entity.Receipt, error) {
	if status != entity.ReceiptPaid && status != entity.ReceiptUnpaid {
		return nil, ErrUnknownStatus
	}
	userID, mode, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}
	out, err := s.remote.ListReceipts(ctx, mode, status, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s receipts: %w", status, err)
	}
	return out, nil
}

func (s *Service) Pay(ctx context.Context, receiptID string, p entity.Payment) (entity.Receipt, error) {
	if err := ValidatePayment(p); err != nil {
		return entity.Receipt{}, err
	}
	_, mode, err := s.identity.Identity(ctx)
	if err != nil {
		return entity.Receipt{}, err
	}
	r, err := s.remote.SubmitPayment(ctx, mode, receiptID, p)
	if err != nil {
		return entity.Receipt{}, err
	}
	s.logger.Info("payment submitted", zap.String("receiptId", receiptID), zap.String("status", r.Status))
	return r, nil
}
