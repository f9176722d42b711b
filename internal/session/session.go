// Package session holds the device session: the persisted scalars shared by
// every screen plus the flags that only live as long as a login.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
	"github.com/wichananm65/prasad-ordering/internal/kvstore"
)

var (
	ErrMissingSession = errors.New("user or prasad type not found")
	ErrInvalidMode    = errors.New("unknown prasad packaging mode")
)

// Session is safe for concurrent use.
type Session struct {
	store  kvstore.Store
	logger *zap.Logger

	mu                sync.Mutex
	pickupPromptShown bool
}

func New(store kvstore.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: store, logger: logger}
}

// Store exposes the underlying key-value store for components that persist
// their own keys.
func (s *Session) Store() kvstore.Store {
	return s.store
}

// Token implements apiclient.TokenSource.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.get(ctx, kvstore.KeyAuthToken)
}

// Login stores the token and the user id carried in its claims, and starts a
// fresh set of session flags.
func (s *Session) Login(ctx context.Context, token, userID string) error {
	if userID == "" {
		claims, err := apiclient.ParseClaims(token)
		if err != nil {
			return err
		}
		userID = claims.UserID
	}
	if userID == "" {
		return ErrMissingSession
	}
	if err := s.store.Set(ctx, kvstore.KeyAuthToken, token); err != nil {
		return err
	}
	if err := s.store.Set(ctx, kvstore.KeyUserID, userID); err != nil {
		return err
	}
	s.resetFlags()
	return nil
}

// Logout removes every persisted session key.
func (s *Session) Logout(ctx context.Context) error {
	s.resetFlags()
	return s.store.Delete(ctx,
		kvstore.KeyAuthToken,
		kvstore.KeyUserID,
		kvstore.KeyPrasadType,
		kvstore.KeyCartID,
		kvstore.KeyPickupDetails,
		kvstore.KeySelectedServingItems,
		kvstore.KeySelectedPickupLocation,
		kvstore.KeyLastCreatedOrder,
	)
}

func (s *Session) resetFlags() {
	s.mu.Lock()
	s.pickupPromptShown = false
	s.mu.Unlock()
}

// ConsumePickupPrompt reports whether the one-time pickup-date prompt should
// be shown, and marks it shown. It resets on every login.
func (s *Session) ConsumePickupPrompt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pickupPromptShown {
		return false
	}
	s.pickupPromptShown = true
	return true
}

func (s *Session) UserID(ctx context.Context) (string, error) {
	return s.get(ctx, kvstore.KeyUserID)
}

func (s *Session) PrasadType(ctx context.Context) (entity.PackagingMode, error) {
	v, err := s.get(ctx, kvstore.KeyPrasadType)
	if err != nil {
		return "", err
	}
	return entity.PackagingMode(v), nil
}

func (s *Session) SetPrasadType(ctx context.Context, mode entity.PackagingMode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	return s.store.Set(ctx, kvstore.KeyPrasadType, string(mode))
}

// Identity returns the user id and prasad type, failing with
// ErrMissingSession when either is absent.
func (s *Session) Identity(ctx context.Context) (string, entity.PackagingMode, error) {
	vals, err := s.store.MultiGet(ctx, kvstore.KeyUserID, kvstore.KeyPrasadType)
	if err != nil {
		return "", "", err
	}
	userID, mode := vals[kvstore.KeyUserID], entity.PackagingMode(vals[kvstore.KeyPrasadType])
	if userID == "" || mode == "" {
		return "", "", ErrMissingSession
	}
	return userID, mode, nil
}

func (s *Session) CartID(ctx context.Context) (string, error) {
	return s.get(ctx, kvstore.KeyCartID)
}

func (s *Session) SetCartID(ctx context.Context, id string) error {
	return s.store.Set(ctx, kvstore.KeyCartID, id)
}

// PickupDetails returns the stored pickup slot. A missing or unreadable value
// reports ok=false.
func (s *Session) PickupDetails(ctx context.Context) (entity.PickupDetails, bool) {
	var p entity.PickupDetails
	if !s.getJSON(ctx, kvstore.KeyPickupDetails, &p) {
		return entity.PickupDetails{}, false
	}
	return p, p.PickupDate != "" || p.ID != ""
}

func (s *Session) SetPickupDetails(ctx context.Context, p entity.PickupDetails) error {
	return s.setJSON(ctx, kvstore.KeyPickupDetails, p)
}

func (s *Session) SelectedLocation(ctx context.Context) (string, error) {
	return s.get(ctx, kvstore.KeySelectedPickupLocation)
}

func (s *Session) SetSelectedLocation(ctx context.Context, id string) error {
	return s.store.Set(ctx, kvstore.KeySelectedPickupLocation, id)
}

// LastCreatedOrder returns the most recent order created by this device.
func (s *Session) LastCreatedOrder(ctx context.Context) (entity.Order, bool) {
	var o entity.Order
	if !s.getJSON(ctx, kvstore.KeyLastCreatedOrder, &o) {
		return entity.Order{}, false
	}
	return o, o.ID != ""
}

func (s *Session) SetLastCreatedOrder(ctx context.Context, o entity.Order) error {
	return s.setJSON(ctx, kvstore.KeyLastCreatedOrder, o)
}

// ClearOrderProgress drops the keys of an order in progress so the next
// order starts blank.
func (s *Session) ClearOrderProgress(ctx context.Context) error {
	return s.store.Delete(ctx,
		kvstore.KeyPickupDetails,
		kvstore.KeySelectedServingItems,
		kvstore.KeySelectedPickupLocation,
		kvstore.KeyLastCreatedOrder,
	)
}

func (s *Session) get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// getJSON decodes key into dst. Read and decode failures are logged and
// treated as absent.
func (s *Session) getJSON(ctx context.Context, key string, dst any) bool {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("session read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("session value malformed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Session) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, string(b))
}
