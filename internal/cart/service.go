package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wichananm65/prasad-ordering/internal/apiclient"
	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrLocked    = errors.New("cart can no longer be changed")
)

// Remote is the server-side cart. *apiclient.Client satisfies it.
type Remote interface {
	GetCart(ctx context.Context, mode entity.PackagingMode, userID string) (entity.ServerCart, error)
	UpdateCart(ctx context.Context, mode entity.PackagingMode, userID string, lines []apiclient.CartLineInput) (entity.ServerCart, error)
}

// Session is the slice of the device session the cart needs.
type Session interface {
	Identity(ctx context.Context) (string, entity.PackagingMode, error)
	SetCartID(ctx context.Context, id string) error
}

// Service keeps the local store consistent with the server cart.
type Service struct {
	store   *Store
	remote  Remote
	session Session
	logger  *zap.Logger
}

func NewService(store *Store, remote Remote, sess Session, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, remote: remote, session: sess, logger: logger}
}

func (s *Service) Store() *Store {
	return s.store
}

// Sync replaces the server cart with the local one and records the cart id.
func (s *Service) Sync(ctx context.Context) (entity.ServerCart, error) {
	snap := s.store.Snapshot()
	if len(snap.Items) == 0 {
		return entity.ServerCart{}, ErrEmptyCart
	}
	userID, mode, err := s.session.Identity(ctx)
	if err != nil {
		return entity.ServerCart{}, err
	}

	lines := make([]apiclient.CartLineInput, 0, len(snap.Items))
	for _, it := range snap.Lines() {
		lines = append(lines, apiclient.CartLineInput{FoodItem: it.MenuItem.ID, Quantity: it.Quantity})
	}
	sc, err := s.remote.UpdateCart(ctx, mode, userID, lines)
	if err != nil {
		return entity.ServerCart{}, fmt.Errorf("sync cart: %w", err)
	}
	if sc.ID != "" {
		if err := s.session.SetCartID(ctx, sc.ID); err != nil {
			return sc, fmt.Errorf("store cart id: %w", err)
		}
	}
	s.logger.Info("cart synced", zap.String("cartId", sc.ID), zap.Int("lines", len(lines)))
	return sc, nil
}

// Pull loads the server cart into the local store, e.g. when resuming an
// order on a fresh process.
func (s *Service) Pull(ctx context.Context) (State, error) {
	userID, mode, err := s.session.Identity(ctx)
	if err != nil {
		return State{}, err
	}
	sc, err := s.remote.GetCart(ctx, mode, userID)
	if err != nil {
		return State{}, fmt.Errorf("load cart: %w", err)
	}
	items := make([]Item, 0, len(sc.Items))
	for _, l := range sc.Items {
		items = append(items, Item{MenuItem: l.Item, Quantity: l.Quantity})
	}
	s.store.Replace(items)
	if sc.ID != "" {
		if err := s.session.SetCartID(ctx, sc.ID); err != nil {
			s.logger.Warn("store cart id failed", zap.Error(err))
		}
	}
	return s.store.Snapshot(), nil
}
