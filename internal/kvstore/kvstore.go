package kvstore

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound = errors.New("key not found")
)

// Persisted session keys shared across screens.
const (
	KeyUserID                 = "userId"
	KeyPrasadType             = "prasadType"
	KeyCartID                 = "cartId"
	KeyPickupDetails          = "pickupDetails"
	KeySelectedServingItems   = "selectedServingItems"
	KeyAuthToken              = "authToken"
	KeySelectedPickupLocation = "selectedPickupLocation"
	KeyLastCreatedOrder       = "lastCreatedOrder"
)

// Store is a string-keyed key-value store. Implementations are safe for
// concurrent use but give no guarantees across keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// MultiGet returns the values present for the given keys; absent keys are
	// simply missing from the result.
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
}

// InMemoryRepository is used for tests and single-process runs.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewInMemoryRepository(seed map[string]string) *InMemoryRepository {
	r := &InMemoryRepository{data: make(map[string]string, len(seed))}
	for k, v := range seed {
		r.data[k] = v
	}
	return r
}

func (r *InMemoryRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *InMemoryRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.data, k)
	}
	return nil
}

func (r *InMemoryRepository) MultiGet(_ context.Context, keys ...string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := r.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}
