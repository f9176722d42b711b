package catalog

import (
	"context"
	"errors"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("catalog item not found")
)

// Source is the remote side of the catalog. *apiclient.Client satisfies it.
type Source interface {
	Menu(ctx context.Context, mode entity.PackagingMode) ([]entity.Section, error)
	ServingMethods(ctx context.Context, mode entity.PackagingMode) ([]entity.Section, error)
	PickupLocations(ctx context.Context) ([]entity.PickupLocation, error)
}

// Kind distinguishes food items from serving methods in the cache.
type Kind string

const (
	KindMenu    Kind = "menu"
	KindServing Kind = "serving"
)
