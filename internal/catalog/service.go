package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wichananm65/prasad-ordering/internal/domain/entity"
)

type cacheKey struct {
	kind Kind
	mode entity.PackagingMode
}

// Service caches catalog sections per packaging mode. Items are immutable
// once loaded, so cached sections are shared until Invalidate.
type Service struct {
	src    Source
	logger *zap.Logger

	loads singleflight.Group

	mu        sync.RWMutex
	sections  map[cacheKey][]entity.Section
	items     map[string]entity.MenuItem
	locations []entity.PickupLocation
}

func NewService(src Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		src:      src,
		logger:   logger,
		sections: make(map[cacheKey][]entity.Section),
		items:    make(map[string]entity.MenuItem),
	}
}

func (s *Service) Menu(ctx context.Context, mode entity.PackagingMode) ([]entity.Section, error) {
	return s.load(ctx, cacheKey{KindMenu, mode}, s.src.Menu)
}

func (s *Service) ServingMethods(ctx context.Context, mode entity.PackagingMode) ([]entity.Section, error) {
	return s.load(ctx, cacheKey{KindServing, mode}, s.src.ServingMethods)
}

func (s *Service) load(ctx context.Context, key cacheKey, fetch func(context.Context, entity.PackagingMode) ([]entity.Section, error)) ([]entity.Section, error) {
	s.mu.RLock()
	secs, ok := s.sections[key]
	s.mu.RUnlock()
	if ok {
		return secs, nil
	}

	v, err, _ := s.loads.Do(string(key.kind)+"/"+string(key.mode), func() (any, error) {
		s.mu.RLock()
		cached, ok := s.sections[key]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
		secs, err := fetch(ctx, key.mode)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sections[key] = secs
		for _, sec := range secs {
			for _, it := range sec.Items {
				s.items[it.ID] = it
			}
		}
		s.mu.Unlock()
		s.logger.Debug("catalog loaded",
			zap.String("kind", string(key.kind)),
			zap.String("mode", string(key.mode)),
			zap.Int("sections", len(secs)))
		return secs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.Section), nil
}

// Lookup returns a menu item or serving method seen in any loaded section.
func (s *Service) Lookup(id string) (entity.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return entity.MenuItem{}, ErrNotFound
	}
	return it, nil
}

// Items flattens the loaded sections of one kind.
func (s *Service) Items(ctx context.Context, kind Kind, mode entity.PackagingMode) ([]entity.MenuItem, error) {
	var (
		secs []entity.Section
		err  error
	)
	if kind == KindServing {
		secs, err = s.ServingMethods(ctx, mode)
	} else {
		secs, err = s.Menu(ctx, mode)
	}
	if err != nil {
		return nil, err
	}
	out := make([]entity.MenuItem, 0)
	for _, sec := range secs {
		out = append(out, sec.Items...)
	}
	return out, nil
}

func (s *Service) Locations(ctx context.Context) ([]entity.PickupLocation, error) {
	s.mu.RLock()
	locs := s.locations
	s.mu.RUnlock()
	if locs != nil {
		return locs, nil
	}
	v, err, _ := s.loads.Do("locations", func() (any, error) {
		locs, err := s.src.PickupLocations(ctx)
		if err != nil {
			return nil, err
		}
		if locs == nil {
			locs = []entity.PickupLocation{}
		}
		s.mu.Lock()
		s.locations = locs
		s.mu.Unlock()
		return locs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entity.PickupLocation), nil
}

func (s *Service) Location(ctx context.Context, id string) (entity.PickupLocation, error) {
	locs, err := s.Locations(ctx)
	if err != nil {
		return entity.PickupLocation{}, err
	}
	for _, l := range locs {
		if l.ID == id {
			return l, nil
		}
	}
	return entity.PickupLocation{}, ErrNotFound
}

// Invalidate drops every cached section and location.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = make(map[cacheKey][]entity.Section)
	s.items = make(map[string]entity.MenuItem)
	s.locations = nil
}
