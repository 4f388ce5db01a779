package suppliers

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tapcellar/tapcellar-backend/internal/matching"
	"github.com/tapcellar/tapcellar-backend/pkg/dear"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
	"github.com/tapcellar/tapcellar-backend/pkg/redis"
)

const directoryCacheName = "dear-suppliers"

var (
	errDearClientRequired = errors.New("suppliers service: dear client is required")
	errLoggerRequired     = errors.New("suppliers service: logger is required")
)

// DearAPI is the slice of the inventory client this service consumes.
type DearAPI interface {
	FindSupplierByName(ctx context.Context, name string) (*dear.Supplier, error)
	FindProductBySKU(ctx context.Context, sku string) (*dear.Product, error)
	ListSuppliers(ctx context.Context, page, limit int) ([]dear.Supplier, error)
	SupplierPageSize() int
}

// DirectoryCache is the slice of the redis client used for the supplier
// directory. A nil cache is valid; the service then keeps an in-process copy.
type DirectoryCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DirectoryKey(name string) string
}

// Service resolves invoice supplier names and stock codes against the
// inventory system.
type Service interface {
	// ResolveSupplier finds the inventory supplier for an invoice name.
	// A supplier that cannot be resolved is a nil result, not an error.
	ResolveSupplier(ctx context.Context, name string) (*dear.Supplier, error)
	// ResolveProductID returns the inventory product ID for a stock code,
	// or empty when the code is unknown upstream.
	ResolveProductID(ctx context.Context, sku string) (string, error)
	// Directory returns the full supplier directory, served from cache when
	// fresh.
	Directory(ctx context.Context) ([]dear.Supplier, error)
	// InvalidateDirectory drops the cached directory.
	InvalidateDirectory(ctx context.Context) error
}

type service struct {
	dear       DearAPI
	cache      DirectoryCache
	logger     *logger.Logger
	fuzzyFloor int
	cacheTTL   time.Duration

	mu        sync.Mutex
	local     []dear.Supplier
	localDrop time.Time
}

// Deps bundles the service dependencies.
type Deps struct {
	Dear       DearAPI
	Cache      DirectoryCache
	Logger     *logger.Logger
	FuzzyFloor int
	CacheTTL   time.Duration
}

func NewService(deps Deps) (Service, error) {
	if deps.Dear == nil {
		return nil, errDearClientRequired
	}
	if deps.Logger == nil {
		return nil, errLoggerRequired
	}
	if deps.FuzzyFloor <= 0 {
		deps.FuzzyFloor = 90
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 10 * time.Minute
	}
	return &service{
		dear:       deps.Dear,
		cache:      deps.Cache,
		logger:     deps.Logger,
		fuzzyFloor: deps.FuzzyFloor,
		cacheTTL:   deps.CacheTTL,
	}, nil
}

// ResolveSupplier tries three tiers in order: the exact invoice name, the
// name with "&" spelled out as "and", then a fuzzy scan of the full
// directory. The fuzzy floor is high because a wrong supplier poisons every
// order built from it.
func (s *service) ResolveSupplier(ctx context.Context, name string) (*dear.Supplier, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}

	found, err := s.dear.FindSupplierByName(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	if spelled := strings.ReplaceAll(trimmed, "&", "and"); spelled != trimmed {
		found, err = s.dear.FindSupplierByName(ctx, spelled)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}

	directory, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}

	var (
		best      *dear.Supplier
		bestScore int
	)
	for i := range directory {
		score := matching.Similarity(trimmed, directory[i].Name)
		if score > bestScore {
			best = &directory[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < s.fuzzyFloor {
		return nil, nil
	}

	fields := map[string]any{"invoice_name": trimmed, "resolved_name": best.Name, "score": bestScore}
	s.logger.Info(s.logger.WithFields(ctx, fields), "supplier resolved by fuzzy match")
	return best, nil
}

func (s *service) ResolveProductID(ctx context.Context, sku string) (string, error) {
	product, err := s.dear.FindProductBySKU(ctx, sku)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", nil
	}
	return product.ID, nil
}

func (s *service) Directory(ctx context.Context) ([]dear.Supplier, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	directory, err := s.fetchDirectory(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, directory)
	return directory, nil
}

func (s *service) InvalidateDirectory(ctx context.Context) error {
	s.mu.Lock()
	s.local = nil
	s.localDrop = time.Time{}
	s.mu.Unlock()

	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, s.cache.DirectoryKey(directoryCacheName))
}

func (s *service) fetchDirectory(ctx context.Context) ([]dear.Supplier, error) {
	limit := s.dear.SupplierPageSize()
	if limit <= 0 {
		limit = 100
	}

	var directory []dear.Supplier
	for page := 1; ; page++ {
		batch, err := s.dear.ListSuppliers(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		directory = append(directory, batch...)
		if len(batch) < limit {
			sort.Slice(directory, func(i, j int) bool {
				return strings.ToLower(directory[i].Name) < strings.ToLower(directory[j].Name)
			})
			return directory, nil
		}
	}
}

func (s *service) fromCache(ctx context.Context) ([]dear.Supplier, bool) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, s.cache.DirectoryKey(directoryCacheName))
		if err == nil {
			var directory []dear.Supplier
			if jsonErr := json.Unmarshal([]byte(raw), &directory); jsonErr == nil {
				return directory, true
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn(ctx, "supplier directory cache read failed")
		}
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local != nil && time.Now().Before(s.localDrop) {
		return s.local, true
	}
	return nil, false
}

func (s *service) toCache(ctx context.Context, directory []dear.Supplier) {
	if s.cache != nil {
		raw, err := json.Marshal(directory)
		if err != nil {
			return
		}
		if err := s.cache.Set(ctx, s.cache.DirectoryKey(directoryCacheName), string(raw), s.cacheTTL); err != nil {
			s.logger.Warn(ctx, "supplier directory cache write failed")
		}
		return
	}

	s.mu.Lock()
	s.local = directory
	s.localDrop = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()
}
