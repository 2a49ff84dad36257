package lab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nutriflow/nutriflow/internal/platform/db"
)

// missTTL caps how long an unknown code is remembered, so markers added by
// another process (seed, migrations) become visible quickly.
const missTTL = 30 * time.Second

// MarkerCatalog serves marker reference entries through an expiring LRU.
// Unknown codes go to a separate short-lived cache so repeated misses stay
// off the database without hiding new markers for the full TTL.
type MarkerCatalog struct {
	repo   MarkerRepository
	cache  *expirable.LRU[string, *MarkerRef]
	misses *expirable.LRU[string, struct{}]
}

func NewMarkerCatalog(repo MarkerRepository, size int, ttl time.Duration) *MarkerCatalog {
	negative := missTTL
	if ttl > 0 && ttl < negative {
		negative = ttl
	}
	return &MarkerCatalog{
		repo:   repo,
		cache:  expirable.NewLRU[string, *MarkerRef](size, nil, ttl),
		misses: expirable.NewLRU[string, struct{}](size, nil, negative),
	}
}

// Lookup returns the entry for code, or nil when the catalog has none.
func (c *MarkerCatalog) Lookup(ctx context.Context, code string) (*MarkerRef, error) {
	code = NormalizeMarkerCode(code)
	if ref, ok := c.cache.Get(code); ok {
		return ref, nil
	}
	if c.misses.Contains(code) {
		return nil, nil
	}

	ref, err := c.repo.Get(ctx, code)
	if errors.Is(err, db.ErrNotFound) {
		c.misses.Add(code, struct{}{})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup marker %s: %w", code, err)
	}
	c.cache.Add(code, ref)
	return ref, nil
}

// LookupMany resolves a set of codes. Codes without an entry are absent
// from the result.
func (c *MarkerCatalog) LookupMany(ctx context.Context, codes []string) (map[string]*MarkerRef, error) {
	out := make(map[string]*MarkerRef, len(codes))
	for _, code := range codes {
		if _, seen := out[code]; seen {
			continue
		}
		ref, err := c.Lookup(ctx, code)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			out[code] = ref
		}
	}
	return out, nil
}

func (c *MarkerCatalog) List(ctx context.Context) ([]*MarkerRef, error) {
	return c.repo.List(ctx)
}

// Upsert stores m under its canonical code and drops the cached entry.
func (c *MarkerCatalog) Upsert(ctx context.Context, m *MarkerRef) error {
	m.Code = NormalizeMarkerCode(m.Code)
	if m.Code == "" {
		return invalid("marker code is required")
	}
	if err := c.repo.Upsert(ctx, m); err != nil {
		return err
	}
	c.cache.Remove(m.Code)
	c.misses.Remove(m.Code)
	return nil
}
