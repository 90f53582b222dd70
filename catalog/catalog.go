package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	productIndexKey = "products"      // set of product ids
	productKeyPref  = "product:"      // product:<id> -> JSON blob
	viewsHashKey    = "product:views" // hash: product id -> view count
)

// Source loads the product collection once and serves an in-memory
// snapshot to the filter pipeline and handlers. Reload refreshes the
// snapshot after admin writes.
type Source struct {
	redis *redis.Client

	mu       sync.RWMutex
	products []model.Product
	byID     map[string]model.Product
	loadedAt time.Time
}

// NewSource creates the source and performs the initial load.
func NewSource(ctx context.Context, rdb *redis.Client) (*Source, error) {
	s := &Source{redis: rdb, byID: make(map[string]model.Product)}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads every product blob and overlays live view counts.
func (s *Source) Reload(ctx context.Context) error {
	ids, err := s.redis.SMembers(ctx, productIndexKey).Result()
	if err != nil {
		return err
	}

	views, err := s.redis.HGetAll(ctx, viewsHashKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	products := make([]model.Product, 0, len(ids))
	byID := make(map[string]model.Product, len(ids))
	for _, id := range ids {
		raw, err := s.redis.Get(ctx, productKeyPref+id).Bytes()
		if err == redis.Nil {
			// Stale index entry; drop it.
			s.redis.SRem(ctx, productIndexKey, id)
			continue
		} else if err != nil {
			return err
		}

		var p model.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warn().Err(err).Str("product_id", id).Msg("Skipping undecodable product record")
			continue
		}

		if v, ok := views[p.ID]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				p.Views = n
			}
		}
		products = append(products, p)
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.products = products
	s.byID = byID
	s.loadedAt = time.Now()
	s.mu.Unlock()

	log.Info().Int("count", len(products)).Msg("Product catalog loaded")
	return nil
}

// Products returns a copy of the current snapshot.
func (s *Source) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns one product from the snapshot.
func (s *Source) Get(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	return p, ok
}

// CategoryOf resolves a product's category without copying the
// snapshot; empty when unknown.
func (s *Source) CategoryOf(productID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.byID[productID]; ok {
		return p.Category
	}
	return ""
}

// LoadedAt reports when the snapshot was last refreshed.
func (s *Source) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Create stores a new product and refreshes the snapshot.
func (s *Source) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := utils.ValidateProduct(p); err != nil {
		return model.Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	if err := s.write(ctx, p); err != nil {
		return model.Product{}, err
	}
	if err := s.redis.SAdd(ctx, productIndexKey, p.ID).Err(); err != nil {
		return model.Product{}, err
	}

	log.Info().Str("product_id", p.ID).Str("category", p.Category).Msg("Product created")
	return p, s.Reload(ctx)
}

// Update replaces an existing product's fields and refreshes the
// snapshot. CreatedAt and the view counter are preserved.
func (s *Source) Update(ctx context.Context, id string, p model.Product) (model.Product, error) {
	existing, ok := s.Get(id)
	if !ok {
		return model.Product{}, utils.ErrProductNotFound
	}
	if err := utils.ValidateProduct(p); err != nil {
		return model.Product{}, err
	}

	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()

	if err := s.write(ctx, p); err != nil {
		return model.Product{}, err
	}

	log.Info().Str("product_id", id).Msg("Product updated")
	return p, s.Reload(ctx)
}

// Delete removes the product, its index entry and its view counter.
func (s *Source) Delete(ctx context.Context, id string) error {
	if _, ok := s.Get(id); !ok {
		return utils.ErrProductNotFound
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, productKeyPref+id)
	pipe.SRem(ctx, productIndexKey, id)
	pipe.HDel(ctx, viewsHashKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	log.Info().Str("product_id", id).Msg("Product deleted")
	return s.Reload(ctx)
}

// AttachImage appends an image URL to the product record.
func (s *Source) AttachImage(ctx context.Context, id, url string) (model.Product, error) {
	existing, ok := s.Get(id)
	if !ok {
		return model.Product{}, utils.ErrProductNotFound
	}

	existing.ImageURLs = append(existing.ImageURLs, url)
	existing.UpdatedAt = time.Now()

	if err := s.write(ctx, existing); err != nil {
		return model.Product{}, err
	}
	return existing, s.Reload(ctx)
}

func (s *Source) write(ctx context.Context, p model.Product) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, productKeyPref+p.ID, raw, 0).Err()
}
