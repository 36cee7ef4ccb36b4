package service

import (
	"context"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"mrchooks/backend/internal/cache"
	"mrchooks/backend/internal/domain"
	"mrchooks/backend/internal/metrics"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if s.cached(ctx, cache.KeyProducts, &products) {
		return products, nil
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cache.KeyProducts, products)
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Name:        req.Name,
		Price:       domain.RoundMoney(*req.Price),
		Cost:        domain.RoundMoney(*req.Cost),
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	created, err := s.repo.CreateProduct(ctx, product, req.InitialStock)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "product_create", "product", created.ID, "name="+created.Name+",price="+created.Price.String())
	return *created, nil
}

// UpdateProduct applies only the fields present in req.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := validate(req); err != nil {
		return domain.Product{}, err
	}
	current, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	next := *current
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
		if next.Name == "" {
			return domain.Product{}, invalid("name must not be blank")
		}
	}
	if req.Price != nil {
		next.Price = domain.RoundMoney(*req.Price)
	}
	if req.Cost != nil {
		next.Cost = domain.RoundMoney(*req.Cost)
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}

	saved, err := s.repo.UpdateProduct(ctx, next)
	if err != nil {
		return domain.Product{}, err
	}
	s.invalidateCatalog(ctx)
	if !current.Price.Equal(saved.Price) {
		s.logAudit(ctx, "product_price_change", "product", saved.ID, "old="+current.Price.String()+",new="+saved.Price.String())
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) ListInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	var records []domain.InventoryRecord
	if s.cached(ctx, cache.KeyInventory, &records) {
		return records, nil
	}
	records, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, cache.KeyInventory, records)
	return records, nil
}

// AdjustInventory is the manual stock count; it creates the inventory row
// when the product has none.
func (s *Service) AdjustInventory(ctx context.Context, productID string, req domain.InventoryAdjustRequest) (domain.InventoryRecord, error) {
	if err := validate(req); err != nil {
		return domain.InventoryRecord{}, err
	}
	record, err := s.repo.UpsertInventory(ctx, productID, *req.Beginning, *req.Stock, s.now())
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "inventory_adjust", "inventory", productID, "stock="+strconv.Itoa(record.Stock))
	return *record, nil
}

// cached decodes key into dest. Any cache failure counts as a miss; the
// database stays authoritative.
func (s *Service) cached(ctx context.Context, key string, dest any) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheResults.WithLabelValues("error").Inc()
		s.log(ctx).Debug().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	if !ok {
		metrics.CacheResults.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheResults.WithLabelValues("error").Inc()
		return false
	}
	metrics.CacheResults.WithLabelValues("hit").Inc()
	return true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		s.log(ctx).Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.CatalogKeys...); err != nil {
		s.log(ctx).Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
