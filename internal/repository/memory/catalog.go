// Package memory keeps the storefront catalog, statistics and sync log in process.
// It backs STOREFRONT_DRIVER=memory dry runs and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

type catalogRepository struct {
	mu         sync.RWMutex
	items      map[string]*domain.StorefrontItem
	categories map[string]*domain.Category
}

// NewCatalogRepository creates an empty in-memory catalog
func NewCatalogRepository() *catalogRepository {
	return &catalogRepository{
		items:      make(map[string]*domain.StorefrontItem),
		categories: make(map[string]*domain.Category),
	}
}

func (r *catalogRepository) SKUIndex(_ context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index := make(map[string]string, len(r.items))
	for id, item := range r.items {
		if item.SKU == "" || item.Status == domain.ItemStatusTrash {
			continue
		}
		index[item.SKU] = id
	}
	return index, nil
}

func (r *catalogRepository) GetItem(_ context.Context, id string) (*domain.StorefrontItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "storefront_item", ID: id}
	}
	return cloneItem(item), nil
}

func (r *catalogRepository) CreateItem(_ context.Context, item *domain.StorefrontItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *catalogRepository) UpdateItem(_ context.Context, item *domain.StorefrontItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "storefront_item", ID: item.ID}
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *catalogRepository) FindCategoryByName(_ context.Context, name string) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "category", ID: name}
}

func (r *catalogRepository) CreateCategory(_ context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	cp := *category
	r.categories[cp.ID] = &cp
	return nil
}

// Items returns a snapshot of all stored items
func (r *catalogRepository) Items() []*domain.StorefrontItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.StorefrontItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneItem(item))
	}
	return out
}

// Categories returns a snapshot of all stored categories
func (r *catalogRepository) Categories() []*domain.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

func cloneItem(item *domain.StorefrontItem) *domain.StorefrontItem {
	cp := *item
	if item.CategoryIDs != nil {
		cp.CategoryIDs = append([]string(nil), item.CategoryIDs...)
	}
	if item.Metadata != nil {
		cp.Metadata = make(map[string]string, len(item.Metadata))
		for k, v := range item.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
