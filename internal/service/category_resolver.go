package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

// CategoryResolver maps ledger group names to storefront category ids, creating
// missing categories. One resolver is used per run.
type CategoryResolver struct {
	catalog repository.CatalogRepository
	stats   repository.StatsRepository
	logger  *zap.Logger
	memo    map[string]string
	created int
}

// NewCategoryResolver creates a resolver with an empty memo
func NewCategoryResolver(catalog repository.CatalogRepository, stats repository.StatsRepository, logger *zap.Logger) *CategoryResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryResolver{
		catalog: catalog,
		stats:   stats,
		logger:  logger,
		memo:    make(map[string]string),
	}
}

// Resolve returns the id of the category named exactly name, creating it when absent.
// created is true only for the call that created the category.
func (r *CategoryResolver) Resolve(ctx context.Context, name string) (id string, created bool, err error) {
	if id, ok := r.memo[name]; ok {
		return id, false, nil
	}

	existing, err := r.catalog.FindCategoryByName(ctx, name)
	if err == nil {
		r.memo[name] = existing.ID
		return existing.ID, false, nil
	}
	if !errors.IsNotFound(err) {
		return "", false, fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	category := &domain.Category{
		Name:        name,
		Slug:        Slugify(name),
		Description: "Ledger group: " + name,
	}
	if err := r.catalog.CreateCategory(ctx, category); err != nil {
		return "", false, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	r.created++
	syncCategoriesCreated.Inc()
	if err := r.stats.IncrementCategoriesCreated(ctx, 1); err != nil {
		r.logger.Warn("Failed to increment categories counter", zap.String("category", name), zap.Error(err))
	}

	r.logger.Info("Created category", zap.String("name", name), zap.String("id", category.ID))
	r.memo[name] = category.ID
	return category.ID, true, nil
}

// Created returns how many categories this resolver created
func (r *CategoryResolver) Created() int {
	return r.created
}

// Slugify lowercases s and joins its letter and digit runs with hyphens
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, c := range strings.ToLower(s) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(c)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
