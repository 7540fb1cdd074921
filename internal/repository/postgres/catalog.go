package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

type catalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a catalog repository over the storefront_items and categories tables
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) *catalogRepository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *catalogRepository) SKUIndex(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT id, sku
		FROM storefront_items
		WHERE sku <> '' AND status <> 'trash'
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to load SKU index", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	index := make(map[string]string)
	for rows.Next() {
		var id, sku string
		if err := rows.Scan(&id, &sku); err != nil {
			return nil, err
		}
		index[sku] = id
	}

	return index, rows.Err()
}

func (r *catalogRepository) GetItem(ctx context.Context, id string) (*domain.StorefrontItem, error) {
	query := `
		SELECT id, sku, name, description, status, type, regular_price, manage_stock,
		       stock_quantity, stock_status, length, width, height, category_ids, metadata,
		       created_at, updated_at
		FROM storefront_items
		WHERE id = $1
	`

	var item domain.StorefrontItem
	var metadataJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.SKU,
		&item.Name,
		&item.Description,
		&item.Status,
		&item.Type,
		&item.RegularPrice,
		&item.ManageStock,
		&item.StockQuantity,
		&item.StockStatus,
		&item.Dimensions.Length,
		&item.Dimensions.Width,
		&item.Dimensions.Height,
		pq.Array(&item.CategoryIDs),
		&metadataJSON,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "storefront_item", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get storefront item", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

func (r *catalogRepository) CreateItem(ctx context.Context, item *domain.StorefrontItem) error {
	query := `
		INSERT INTO storefront_items (
			id, sku, name, description, status, type, regular_price, manage_stock,
			stock_quantity, stock_status, length, width, height, category_ids, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	now := time.Now()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		item.ID,
		item.SKU,
		item.Name,
		item.Description,
		item.Status,
		item.Type,
		item.RegularPrice,
		item.ManageStock,
		item.StockQuantity,
		item.StockStatus,
		item.Dimensions.Length,
		item.Dimensions.Width,
		item.Dimensions.Height,
		pq.Array(item.CategoryIDs),
		metadataJSON,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create storefront item", zap.String("sku", item.SKU), zap.Error(err))
		return err
	}

	return nil
}

func (r *catalogRepository) UpdateItem(ctx context.Context, item *domain.StorefrontItem) error {
	query := `
		UPDATE storefront_items
		SET sku = $2, name = $3, description = $4, status = $5, type = $6,
		    regular_price = $7, manage_stock = $8, stock_quantity = $9, stock_status = $10,
		    length = $11, width = $12, height = $13, category_ids = $14, metadata = $15,
		    updated_at = $16
		WHERE id = $1
	`

	item.UpdatedAt = time.Now()

	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.SKU,
		item.Name,
		item.Description,
		item.Status,
		item.Type,
		item.RegularPrice,
		item.ManageStock,
		item.StockQuantity,
		item.StockStatus,
		item.Dimensions.Length,
		item.Dimensions.Width,
		item.Dimensions.Height,
		pq.Array(item.CategoryIDs),
		metadataJSON,
		item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update storefront item", zap.String("id", item.ID), zap.Error(err))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return &errors.ErrNotFound{Resource: "storefront_item", ID: item.ID}
	}

	return nil
}

func (r *catalogRepository) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, description
		FROM categories
		WHERE name = $1
		ORDER BY created_at ASC
		LIMIT 1
	`

	var c domain.Category
	err := r.db.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name, &c.Slug, &c.Description)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "category", ID: name}
	}
	if err != nil {
		r.logger.Error("Failed to find category by name", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	return &c, nil
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if category.ID == "" {
		category.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		time.Now(),
	)

	if err != nil {
		r.logger.Error("Failed to create category", zap.String("name", category.Name), zap.Error(err))
		return err
	}

	return nil
}
