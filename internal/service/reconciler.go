package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/events"
	"github.com/jafarshop/ledgersync/internal/ledger"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

// Metadata keys written on every synced storefront item
const (
	MetaLedgerID       = domain.LedgerMetaPrefix + "id"
	MetaType           = domain.LedgerMetaPrefix + "type"
	MetaVatRate        = domain.LedgerMetaPrefix + "vat_rate"
	MetaUnit           = domain.LedgerMetaPrefix + "unit"
	MetaBarcode        = domain.LedgerMetaPrefix + "barcode"
	MetaCatalogNumber  = domain.LedgerMetaPrefix + "catalog_number"
	MetaSalesCategory  = domain.LedgerMetaPrefix + "sales_category"
	MetaStock          = domain.LedgerMetaPrefix + "stock"
	MetaPricePrefix    = domain.LedgerMetaPrefix + "price_"
	emptyStockMetadata = "{}"
)

// ReconcileResult counts the outcome of one reconcile pass
type ReconcileResult struct {
	Added             int
	Updated           int
	Failed            int
	Skipped           int
	CategoriesCreated int
}

// Reconciler upserts ledger items into the storefront catalog, one item at a time
type Reconciler struct {
	catalog    repository.CatalogRepository
	categories *CategoryResolver
	rec        *recorder
	logger     *zap.Logger
}

// NewReconciler creates a reconciler for a single run
func NewReconciler(repos *repository.Repositories, publisher events.Publisher, runID uuid.UUID, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		catalog:    repos.Catalog,
		categories: NewCategoryResolver(repos.Catalog, repos.Stats, logger),
		rec: &recorder{
			runID:     runID,
			syncLog:   repos.SyncLog,
			publisher: publisher,
			logger:    logger,
		},
		logger: logger,
	}
}

// Reconcile walks items in feed order. skuIndex is updated with every item it creates.
// Item failures are logged and counted; they never stop the pass.
func (r *Reconciler) Reconcile(ctx context.Context, items []domain.LedgerItem, stock map[string]domain.NormalizedStock, skuIndex map[string]string) ReconcileResult {
	var result ReconcileResult
	if skuIndex == nil {
		skuIndex = make(map[string]string)
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			remaining := len(items) - i
			result.Failed += remaining
			syncItemsTotal.WithLabelValues("failed").Add(float64(remaining))
			r.logger.Warn("Reconcile interrupted", zap.Int("remaining", remaining), zap.Error(err))
			break
		}

		if item.Code == "" {
			result.Skipped++
			syncItemsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		created, err := r.reconcileItem(ctx, item, stock, skuIndex)
		switch {
		case err != nil:
			result.Failed++
			syncItemsTotal.WithLabelValues("failed").Inc()
			r.logger.Error("Failed to sync item", zap.String("sku", item.Code), zap.Error(err))
			r.rec.log(ctx, domain.LogLevelError, domain.EventItemFailed, err.Error(), map[string]interface{}{
				"sku":       item.Code,
				"ledger_id": item.ID.String(),
			})
			r.rec.publish(ctx, domain.EventItemFailed, item.Code, map[string]interface{}{"error": err.Error()})
		case created:
			result.Added++
			syncItemsTotal.WithLabelValues("created").Inc()
		default:
			result.Updated++
			syncItemsTotal.WithLabelValues("updated").Inc()
		}
	}

	result.CategoriesCreated = r.categories.Created()
	return result
}

func (r *Reconciler) reconcileItem(ctx context.Context, item domain.LedgerItem, stock map[string]domain.NormalizedStock, skuIndex map[string]string) (bool, error) {
	sku := item.Code

	var categoryID string
	if item.DefaultGroup != "" {
		id, created, err := r.categories.Resolve(ctx, item.DefaultGroup)
		if err != nil {
			return false, &errors.ErrPersistence{Op: "categorize", SKU: sku, Err: err}
		}
		if created {
			r.rec.log(ctx, domain.LogLevelInfo, domain.EventCategoryAdded, "created category "+item.DefaultGroup, map[string]interface{}{
				"category_id": id,
				"name":        item.DefaultGroup,
			})
			r.rec.publish(ctx, domain.EventCategoryAdded, id, map[string]interface{}{"name": item.DefaultGroup})
		}
		categoryID = id
	}

	price := ledger.RetailPrice(item.Prices)

	var available float64
	itemStock, hasStock := stock[sku]
	if hasStock {
		available = itemStock.Available
	}

	metadata := buildMetadata(item, itemStock, hasStock)

	if id, ok := skuIndex[sku]; ok {
		existing, err := r.catalog.GetItem(ctx, id)
		if err != nil {
			return false, &errors.ErrPersistence{Op: "load", SKU: sku, Err: err}
		}

		existing.Name = item.Name
		existing.Description = item.Description
		existing.RegularPrice = price
		existing.ManageStock = true
		existing.StockQuantity = available
		existing.StockStatus = domain.StockStatusFor(available)
		existing.Dimensions = mergeDimensions(existing.Dimensions, item)
		if categoryID != "" {
			existing.CategoryIDs = []string{categoryID}
		}
		if existing.Metadata == nil {
			existing.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			existing.Metadata[k] = v
		}

		if err := r.catalog.UpdateItem(ctx, existing); err != nil {
			return false, &errors.ErrPersistence{Op: "update", SKU: sku, Err: err}
		}

		r.logger.Debug("Updated storefront item", zap.String("sku", sku), zap.String("id", id))
		r.rec.publish(ctx, domain.EventItemUpdated, sku, map[string]interface{}{
			"id":        id,
			"price":     price.String(),
			"available": available,
		})
		return false, nil
	}

	newItem := &domain.StorefrontItem{
		SKU:           sku,
		Name:          item.Name,
		Description:   item.Description,
		Status:        domain.ItemStatusPublish,
		Type:          domain.ItemTypeSimple,
		RegularPrice:  price,
		ManageStock:   true,
		StockQuantity: available,
		StockStatus:   domain.StockStatusFor(available),
		Dimensions:    mergeDimensions(domain.Dimensions{}, item),
		Metadata:      metadata,
	}
	if categoryID != "" {
		newItem.CategoryIDs = []string{categoryID}
	}

	if err := r.catalog.CreateItem(ctx, newItem); err != nil {
		return false, &errors.ErrPersistence{Op: "create", SKU: sku, Err: err}
	}
	skuIndex[sku] = newItem.ID

	r.logger.Debug("Created storefront item", zap.String("sku", sku), zap.String("id", newItem.ID))
	r.rec.publish(ctx, domain.EventItemCreated, sku, map[string]interface{}{
		"id":        newItem.ID,
		"price":     price.String(),
		"available": available,
	})
	return true, nil
}

// mergeDimensions overwrites a dimension only when the ledger value is positive
func mergeDimensions(current domain.Dimensions, item domain.LedgerItem) domain.Dimensions {
	if item.Length > 0 {
		current.Length = item.Length
	}
	if item.Width > 0 {
		current.Width = item.Width
	}
	if item.Height > 0 {
		current.Height = item.Height
	}
	return current
}

func buildMetadata(item domain.LedgerItem, stock domain.NormalizedStock, hasStock bool) map[string]string {
	meta := map[string]string{
		MetaLedgerID:      item.ID.String(),
		MetaType:          item.Type.String(),
		MetaVatRate:       item.VatRate.String(),
		MetaUnit:          item.Unit.String(),
		MetaBarcode:       item.Barcode.String(),
		MetaCatalogNumber: item.CatalogNumber.String(),
		MetaSalesCategory: item.SalesCategory.String(),
		MetaStock:         emptyStockMetadata,
	}

	if hasStock {
		if b, err := json.Marshal(stock); err == nil {
			meta[MetaStock] = string(b)
		}
	}

	for _, p := range item.Prices {
		slug := Slugify(p.Name)
		if slug == "" {
			continue
		}
		meta[MetaPricePrefix+slug] = p.Value.String()
	}

	return meta
}
