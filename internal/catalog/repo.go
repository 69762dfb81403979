package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/db/models"
)

// Repository reads authoritative product, variant and warehouse records and
// moves stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	ReserveStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error
	FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	SetCourierPickupName(ctx context.Context, warehouseID uuid.UUID, name string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProducts loads many products at once; missing ids are simply absent from the map.
func (r *repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// ReserveStock decrements stock only if enough remains; false means the row
// did not have qty available.
func (r *repository) ReserveStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (bool, error) {
	query := r.stockTarget(ctx, productID, variantID).
		Where("stock >= ?", qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if query.Error != nil {
		return false, query.Error
	}
	return query.RowsAffected == 1, nil
}

func (r *repository) ReleaseStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	return r.stockTarget(ctx, productID, variantID).
		Update("stock", gorm.Expr("stock + ?", qty)).Error
}

func (r *repository) stockTarget(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) *gorm.DB {
	if variantID != nil {
		return r.db.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ?", *variantID, productID)
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID)
}

func (r *repository) FindWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&warehouse).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *repository) SetCourierPickupName(ctx context.Context, warehouseID uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("id = ?", warehouseID).
		Update("courier_pickup_name", name).Error
}
