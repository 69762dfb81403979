package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/enums"
)

// Product is a catalog entry owned by one seller. Variants, when present,
// carry their own price and stock.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerOrgID uuid.UUID           `gorm:"column:seller_org_id;type:uuid;not null;index"`
	Name        string              `gorm:"column:name;not null"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	IsActive    bool                `gorm:"column:is_active;not null;default:true"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	Variants    []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Purchasable reports whether buyers may add the product to an order.
func (p Product) Purchasable() bool {
	return p.IsActive && p.Status == enums.ProductStatusLive
}

// Variant finds a variant by id.
func (p Product) Variant(id uuid.UUID) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

type ProductVariant struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
