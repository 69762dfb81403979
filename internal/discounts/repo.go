package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stondral/tsew-sub002/pkg/db/models"
)

// Repository persists discount codes. Codes are matched in their uppercased form.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	Create(ctx context.Context, code *models.DiscountCode) error
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, code string) error
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

func (r *repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var record models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("code = ?", NormalizeCode(code)).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) Create(ctx context.Context, code *models.DiscountCode) error {
	code.Code = NormalizeCode(code.Code)
	return r.db.WithContext(ctx).Create(code).Error
}

// Consume bumps used_count only while the code is active and under its
// limit. false means another checkout took the last use.
func (r *repository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND is_active = ?", id, true).
		Where("usage_limit IS NULL OR used_count < usage_limit").
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release gives back one use, never dropping below zero.
func (r *repository) Release(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("code = ? AND used_count > 0", NormalizeCode(code)).
		Update("used_count", gorm.Expr("used_count - 1")).Error
}

// NormalizeCode trims and uppercases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
