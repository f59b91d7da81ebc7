package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/pkg/db/models"
)

// Repository loads catalog data for checkout. Writes to the catalog happen
// through the admin surface, outside this service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.Variant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Inventory").
		Where("id IN ?", ids).
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}
