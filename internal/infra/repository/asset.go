package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/infra/database/models"
	"github.com/foodielens/dishbook/internal/usecase"
)

// AssetRepository is the durable hash -> location index.
type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Lookup(ctx context.Context, hash string) (domain.Asset, bool, error) {
	var row models.Asset
	err := r.db.WithContext(ctx).
		Where("content_hash = ?", hash).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Asset{}, false, nil
	}
	if err != nil {
		return domain.Asset{}, false, err
	}

	return domain.Asset{
		ContentHash: row.ContentHash,
		Location:    row.Location,
		ContentType: row.ContentType,
		Size:        row.Size,
		CreatedAt:   row.CreatedAt.UTC(),
	}, true, nil
}

// Save keeps the first mapping written for a hash; later saves are no-ops.
func (r *AssetRepository) Save(ctx context.Context, asset domain.Asset) error {
	row := models.Asset{
		ContentHash: asset.ContentHash,
		Location:    asset.Location,
		ContentType: asset.ContentType,
		Size:        asset.Size,
		CreatedAt:   asset.CreatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&row).Error
}

var _ usecase.AssetIndex = (*AssetRepository)(nil)
