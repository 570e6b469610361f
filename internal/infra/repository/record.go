package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/infra/database/models"
	"github.com/foodielens/dishbook/internal/usecase"
)

// RecordRepository is the append-native record table. The database assigns
// Seq and serializes concurrent inserts, so no application lock is needed.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func toModel(record domain.Record) models.Record {
	return models.Record{
		RecordID:      record.ID,
		Name:          record.Name,
		Description:   record.Description,
		Country:       record.Country,
		State:         record.State,
		Tribe:         record.Tribe,
		AssetHash:     record.Asset.ContentHash,
		AssetLocation: record.Asset.Location,
		CreatedAt:     record.CreatedAt,
	}
}

func fromModel(m models.Record) domain.Record {
	return domain.Record{
		ID:          m.RecordID,
		Name:        m.Name,
		Description: m.Description,
		Country:     m.Country,
		State:       m.State,
		Tribe:       m.Tribe,
		Asset: domain.AssetRef{
			ContentHash: m.AssetHash,
			Location:    m.AssetLocation,
		},
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func (r *RecordRepository) AppendRow(ctx context.Context, record domain.Record) error {
	row := toModel(record)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
}

func (r *RecordRepository) Rows(ctx context.Context, after int64, limit int) ([]usecase.Row, error) {
	var rows []models.Record
	err := r.db.WithContext(ctx).
		Where("seq > ?", after).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]usecase.Row, 0, len(rows))
	for _, row := range rows {
		result = append(result, usecase.Row{Seq: row.Seq, Record: fromModel(row)})
	}
	return result, nil
}

func (r *RecordRepository) Get(ctx context.Context, id string) (domain.Record, error) {
	var row models.Record
	err := r.db.WithContext(ctx).
		Where("record_id = ?", id).
		Take(&row).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Record{}, domain.NotFoundError{Resource: "record"}
	}
	if err != nil {
		return domain.Record{}, err
	}
	return fromModel(row), nil
}

func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Record{}).Count(&count).Error
	return count, err
}

var _ usecase.RowAppender = (*RecordRepository)(nil)
