package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

type StageRepository struct {
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) FindBySequence(ctx context.Context, storeID string, sequence int) (*models.OrderStage, error) {
	var stage models.OrderStage
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND sequence = ?", storeID, sequence).
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// FindInStore returns the stage only if it belongs to storeID.
func (r *StageRepository) FindInStore(ctx context.Context, storeID, stageID string) (*models.OrderStage, error) {
	var stage models.OrderStage
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", stageID, storeID).
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// Create inserts stage. A concurrent insert at the same (store, sequence)
// fails with a duplicate-key error.
func (r *StageRepository) Create(ctx context.Context, stage *models.OrderStage) error {
	return r.db.WithContext(ctx).Create(stage).Error
}

func (r *StageRepository) ListByStore(ctx context.Context, storeID string) ([]models.OrderStage, error) {
	var stages []models.OrderStage
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("sequence asc").Find(&stages).Error
	return stages, err
}
