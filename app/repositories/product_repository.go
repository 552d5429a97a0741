package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindInStore returns the product only if it belongs to storeID.
func (r *ProductRepository) FindInStore(ctx context.Context, storeID, productID string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", productID, storeID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindVariation returns the variation only if it belongs to productID.
func (r *ProductRepository) FindVariation(ctx context.Context, productID, variationID string) (*models.Variation, error) {
	var v models.Variation
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variationID, productID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByStore returns the catalog of a store with variations.
func (r *ProductRepository) ListByStore(ctx context.Context, storeID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("price asc") }).
		Where("store_id = ?", storeID).
		Order("name asc").
		Find(&products).Error
	return products, err
}

// Create persists p and its variations.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// SetPrice changes the base price of a product.
func (r *ProductRepository) SetPrice(ctx context.Context, productID string, price decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Update("price", price).Error
}
