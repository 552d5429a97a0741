package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

// CancelledStage is the stage name excluded from sales figures.
const CancelledStage = "Cancelled"

// Sales is the aggregate behind the sales report and platform analytics.
type Sales struct {
	Total decimal.Decimal
	Count int64
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create writes the order and its items in one transaction. Items are
// numbered in slice order. Associations other than Items are never written.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

func (r *OrderRepository) withLines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Items.Product").
		Preload("Status")
}

func (r *OrderRepository) detailed(ctx context.Context) *gorm.DB {
	return r.withLines(ctx).Preload("User")
}

// FindByID loads an order with items, products, stage, customer and store.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.detailed(ctx).Preload("Store").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForTracking loads what the public tracking page shows: items, products,
// stage and store. The customer is never loaded.
func (r *OrderRepository) FindForTracking(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.withLines(ctx).Preload("Store").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// SetStatus moves the order to stageID.
func (r *OrderRepository) SetStatus(ctx context.Context, orderID, stageID string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("status_id", stageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStore returns a store's orders, newest first.
func (r *OrderRepository) ListByStore(ctx context.Context, storeID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.detailed(ctx).Where("store_id = ?", storeID).Order("created_at desc").Find(&orders).Error
	return orders, err
}

// ListByUser returns a customer's orders, newest first. A non-empty storeID
// narrows them to that store.
func (r *OrderRepository) ListByUser(ctx context.Context, userID, storeID string) ([]models.Order, error) {
	q := r.detailed(ctx).Where("user_id = ?", userID)
	if storeID != "" {
		q = q.Where("store_id = ?", storeID)
	}

	var orders []models.Order
	err := q.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// Sales sums the orders of storeID whose stage is not Cancelled. An empty
// storeID aggregates every store.
func (r *OrderRepository) Sales(ctx context.Context, storeID string) (Sales, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN order_stages ON order_stages.id = orders.status_id").
		Where("order_stages.name <> ?", CancelledStage)
	if storeID != "" {
		q = q.Where("orders.store_id = ?", storeID)
	}

	var row struct {
		Total decimal.NullDecimal
		Count int64
	}
	if err := q.Select("SUM(orders.total) AS total, COUNT(*) AS count").Scan(&row).Error; err != nil {
		return Sales{}, err
	}

	out := Sales{Total: decimal.Zero, Count: row.Count}
	if row.Total.Valid {
		out.Total = row.Total.Decimal
	}
	return out, nil
}

// Count counts every order on the platform.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

// Revenue sums the totals of every order on the platform, whatever its stage.
func (r *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var row struct{ Total decimal.NullDecimal }
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Select("SUM(total) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}
