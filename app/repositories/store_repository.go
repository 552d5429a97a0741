package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

// StoreListing is a store with its headline counts for the platform console.
type StoreListing struct {
	models.Store
	UserCount    int64 `json:"userCount"`
	OrderCount   int64 `json:"orderCount"`
	ProductCount int64 `json:"productCount"`
}

type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) FindByID(ctx context.Context, id string) (*models.Store, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *StoreRepository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.first(ctx, "slug = ?", slug)
}

// FindByDomain matches a registered custom domain.
func (r *StoreRepository) FindByDomain(ctx context.Context, domain string) (*models.Store, error) {
	return r.first(ctx, "custom_domain = ?", domain)
}

func (r *StoreRepository) first(ctx context.Context, query string, arg interface{}) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where(query, arg).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns every store, newest first, with user, order and product counts.
func (r *StoreRepository) List(ctx context.Context) ([]StoreListing, error) {
	db := r.db.WithContext(ctx)

	var stores []models.Store
	if err := db.Order("created_at desc").Find(&stores).Error; err != nil {
		return nil, err
	}

	users, err := countByStore(db, &models.User{})
	if err != nil {
		return nil, err
	}
	orders, err := countByStore(db, &models.Order{})
	if err != nil {
		return nil, err
	}
	products, err := countByStore(db, &models.Product{})
	if err != nil {
		return nil, err
	}

	out := make([]StoreListing, len(stores))
	for i, s := range stores {
		out[i] = StoreListing{
			Store:        s,
			UserCount:    users[s.ID],
			OrderCount:   orders[s.ID],
			ProductCount: products[s.ID],
		}
	}
	return out, nil
}

func countByStore(db *gorm.DB, model interface{}) (map[string]int64, error) {
	var rows []struct {
		StoreID string
		N       int64
	}
	err := db.Model(model).
		Select("store_id, COUNT(*) AS n").
		Where("store_id IS NOT NULL").
		Group("store_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.StoreID] = row.N
	}
	return counts, nil
}

// Provision creates store, its first admin and its stages in one transaction.
func (r *StoreRepository) Provision(ctx context.Context, store *models.Store, admin *models.User, stages []models.OrderStage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(store).Error; err != nil {
			return err
		}

		admin.StoreID = &store.ID
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		for i := range stages {
			stages[i].StoreID = store.ID
		}
		if len(stages) > 0 {
			if err := tx.Create(&stages).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetActive flips the active flag and returns the updated store.
func (r *StoreRepository) SetActive(ctx context.Context, id string, active bool) (*models.Store, error) {
	res := r.db.WithContext(ctx).Model(&models.Store{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *StoreRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Store{}).Count(&n).Error
	return n, err
}
