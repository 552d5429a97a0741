package seeders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/config"
)

func init() {
	Register("superadmin", SeedSuperAdmin)
	Register("demo_store", SeedDemoStore)
}

// SeedSuperAdmin creates the platform superadmin from SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD.
func SeedSuperAdmin(ctx context.Context, db *gorm.DB) error {
	users := repositories.NewUserRepository(db)
	email := config.Get("SEED_ADMIN_EMAIL", "admin@platform.local")

	if _, err := users.FindSuperAdmin(ctx, email); err == nil {
		return nil
	}
	svc := services.NewAuthService(users, nil)
	_, err := svc.CreateSuperAdmin(ctx, services.Credentials{
		Name:     "Platform Admin",
		Email:    email,
		Password: config.Get("SEED_ADMIN_PASSWORD", "change-me"),
	})
	return err
}

// SeedDemoStore provisions the "acme" store with a small catalog.
func SeedDemoStore(ctx context.Context, db *gorm.DB) error {
	stores := repositories.NewStoreRepository(db)
	if _, err := stores.FindBySlug(ctx, "acme"); err == nil {
		return nil
	}

	platform := services.NewPlatformService(stores, repositories.NewUserRepository(db), repositories.NewOrderRepository(db))
	store, err := platform.CreateStore(ctx, services.NewStoreInput{
		Name:     "Acme Eats",
		Slug:     "acme",
		Email:    "owner@acme.local",
		Password: config.Get("SEED_ADMIN_PASSWORD", "change-me"),
	})
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		margherita := &models.Product{StoreID: store.ID, Name: "Margherita", Description: "Tomato, mozzarella, basil", Price: decimal.RequireFromString("9.99")}
		if err := tx.Create(margherita).Error; err != nil {
			return err
		}
		fries := &models.Product{StoreID: store.ID, Name: "Fries", Description: "Hand-cut", Price: decimal.RequireFromString("5.00")}
		if err := tx.Create(fries).Error; err != nil {
			return err
		}
		return tx.Create(&models.Variation{ProductID: fries.ID, Name: "Large", Price: decimal.RequireFromString("7.00")}).Error
	})
}
