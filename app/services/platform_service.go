package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/auth"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/database"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
)

// DefaultStages are the stages every new store starts with.
var DefaultStages = []string{PendingStage, "Preparing", "Ready", "Delivered", repositories.CancelledStage}

// StoreAdmin is what the platform console needs from store persistence.
type StoreAdmin interface {
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	List(ctx context.Context) ([]repositories.StoreListing, error)
	Provision(ctx context.Context, store *models.Store, admin *models.User, stages []models.OrderStage) error
	SetActive(ctx context.Context, id string, active bool) (*models.Store, error)
	Count(ctx context.Context) (int64, error)
}

// PlatformStats is what analytics reads from users and orders.
type PlatformStats interface {
	CountCustomers(ctx context.Context) (int64, error)
}

type OrderStats interface {
	Count(ctx context.Context) (int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// NewStoreInput provisions a store and its first admin.
type NewStoreInput struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Slug         string  `json:"slug" validate:"required,slug,max=100"`
	CustomDomain *string `json:"customDomain" validate:"nullable,hostname"`
	Email        string  `json:"email" validate:"required,email,max=255"`
	Password     string  `json:"password" validate:"required,min=6"`
}

// Analytics is the platform dashboard summary.
type Analytics struct {
	TotalStores  int64           `json:"totalStores"`
	TotalUsers   int64           `json:"totalUsers"`
	TotalOrders  int64           `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// PlatformService backs the superadmin console.
type PlatformService struct {
	stores StoreAdmin
	users  PlatformStats
	orders OrderStats
}

func NewPlatformService(stores StoreAdmin, users PlatformStats, orders OrderStats) *PlatformService {
	return &PlatformService{stores: stores, users: users, orders: orders}
}

func (s *PlatformService) ListStores(ctx context.Context) ([]repositories.StoreListing, error) {
	stores, err := s.stores.List(ctx)
	return stores, apperr.Wrap("platform.ListStores", err)
}

// CreateStore provisions an active store with an ADMIN user and the default
// stages in one transaction.
func (s *PlatformService) CreateStore(ctx context.Context, in NewStoreInput) (*models.Store, error) {
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	in.Slug = slug
	if err := check(in); err != nil {
		return nil, err
	}

	if _, err := s.stores.FindBySlug(ctx, slug); err == nil {
		return nil, apperr.New(apperr.KindConflict, "Store slug already exists")
	} else if !repositories.IsNotFound(err) {
		return nil, apperr.Wrap("platform.CreateStore", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap("platform.CreateStore", err)
	}

	var domain *string
	if in.CustomDomain != nil && strings.TrimSpace(*in.CustomDomain) != "" {
		d := normalizeHost(*in.CustomDomain)
		domain = &d
	}

	store := &models.Store{
		Name:         strings.TrimSpace(in.Name),
		Slug:         slug,
		CustomDomain: domain,
		IsActive:     true,
	}
	admin := &models.User{
		Name:     store.Name + " Admin",
		Email:    normalizeEmail(in.Email),
		Password: hash,
		Role:     models.RoleAdmin,
	}
	stages := make([]models.OrderStage, len(DefaultStages))
	for i, name := range DefaultStages {
		stages[i] = models.OrderStage{Name: name, Sequence: i}
	}

	if err := s.stores.Provision(ctx, store, admin, stages); err != nil {
		if database.IsDuplicate(err) {
			return nil, apperr.New(apperr.KindConflict, "Store slug or domain already exists")
		}
		return nil, apperr.Wrap("platform.CreateStore", err)
	}

	logger.WithCtx(ctx).Info("store provisioned", "store_id", store.ID, "slug", store.Slug)
	return store, nil
}

// SetStoreActive suspends or reactivates a store.
func (s *PlatformService) SetStoreActive(ctx context.Context, id string, active bool) (*models.Store, error) {
	store, err := s.stores.SetActive(ctx, id, active)
	if repositories.IsNotFound(err) {
		return nil, apperr.New(apperr.KindStoreNotFound, "")
	}
	if err != nil {
		return nil, apperr.Wrap("platform.SetStoreActive", err)
	}
	logger.WithCtx(ctx).Info("store status changed", "store_id", id, "active", active)
	return store, nil
}

// Analytics counts stores, customers and orders, and sums every order's
// total.
func (s *PlatformService) Analytics(ctx context.Context) (*Analytics, error) {
	var out Analytics
	var err error

	if out.TotalStores, err = s.stores.Count(ctx); err != nil {
		return nil, apperr.Wrap("platform.Analytics", err)
	}
	if out.TotalUsers, err = s.users.CountCustomers(ctx); err != nil {
		return nil, apperr.Wrap("platform.Analytics", err)
	}
	if out.TotalOrders, err = s.orders.Count(ctx); err != nil {
		return nil, apperr.Wrap("platform.Analytics", err)
	}
	revenue, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, apperr.Wrap("platform.Analytics", err)
	}
	out.TotalRevenue = revenue.Round(2)
	return &out, nil
}
