package services

import (
	"context"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
)

type ProductLister interface {
	ListByStore(ctx context.Context, storeID string) ([]models.Product, error)
}

type StageLister interface {
	ListByStore(ctx context.Context, storeID string) ([]models.OrderStage, error)
}

// CatalogService serves the read-only storefront data of the resolved store.
type CatalogService struct {
	products ProductLister
	stages   StageLister
}

func NewCatalogService(products ProductLister, stages StageLister) *CatalogService {
	return &CatalogService{products: products, stages: stages}
}

// StoreInfo returns the resolved store.
func (s *CatalogService) StoreInfo(sc scope.Scope) (*models.Store, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	return sc.Store, nil
}

func (s *CatalogService) Products(ctx context.Context, sc scope.Scope) ([]models.Product, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	products, err := s.products.ListByStore(ctx, sc.StoreID())
	return products, apperr.Wrap("catalog.Products", err)
}

// Stages lists the store's stages by sequence.
func (s *CatalogService) Stages(ctx context.Context, sc scope.Scope) ([]models.OrderStage, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	stages, err := s.stages.ListByStore(ctx, sc.StoreID())
	return stages, apperr.Wrap("catalog.Stages", err)
}
