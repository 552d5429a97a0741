package services

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/database"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/metrics"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
)

const (
	// PendingStage is the stage every new order starts in.
	PendingStage    = "Pending"
	pendingSequence = 0
	lookupLimit     = 8
)

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindForTracking(ctx context.Context, id string) (*models.Order, error)
	SetStatus(ctx context.Context, orderID, stageID string) error
	ListByStore(ctx context.Context, storeID string) ([]models.Order, error)
	ListByUser(ctx context.Context, userID, storeID string) ([]models.Order, error)
	Sales(ctx context.Context, storeID string) (repositories.Sales, error)
}

// PriceCatalog resolves live catalog prices.
type PriceCatalog interface {
	FindInStore(ctx context.Context, storeID, productID string) (*models.Product, error)
	FindVariation(ctx context.Context, productID, variationID string) (*models.Variation, error)
}

// StageStore reads and lazily creates order stages.
type StageStore interface {
	FindBySequence(ctx context.Context, storeID string, sequence int) (*models.OrderStage, error)
	FindInStore(ctx context.Context, storeID, stageID string) (*models.OrderStage, error)
	Create(ctx context.Context, stage *models.OrderStage) error
}

// CartLine is one requested line. Prices are never taken from the client.
type CartLine struct {
	ProductID   string  `json:"productId"`
	Quantity    int     `json:"quantity"`
	VariationID *string `json:"variationId"`
}

// PlaceOrderInput is the checkout request.
type PlaceOrderInput struct {
	Items           []CartLine `json:"items"`
	Type            string     `json:"type"`
	DeliveryAddress *string    `json:"deliveryAddress"`
	GuestName       string     `json:"guestName"`
	GuestEmail      string     `json:"guestEmail"`
	GuestPhone      string     `json:"guestPhone"`
}

// SalesReport is the tenant sales summary. Cancelled orders are excluded.
type SalesReport struct {
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalOrders int64           `json:"totalOrders"`
}

// TrackedOrder is an order as shown on the public tracking page.
type TrackedOrder struct {
	*models.Order
	Store models.StoreSummary `json:"store"`
}

// OrderService is the order engine: checkout, stage transitions, listings
// and the sales report. Successful state changes are announced through the
// publisher; announcement failures never fail the operation.
type OrderService struct {
	orders    OrderStore
	catalog   PriceCatalog
	stages    StageStore
	publisher realtime.Publisher
}

func NewOrderService(orders OrderStore, catalog PriceCatalog, stages StageStore, publisher realtime.Publisher) *OrderService {
	return &OrderService{orders: orders, catalog: catalog, stages: stages, publisher: publisher}
}

// Place validates the cart against live prices and persists the order in
// the store's initial stage.
func (s *OrderService) Place(ctx context.Context, sc scope.Scope, in PlaceOrderInput) (*models.Order, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	if !sc.Store.IsActive {
		return nil, apperr.New(apperr.KindTenantInactive, "")
	}

	guest := sc.Identity == nil
	if guest && (strings.TrimSpace(in.GuestEmail) == "" || strings.TrimSpace(in.GuestPhone) == "") {
		return nil, apperr.New(apperr.KindGuestInfoRequired, "")
	}
	if len(in.Items) == 0 {
		return nil, apperr.New(apperr.KindEmptyCart, "")
	}
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, apperr.New(apperr.KindInvalidQuantity, "")
		}
	}

	storeID := sc.StoreID()
	items, err := s.priceLines(ctx, storeID, in.Items)
	if err != nil {
		return nil, err
	}

	stage, err := s.initialStage(ctx, storeID)
	if err != nil {
		return nil, apperr.Wrap("orders.Place", err)
	}

	order := &models.Order{
		StoreID:         storeID,
		Total:           models.ComputeTotal(items),
		Type:            in.Type,
		DeliveryAddress: in.DeliveryAddress,
		StatusID:        stage.ID,
		Items:           items,
	}
	if guest {
		order.GuestName = strings.TrimSpace(in.GuestName)
		order.GuestEmail = strings.TrimSpace(in.GuestEmail)
		order.GuestPhone = strings.TrimSpace(in.GuestPhone)
	} else {
		order.UserID = &sc.Identity.ID
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Wrap("orders.Place", err)
	}

	placed, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, apperr.Wrap("orders.Place", err)
	}

	metrics.OrdersPlaced.WithLabelValues(sc.Store.Slug).Inc()
	logger.WithCtx(ctx).Info("order placed", "order_id", placed.ID, "total", placed.Total.StringFixed(2), "guest", guest)

	s.announce(ctx, realtime.EventNewOrder, placed, realtime.TenantTopic(storeID))
	return placed, nil
}

// priceLines looks every line up concurrently and captures its unit price.
func (s *OrderService) priceLines(ctx context.Context, storeID string, lines []CartLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupLimit)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			item, err := s.priceLine(gctx, storeID, line)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *OrderService) priceLine(ctx context.Context, storeID string, line CartLine) (models.OrderItem, error) {
	product, err := s.catalog.FindInStore(ctx, storeID, line.ProductID)
	if repositories.IsNotFound(err) {
		return models.OrderItem{}, apperr.Newf(apperr.KindProductNotFound, "Product %s not found", line.ProductID)
	}
	if err != nil {
		return models.OrderItem{}, apperr.Wrap("orders.priceLine", err)
	}

	item := models.OrderItem{
		ProductID: product.ID,
		Quantity:  line.Quantity,
		Price:     product.Price,
	}

	if line.VariationID != nil && *line.VariationID != "" {
		variation, err := s.catalog.FindVariation(ctx, product.ID, *line.VariationID)
		switch {
		case err == nil:
			item.Price = variation.Price
			item.VariationID = &variation.ID
		case !repositories.IsNotFound(err):
			return models.OrderItem{}, apperr.Wrap("orders.priceLine", err)
		}
	}
	return item, nil
}

// initialStage returns the store's sequence-0 stage, creating "Pending" the
// first time. Losing the creation race to another request is resolved by
// reading the winner's row.
func (s *OrderService) initialStage(ctx context.Context, storeID string) (*models.OrderStage, error) {
	stage, err := s.stages.FindBySequence(ctx, storeID, pendingSequence)
	if err == nil {
		return stage, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, err
	}

	stage = &models.OrderStage{StoreID: storeID, Name: PendingStage, Sequence: pendingSequence}
	if err := s.stages.Create(ctx, stage); err != nil {
		if !database.IsDuplicate(err) {
			return nil, err
		}
		logger.WithCtx(ctx).Debug("pending stage created concurrently, re-reading", "store_id", storeID)
		return s.stages.FindBySequence(ctx, storeID, pendingSequence)
	}
	return stage, nil
}

// UpdateStatus moves an order of the caller's store to one of that store's
// stages. Any stage may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, sc scope.Scope, orderID, stageID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if repositories.IsNotFound(err) {
		return nil, apperr.New(apperr.KindOrderNotFound, "")
	}
	if err != nil {
		return nil, apperr.Wrap("orders.UpdateStatus", err)
	}

	switch {
	case sc.HasStore():
		if order.StoreID != sc.StoreID() {
			return nil, apperr.New(apperr.KindTenantMismatch, "")
		}
	case !sc.IsSuperAdmin():
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}

	stage, err := s.stages.FindInStore(ctx, order.StoreID, stageID)
	if repositories.IsNotFound(err) {
		return nil, apperr.New(apperr.KindStageNotFound, "")
	}
	if err != nil {
		return nil, apperr.Wrap("orders.UpdateStatus", err)
	}

	if err := s.orders.SetStatus(ctx, order.ID, stage.ID); err != nil {
		return nil, apperr.Wrap("orders.UpdateStatus", err)
	}

	updated, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, apperr.Wrap("orders.UpdateStatus", err)
	}

	storeLabel := order.StoreID
	if order.Store != nil {
		storeLabel = order.Store.Slug
	}
	metrics.OrderStatusUpdates.WithLabelValues(storeLabel).Inc()
	logger.WithCtx(ctx).Info("order status changed", "order_id", order.ID, "status", stage.Name)

	s.announce(ctx, realtime.EventOrderUpdate, updated,
		realtime.OrderTopic(updated.ID),
		realtime.TenantTopic(updated.StoreID),
	)
	return updated, nil
}

// ListForStore returns every order of the caller's store, newest first.
func (s *OrderService) ListForStore(ctx context.Context, sc scope.Scope) ([]models.Order, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	orders, err := s.orders.ListByStore(ctx, sc.StoreID())
	return orders, apperr.Wrap("orders.ListForStore", err)
}

// ListMine returns the caller's own orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, sc scope.Scope) ([]models.Order, error) {
	if sc.Identity == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "")
	}
	orders, err := s.orders.ListByUser(ctx, sc.Identity.ID, sc.StoreID())
	return orders, apperr.Wrap("orders.ListMine", err)
}

// Track returns one order for the public tracking page. Orders of another
// store than the resolved one are reported as missing. The customer account
// is not part of the result.
func (s *OrderService) Track(ctx context.Context, sc scope.Scope, orderID string) (*TrackedOrder, error) {
	order, err := s.orders.FindForTracking(ctx, orderID)
	if repositories.IsNotFound(err) {
		return nil, apperr.New(apperr.KindOrderNotFound, "")
	}
	if err != nil {
		return nil, apperr.Wrap("orders.Track", err)
	}
	if sc.HasStore() && order.StoreID != sc.StoreID() {
		return nil, apperr.New(apperr.KindOrderNotFound, "")
	}

	tracked := &TrackedOrder{Order: order}
	if order.Store != nil {
		tracked.Store = order.Store.Summary()
	}
	return tracked, nil
}

// Exists reports whether orderID is an order visible from sc.
func (s *OrderService) Exists(ctx context.Context, sc scope.Scope, orderID string) error {
	_, err := s.Track(ctx, sc, orderID)
	return err
}

// SalesReport sums the store's non-cancelled orders.
func (s *OrderService) SalesReport(ctx context.Context, sc scope.Scope) (*SalesReport, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	sales, err := s.orders.Sales(ctx, sc.StoreID())
	if err != nil {
		return nil, apperr.Wrap("orders.SalesReport", err)
	}
	return &SalesReport{TotalSales: sales.Total.Round(2), TotalOrders: sales.Count}, nil
}

func (s *OrderService) announce(ctx context.Context, name string, order *models.Order, topics ...string) {
	if s.publisher == nil {
		return
	}
	log := logger.WithCtx(ctx)
	for _, topic := range topics {
		ev, err := realtime.NewEvent(name, topic, order)
		if err == nil {
			err = s.publisher.Publish(ctx, ev)
		}
		if err != nil {
			log.Warn("realtime emission failed", "event", name, "topic", topic, "order_id", order.ID, "error", err)
		}
	}
}
