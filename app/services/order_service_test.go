package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
)

func TestGuestCheckoutAndStatusUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := f.place(t)

	assert.Equal(t, "26.98", order.Total.StringFixed(2))
	require.NotNil(t, order.Status)
	assert.Equal(t, services.PendingStage, order.Status.Name)
	assert.Equal(t, 0, order.Status.Sequence)
	assert.Nil(t, order.UserID)
	assert.Equal(t, "grace@example.test", order.GuestEmail)
	require.Len(t, order.Items, 2)

	prices := map[string]string{}
	for _, item := range order.Items {
		prices[item.ProductID] = item.Price.StringFixed(2)
	}
	assert.Equal(t, "9.99", prices[f.productA.ID])
	assert.Equal(t, "7.00", prices[f.productB.ID])

	placed := f.published.named(realtime.EventNewOrder)
	require.Len(t, placed, 1)
	assert.Equal(t, realtime.TenantTopic(f.acme.ID), placed[0].Topic)
	var payload struct {
		ID     string `json:"id"`
		Total  float64
		Status struct{ Name string }
	}
	require.NoError(t, json.Unmarshal(placed[0].Data, &payload))
	assert.Equal(t, order.ID, payload.ID)
	assert.Equal(t, 26.98, payload.Total)

	preparing := f.stage(t, f.acme, "Preparing", 1)
	staff := f.user(t, f.acme, "cook@acme.test", models.RoleStaff)

	updated, err := f.engine.UpdateStatus(ctx, scope.Scope{Store: f.acme, Identity: staff}, order.ID, preparing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Preparing", updated.Status.Name)

	var topics []string
	for _, ev := range f.published.named(realtime.EventOrderUpdate) {
		topics = append(topics, ev.Topic)
	}
	assert.ElementsMatch(t, []string{realtime.OrderTopic(order.ID), realtime.TenantTopic(f.acme.ID)}, topics)
}

func TestPlacedPricesAreSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t)

	require.NoError(t, f.products.SetPrice(ctx, f.productA.ID, decimal.RequireFromString("20.00")))

	reloaded, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "26.98", reloaded.Total.StringFixed(2))
	assert.True(t, models.ComputeTotal(reloaded.Items).Equal(reloaded.Total))
}

func TestPlaceRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := f.store(t, "Other", "other")
	foreign := f.product(t, other, "Foreign", "1.00")
	inactive := f.store(t, "Closed", "closed")
	require.NoError(t, f.db.Model(inactive).Update("is_active", false).Error)
	inactive.IsActive = false

	cases := []struct {
		name  string
		scope scope.Scope
		edit  func(*services.PlaceOrderInput)
		want  apperr.Kind
	}{
		{"no tenant", scope.Scope{}, nil, apperr.KindTenantRequired},
		{"inactive store", scope.Scope{Store: inactive}, nil, apperr.KindTenantInactive},
		{"guest without phone", f.guestScope(), func(in *services.PlaceOrderInput) { in.GuestPhone = "" }, apperr.KindGuestInfoRequired},
		{"guest without email", f.guestScope(), func(in *services.PlaceOrderInput) { in.GuestEmail = " " }, apperr.KindGuestInfoRequired},
		{"empty cart", f.guestScope(), func(in *services.PlaceOrderInput) { in.Items = nil }, apperr.KindEmptyCart},
		{"zero quantity", f.guestScope(), func(in *services.PlaceOrderInput) { in.Items[0].Quantity = 0 }, apperr.KindInvalidQuantity},
		{"unknown product", f.guestScope(), func(in *services.PlaceOrderInput) { in.Items[0].ProductID = "missing" }, apperr.KindProductNotFound},
		{"product of another store", f.guestScope(), func(in *services.PlaceOrderInput) { in.Items[1].ProductID = foreign.ID }, apperr.KindProductNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.guestCart()
			if tc.edit != nil {
				tc.edit(&in)
			}
			_, err := f.engine.Place(ctx, tc.scope, in)
			assert.Equal(t, tc.want, apperr.KindOf(err))
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.published.events)
}

func TestUnknownVariationFallsBackToBasePrice(t *testing.T) {
	f := newFixture(t)
	in := f.guestCart()
	bogus := "no-such-variation"
	in.Items = []services.CartLine{{ProductID: f.productB.ID, Quantity: 3, VariationID: &bogus}}

	order, err := f.engine.Place(context.Background(), f.guestScope(), in)
	require.NoError(t, err)
	assert.Equal(t, "15.00", order.Total.StringFixed(2))
	assert.Nil(t, order.Items[0].VariationID)
}

func TestAuthenticatedOrderSkipsGuestInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, f.acme, "ann@acme.test", models.RoleCustomer)
	sc := scope.Scope{Store: f.acme, Identity: customer}

	in := f.guestCart()
	in.GuestEmail, in.GuestPhone = "", ""
	order, err := f.engine.Place(ctx, sc, in)
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, customer.ID, *order.UserID)

	f.place(t)

	mine, err := f.engine.ListMine(ctx, sc)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)

	all, err := f.engine.ListForStore(ctx, sc)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestItemsKeepCartOrder(t *testing.T) {
	f := newFixture(t)
	large := f.large.ID
	in := f.guestCart()
	in.Items = []services.CartLine{
		{ProductID: f.productB.ID, Quantity: 1},
		{ProductID: f.productA.ID, Quantity: 2},
		{ProductID: f.productB.ID, Quantity: 3, VariationID: &large},
		{ProductID: f.productA.ID, Quantity: 4},
		{ProductID: f.productB.ID, Quantity: 5},
	}

	order, err := f.engine.Place(context.Background(), f.guestScope(), in)
	require.NoError(t, err)

	reloaded, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	for _, items := range [][]models.OrderItem{order.Items, reloaded.Items} {
		require.Len(t, items, len(in.Items))
		for i, item := range items {
			assert.Equal(t, i, item.Position)
			assert.Equal(t, in.Items[i].ProductID, item.ProductID)
			assert.Equal(t, in.Items[i].Quantity, item.Quantity)
		}
	}
}

func TestCreateRollsBackWhenALineFails(t *testing.T) {
	f := newFixture(t)
	pending := f.stage(t, f.acme, services.PendingStage, 0)

	order := &models.Order{
		StoreID:  f.acme.ID,
		Total:    decimal.RequireFromString("14.99"),
		Type:     "PICKUP",
		StatusID: pending.ID,
		Items: []models.OrderItem{
			{ProductID: f.productA.ID, Quantity: 1, Price: f.productA.Price},
			{ProductID: "no-such-product", Quantity: 1, Price: decimal.RequireFromString("5.00")},
		},
	}
	require.Error(t, f.orders.Create(context.Background(), order))

	var orders, items int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestPendingStageIsCreatedOnce(t *testing.T) {
	f := newFixture(t)
	f.place(t)
	f.place(t)

	stages, err := f.stages.ListByStore(context.Background(), f.acme.ID)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, services.PendingStage, stages[0].Name)
	assert.Equal(t, 0, stages[0].Sequence)
}

// racingStages lets another writer create the Pending stage between the
// engine's lookup and its insert.
type racingStages struct {
	*repositories.StageRepository
	raced bool
}

func (r *racingStages) FindBySequence(ctx context.Context, storeID string, sequence int) (*models.OrderStage, error) {
	if !r.raced {
		return nil, repositories.ErrNotFound
	}
	return r.StageRepository.FindBySequence(ctx, storeID, sequence)
}

func (r *racingStages) Create(ctx context.Context, stage *models.OrderStage) error {
	if !r.raced {
		r.raced = true
		winner := &models.OrderStage{StoreID: stage.StoreID, Name: services.PendingStage, Sequence: stage.Sequence}
		if err := r.StageRepository.Create(ctx, winner); err != nil {
			return err
		}
	}
	return r.StageRepository.Create(ctx, stage)
}

func TestPendingStageRaceRereadsWinner(t *testing.T) {
	f := newFixture(t)
	stages := &racingStages{StageRepository: f.stages}
	engine := services.NewOrderService(f.orders, f.products, stages, f.published)

	order, err := engine.Place(context.Background(), f.guestScope(), f.guestCart())
	require.NoError(t, err)
	assert.Equal(t, services.PendingStage, order.Status.Name)

	all, err := f.stages.ListByStore(context.Background(), f.acme.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateStatusGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t)
	ready := f.stage(t, f.acme, "Ready", 2)

	other := f.store(t, "Other", "other")
	otherStage := f.stage(t, other, "Ready", 2)
	otherStaff := f.user(t, other, "cook@other.test", models.RoleStaff)
	staff := f.user(t, f.acme, "cook@acme.test", models.RoleStaff)
	root := f.superAdmin(t)

	cases := []struct {
		name    string
		scope   scope.Scope
		orderID string
		stageID string
		want    apperr.Kind
	}{
		{"unknown order", scope.Scope{Store: f.acme, Identity: staff}, "missing", ready.ID, apperr.KindOrderNotFound},
		{"other tenant", scope.Scope{Store: other, Identity: otherStaff}, order.ID, otherStage.ID, apperr.KindTenantMismatch},
		{"stage of other store", scope.Scope{Store: f.acme, Identity: staff}, order.ID, otherStage.ID, apperr.KindStageNotFound},
		{"platform context without superadmin", scope.Scope{Identity: staff}, order.ID, ready.ID, apperr.KindTenantRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.UpdateStatus(ctx, tc.scope, tc.orderID, tc.stageID)
			assert.Equal(t, tc.want, apperr.KindOf(err))
		})
	}
	assert.Empty(t, f.published.named(realtime.EventOrderUpdate))

	updated, err := f.engine.UpdateStatus(ctx, scope.Scope{Identity: root}, order.ID, ready.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ready", updated.Status.Name)
}

func TestAnyStageMayFollowAnyOther(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t)
	delivered := f.stage(t, f.acme, "Delivered", 3)
	sc := scope.Scope{Store: f.acme, Identity: f.user(t, f.acme, "a@acme.test", models.RoleAdmin)}

	_, err := f.engine.UpdateStatus(ctx, sc, order.ID, delivered.ID)
	require.NoError(t, err)
	back, err := f.engine.UpdateStatus(ctx, sc, order.ID, order.StatusID)
	require.NoError(t, err)
	assert.Equal(t, services.PendingStage, back.Status.Name)
}

func TestSalesReportExcludesCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := scope.Scope{Store: f.acme, Identity: f.user(t, f.acme, "a@acme.test", models.RoleAdmin)}

	report, err := f.engine.SalesReport(ctx, sc)
	require.NoError(t, err)
	assert.True(t, report.TotalSales.IsZero())
	assert.Zero(t, report.TotalOrders)

	f.place(t)
	f.place(t)
	third := f.place(t)
	cancelled := f.stage(t, f.acme, repositories.CancelledStage, 4)
	_, err = f.engine.UpdateStatus(ctx, sc, third.ID, cancelled.ID)
	require.NoError(t, err)

	report, err = f.engine.SalesReport(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, "53.96", report.TotalSales.StringFixed(2))
	assert.EqualValues(t, 2, report.TotalOrders)

	_, err = f.engine.SalesReport(ctx, scope.Scope{})
	assert.True(t, apperr.Is(err, apperr.KindTenantRequired))
}

func TestTrackHidesOtherTenantsOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.place(t)
	other := f.store(t, "Other", "other")

	tracked, err := f.engine.Track(ctx, scope.Scope{}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", tracked.Store.Slug)

	_, err = f.engine.Track(ctx, scope.Scope{Store: other}, order.ID)
	assert.True(t, apperr.Is(err, apperr.KindOrderNotFound))

	body, err := json.Marshal(tracked)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"store":{"name":"Acme Eats","slug":"acme","customDomain":null}`)
}

func TestTrackOmitsCustomerAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.user(t, f.acme, "ann@acme.test", models.RoleCustomer)

	in := f.guestCart()
	in.GuestName, in.GuestEmail, in.GuestPhone = "", "", ""
	order, err := f.engine.Place(ctx, scope.Scope{Store: f.acme, Identity: customer}, in)
	require.NoError(t, err)

	tracked, err := f.engine.Track(ctx, scope.Scope{Store: f.acme}, order.ID)
	require.NoError(t, err)
	assert.Nil(t, tracked.User)
	require.Len(t, tracked.Items, 2)

	body, err := json.Marshal(tracked)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "ann@acme.test")
	assert.NotContains(t, string(body), `"user":`)
}

func TestEmissionFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	f.published.err = errors.New("broker unavailable")

	order := f.place(t)
	assert.NotEmpty(t, order.ID)
	assert.Len(t, f.published.named(realtime.EventNewOrder), 1)
}

func TestHubSubscriberSeesOrderPlacedAfterJoin(t *testing.T) {
	f := newFixture(t)
	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	engine := services.NewOrderService(f.orders, f.products, f.stages, hub)
	topic := realtime.TenantTopic(f.acme.ID)

	early := realtime.NewInbox(4)
	require.NoError(t, hub.Join(early, topic))

	order, err := engine.Place(context.Background(), f.guestScope(), f.guestCart())
	require.NoError(t, err)

	late := realtime.NewInbox(4)
	require.NoError(t, hub.Join(late, topic))

	frame := <-early.C()
	var ev struct {
		Event string
		Data  struct{ ID string }
	}
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, realtime.EventNewOrder, ev.Event)
	assert.Equal(t, order.ID, ev.Data.ID)

	select {
	case <-early.C():
		t.Fatal("duplicate event")
	case <-late.C():
		t.Fatal("late subscriber received an earlier event")
	default:
	}
}
