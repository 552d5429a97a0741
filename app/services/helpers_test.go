package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/auth"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/database"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) named(name string) []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Event
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	stores   *repositories.StoreRepository
	users    *repositories.UserRepository
	products *repositories.ProductRepository
	stages   *repositories.StageRepository
	orders   *repositories.OrderRepository
	issuer   *auth.Issuer

	published *recorder
	engine    *services.OrderService

	acme     *models.Store
	productA *models.Product
	productB *models.Product
	large    *models.Variation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.OpenTest(t, models.All()...)

	f := &fixture{
		db:        db,
		stores:    repositories.NewStoreRepository(db),
		users:     repositories.NewUserRepository(db),
		products:  repositories.NewProductRepository(db),
		stages:    repositories.NewStageRepository(db),
		orders:    repositories.NewOrderRepository(db),
		issuer:    auth.NewIssuer("test-secret", time.Hour),
		published: &recorder{},
	}
	f.engine = services.NewOrderService(f.orders, f.products, f.stages, f.published)

	f.acme = f.store(t, "Acme Eats", "acme")
	f.productA = f.product(t, f.acme, "A", "9.99")
	f.productB = f.product(t, f.acme, "B", "5.00")
	f.large = &models.Variation{ProductID: f.productB.ID, Name: "Large", Price: decimal.RequireFromString("7.00")}
	require.NoError(t, db.Create(f.large).Error)
	return f
}

func (f *fixture) store(t *testing.T, name, slug string) *models.Store {
	t.Helper()
	s := &models.Store{Name: name, Slug: slug, IsActive: true}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

func (f *fixture) product(t *testing.T, store *models.Store, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{StoreID: store.ID, Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stage(t *testing.T, store *models.Store, name string, sequence int) *models.OrderStage {
	t.Helper()
	s := &models.OrderStage{StoreID: store.ID, Name: name, Sequence: sequence}
	require.NoError(t, f.stages.Create(context.Background(), s))
	return s
}

func (f *fixture) user(t *testing.T, store *models.Store, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{Name: email, Email: email, Password: hash, Role: role}
	if store != nil {
		u.StoreID = &store.ID
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) superAdmin(t *testing.T) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	u := &models.User{Name: "Root", Email: "root@platform.test", Password: hash, Role: models.RoleAdmin, IsSuperAdmin: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

// guestCart is the two-line cart used across the order tests: 2×A plus one
// Large B, 26.98 in total.
func (f *fixture) guestCart() services.PlaceOrderInput {
	large := f.large.ID
	return services.PlaceOrderInput{
		Items: []services.CartLine{
			{ProductID: f.productA.ID, Quantity: 2},
			{ProductID: f.productB.ID, Quantity: 1, VariationID: &large},
		},
		Type:       "DELIVERY",
		GuestName:  "Grace",
		GuestEmail: "grace@example.test",
		GuestPhone: "+30 210 000 0000",
	}
}

func (f *fixture) guestScope() scope.Scope {
	return scope.Scope{Store: f.acme}
}

func (f *fixture) place(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.engine.Place(context.Background(), f.guestScope(), f.guestCart())
	require.NoError(t, err)
	return order
}
