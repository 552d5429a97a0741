package migrations

import (
	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_stores_table", table(&models.Store{}, "stores"))
	migration.Register("20260101000001_create_users_table", table(&models.User{}, "users"))
	migration.Register("20260101000002_create_order_stages_table", table(&models.OrderStage{}, "order_stages"))
	migration.Register("20260101000003_create_products_table", table(&models.Product{}, "products"))
	migration.Register("20260101000004_create_variations_table", table(&models.Variation{}, "variations"))
	migration.Register("20260101000005_create_orders_table", table(&models.Order{}, "orders"))
	migration.Register("20260101000006_create_order_items_table", table(&models.OrderItem{}, "order_items"))
}

// createTable auto-migrates one model and drops its table on rollback.
type createTable struct {
	model interface{}
	name  string
}

func table(model interface{}, name string) *createTable {
	return &createTable{model: model, name: name}
}

func (m *createTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m *createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}
