package migrations

import (
	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/migration"
)

func init() {
	migration.Register("20260101000007_add_superadmin_email_index", &superAdminEmail{})
}

// superAdminEmail makes superadmin emails unique. idx_users_email_store does
// not cover them because their store_id is NULL and NULLs never collide.
// MySQL has no partial indexes, so it indexes a generated column instead.
type superAdminEmail struct{}

func (superAdminEmail) Up(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		if err := db.Exec("ALTER TABLE users ADD COLUMN superadmin_email VARCHAR(255) " +
			"AS (IF(store_id IS NULL, email, NULL)) STORED").Error; err != nil {
			return err
		}
		return db.Exec("CREATE UNIQUE INDEX idx_users_superadmin_email ON users (superadmin_email)").Error
	}
	return db.Exec("CREATE UNIQUE INDEX idx_users_superadmin_email ON users (email) WHERE store_id IS NULL").Error
}

func (superAdminEmail) Down(db *gorm.DB) error {
	if err := db.Migrator().DropIndex("users", "idx_users_superadmin_email"); err != nil {
		return err
	}
	if db.Dialector.Name() == "mysql" {
		return db.Migrator().DropColumn("users", "superadmin_email")
	}
	return nil
}
