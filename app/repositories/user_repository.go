package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindInStore looks up a tenant user by email.
func (r *UserRepository) FindInStore(ctx context.Context, storeID, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND email = ?", storeID, email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindSuperAdmin looks up a platform identity by email.
func (r *UserRepository) FindSuperAdmin(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("store_id IS NULL AND is_super_admin = ? AND email = ?", true, email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// ListStaff returns the STAFF and ADMIN users of a store, oldest first.
func (r *UserRepository) ListStaff(ctx context.Context, storeID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND role IN ?", storeID, []models.Role{models.RoleStaff, models.RoleAdmin}).
		Order("created_at asc").
		Find(&users).Error
	return users, err
}

// CountCustomers counts CUSTOMER users across every store.
func (r *UserRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&n).Error
	return n, err
}
