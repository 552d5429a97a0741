package models

// Role is the tenant-level role of an identity.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleStaff    Role = "STAFF"
	RoleAdmin    Role = "ADMIN"
)

// User is an identity. Tenant users have a StoreID and an email unique
// within that store; superadmins have no store.
type User struct {
	Base
	StoreID      *string `gorm:"type:varchar(36);uniqueIndex:idx_users_email_store" json:"storeId"`
	Email        string  `gorm:"size:255;not null;uniqueIndex:idx_users_email_store" json:"email"`
	Name         string  `gorm:"size:255;not null" json:"name"`
	Password     string  `gorm:"size:255;not null" json:"-"`
	Role         Role    `gorm:"size:20;not null" json:"role"`
	IsSuperAdmin bool    `gorm:"not null" json:"isSuperAdmin"`
}

// BelongsTo reports whether u is a tenant user of storeID.
func (u *User) BelongsTo(storeID string) bool {
	return u.StoreID != nil && *u.StoreID == storeID
}
