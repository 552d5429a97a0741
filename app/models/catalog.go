package models

import "github.com/shopspring/decimal"

// Product is a catalog entry of a store.
type Product struct {
	Base
	StoreID     string          `gorm:"type:varchar(36);not null;index" json:"storeId"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Variations  []Variation     `json:"variations,omitempty"`
}

// Variation is a priced option of a product (e.g. "Large"). Its price
// replaces the product's base price.
type Variation struct {
	Base
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"productId"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}
