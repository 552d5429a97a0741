package models

import "github.com/shopspring/decimal"

// OrderStage is one step of a store's order lifecycle. Sequence is unique per
// store; sequence 0 is the stage new orders start in.
type OrderStage struct {
	Base
	StoreID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_stages_store_sequence" json:"storeId"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Sequence int    `gorm:"not null;uniqueIndex:idx_stages_store_sequence" json:"sequence"`
}

// Order is immutable after creation except for StatusID.
type Order struct {
	Base
	StoreID         string          `gorm:"type:varchar(36);not null;index" json:"storeId"`
	Store           *Store          `gorm:"foreignKey:StoreID" json:"-"`
	UserID          *string         `gorm:"type:varchar(36);index" json:"userId"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GuestName       string          `gorm:"size:255" json:"guestName,omitempty"`
	GuestEmail      string          `gorm:"size:255" json:"guestEmail,omitempty"`
	GuestPhone      string          `gorm:"size:50" json:"guestPhone,omitempty"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Type            string          `gorm:"size:50" json:"type"`
	DeliveryAddress *string         `gorm:"type:text" json:"deliveryAddress"`
	StatusID        string          `gorm:"type:varchar(36);not null;index" json:"statusId"`
	Status          *OrderStage     `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem is one captured cart line. Price is the unit price at the moment
// the order was placed; Position is the line's index in the submitted cart.
type OrderItem struct {
	Base
	OrderID     string          `gorm:"type:varchar(36);not null;index" json:"orderId"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	ProductID   string          `gorm:"type:varchar(36);not null" json:"productId"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	VariationID *string         `gorm:"type:varchar(36)" json:"variationId"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

// LineTotal is Price × Quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the line totals of items.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
