// Package models holds the gorm models of the delivery platform. Every
// tenant-owned row carries a StoreID.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices and totals serialise as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base gives every model a UUID primary key and timestamps.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id when the caller did not.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Store{},
		&User{},
		&OrderStage{},
		&Product{},
		&Variation{},
		&Order{},
		&OrderItem{},
	}
}
