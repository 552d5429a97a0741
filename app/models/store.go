package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Store is a tenant: an isolated storefront with its own users, catalog,
// order stages and orders.
type Store struct {
	Base
	Name         string        `gorm:"size:255;not null" json:"name"`
	Slug         string        `gorm:"size:100;not null;uniqueIndex" json:"slug"`
	CustomDomain *string       `gorm:"size:255;uniqueIndex" json:"customDomain"`
	IsActive     bool          `gorm:"not null" json:"isActive"`
	Settings     StoreSettings `gorm:"type:text" json:"settings"`
}

// StoreSettings is the free-form settings blob of a store.
type StoreSettings struct {
	DeliveryFee  decimal.Decimal `json:"deliveryFee"`
	MinOrder     decimal.Decimal `json:"minOrder"`
	DeliveryTime string          `json:"deliveryTime,omitempty"`
}

// Value stores the settings as JSON text.
func (s StoreSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads settings written by Value. NULL leaves the zero value.
func (s *StoreSettings) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = StoreSettings{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("models: cannot scan %T into StoreSettings", src)
	}
}

// StoreSummary is the public view of a store embedded in tracked orders.
type StoreSummary struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	CustomDomain *string `json:"customDomain"`
}

func (s *Store) Summary() StoreSummary {
	return StoreSummary{Name: s.Name, Slug: s.Slug, CustomDomain: s.CustomDomain}
}
