package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Option is a named configuration record stored as one JSON document.
type Option struct {
	Name      string         `gorm:"primaryKey;size:191;not null"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

type Product struct {
	ID       string          `gorm:"primaryKey;size:64;not null"` // product sku
	ParentID string          `gorm:"size:64;index"`               // set on variations
	Name     string          `gorm:"size:255;not null"`
	Price    decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Currency string          `gorm:"size:8;not null"`
}

func (p *Product) IsVariation() bool {
	return p.ParentID != ""
}

type CartItem struct {
	ID uint `gorm:"primaryKey"`
	// shopper session cookie value
	SessionID   string         `gorm:"size:64;not null;uniqueIndex:idx_cart_line"`
	LineKey     string         `gorm:"size:32;not null;uniqueIndex:idx_cart_line"`
	ProductID   string         `gorm:"size:64;not null"`
	VariationID string         `gorm:"size:64"`
	Quantity    int32          `gorm:"not null"`
	Data        datatypes.JSON // CartItemData
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
