package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderTypeShop = "shop_order"

	// SubscriptionPhoneMetaKey marks orders that contain at least one
	// subscription line.
	SubscriptionPhoneMetaKey = "subscription_contact_phone"
)

// Registered order statuses. Anything else (drafts, trash) is not an order
// for reporting purposes.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusOnHold     = "on-hold"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	OrderStatusFailed     = "failed"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusOnHold,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusFailed,
}

// Order is the storage independent view of an order.
type Order struct {
	ID        uint
	Status    string
	Currency  string
	Total     decimal.Decimal
	Billing   Billing
	CreatedAt time.Time
	Meta      map[string]string
	Items     []*OrderItem
}

func (o *Order) GetMeta(key string) string {
	if o.Meta == nil {
		return ""
	}
	return o.Meta[key]
}

func (o *Order) SetMeta(key, value string) {
	if o.Meta == nil {
		o.Meta = make(map[string]string)
	}
	o.Meta[key] = value
}

type Billing struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (b Billing) FormattedFullName() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{b.FirstName, b.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type OrderItem struct {
	ID          uint
	ProductID   string
	VariationID string
	Name        string
	Quantity    int32
	Subtotal    decimal.Decimal // undiscounted line price
	Total       decimal.Decimal
	Meta        []MetaEntry
}

type OrderSortField string

const (
	OrderSortByID   OrderSortField = "id"
	OrderSortByDate OrderSortField = "date"
)

// OrderMetaQuery selects orders carrying a non-empty value for MetaKey.
// PerPage 0 means no limit.
type OrderMetaQuery struct {
	MetaKey    string
	OrderBy    OrderSortField
	Descending bool
	Page       int
	PerPage    int
}

// ---- legacy layout: orders as posts ----

const (
	PostTypeShopOrder    = OrderTypeShop
	LegacyStatusPrefix   = "wc-"
	LegacyMetaBillingFN  = "_billing_first_name"
	LegacyMetaBillingLN  = "_billing_last_name"
	LegacyMetaBillingEM  = "_billing_email"
	LegacyMetaBillingPH  = "_billing_phone"
	LegacyMetaOrderTotal = "_order_total"
	LegacyMetaCurrency   = "_order_currency"
)

type Post struct {
	ID           uint      `gorm:"primaryKey"`
	PostType     string    `gorm:"size:20;index;not null"`
	PostStatus   string    `gorm:"size:20;index;not null"`
	PostTitle    string    `gorm:"type:text"`
	PostDate     time.Time `gorm:"index"`
	PostModified time.Time
}

func (Post) TableName() string { return "posts" }

type PostMeta struct {
	MetaID    uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"index;not null"`
	MetaKey   string `gorm:"size:191;index"`
	MetaValue string `gorm:"type:text"`
}

func (PostMeta) TableName() string { return "postmeta" }

// ---- dedicated table layout ----

type OrderRecord struct {
	ID             uint            `gorm:"primaryKey"`
	Status         string          `gorm:"size:20;index;not null"`
	Type           string          `gorm:"size:20;index;not null"`
	Currency       string          `gorm:"size:10"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(26,8)"`
	BillingEmail   string          `gorm:"size:320;index"`
	DateCreatedGMT time.Time       `gorm:"column:date_created_gmt;index"`
	DateUpdatedGMT time.Time       `gorm:"column:date_updated_gmt"`
}

func (OrderRecord) TableName() string { return "orders" }

type OrderAddress struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"uniqueIndex:idx_order_address;not null"`
	AddressType string `gorm:"size:20;uniqueIndex:idx_order_address"`
	FirstName   string `gorm:"type:text"`
	LastName    string `gorm:"type:text"`
	Email       string `gorm:"size:320"`
	Phone       string `gorm:"size:100"`
}

func (OrderAddress) TableName() string { return "order_addresses" }

type OrderMeta struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"index;not null"`
	MetaKey   string `gorm:"size:191;index"`
	MetaValue string `gorm:"type:text"`
}

func (OrderMeta) TableName() string { return "orders_meta" }

// ---- line items, shared by both layouts ----

const (
	OrderItemTypeLine    = "line_item"
	ItemMetaProductID    = "_product_id"
	ItemMetaVariationID  = "_variation_id"
	ItemMetaQty          = "_qty"
	ItemMetaLineSubtotal = "_line_subtotal"
	ItemMetaLineTotal    = "_line_total"
)

type OrderLineItem struct {
	OrderItemID   uint   `gorm:"primaryKey"`
	OrderID       uint   `gorm:"index;not null"`
	OrderItemName string `gorm:"type:text"`
	OrderItemType string `gorm:"size:200;not null"`
}

func (OrderLineItem) TableName() string { return "order_items" }

type OrderItemMeta struct {
	MetaID      uint   `gorm:"primaryKey"`
	OrderItemID uint   `gorm:"index;not null"`
	MetaKey     string `gorm:"size:191;index"`
	MetaValue   string `gorm:"type:text"`
}

func (OrderItemMeta) TableName() string { return "order_itemmeta" }
