package model

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type PurchaseType string

const (
	PurchaseOneTime      PurchaseType = "one_time"
	PurchaseSubscription PurchaseType = "subscription"
)

func (t PurchaseType) Valid() bool {
	return t == PurchaseOneTime || t == PurchaseSubscription
}

// Selection is the shopper's validated purchase choice for one cart line.
// It is created once on add-to-cart and copied into the order line at
// checkout.
type Selection struct {
	Type            PurchaseType        `json:"type"`
	FrequencyKey    string              `json:"frequency"`
	FrequencyLabel  string              `json:"frequency_label"`
	DiscountPercent decimal.Decimal     `json:"discount"`
	BasePrice       decimal.NullDecimal `json:"base_price"`
}

func (s *Selection) IsSubscription() bool {
	return s != nil && s.Type == PurchaseSubscription
}

// Fingerprint is a content hash of the selection. Cart lines carrying
// different selections must not share a fingerprint.
func (s *Selection) Fingerprint() string {
	raw, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

// CartItemData is the data attached to a cart line next to the product.
type CartItemData struct {
	Selection    *Selection `json:"purchase_selection_data,omitempty"`
	SelectionKey string     `json:"purchase_selection_key,omitempty"`
}

// MetaEntry is a display label/value pair shown on cart lines and stored on
// order lines.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
