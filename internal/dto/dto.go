package dto

import "purchase-options-demo/internal/model"

// PurchaseForm is what the product page picker submits.
type PurchaseForm struct {
	PurchaseType  string `form:"purchase_type"`
	PlanFrequency string `form:"plan_frequency"`
	Nonce         string `form:"purchase_nonce"`
	// NonceValid is set by the handler after checking Nonce against the
	// shopper's CSRF cookie.
	NonceValid bool `form:"-"`
}

type AddToCartRequest struct {
	ProductID   string `form:"product_id"`
	VariationID string `form:"variation_id"`
	Quantity    int32  `form:"quantity"`
	PurchaseForm
}

type UpdateCartRequest struct {
	LineKey  string `form:"line_key" json:"line_key"`
	Quantity int32  `form:"quantity" json:"quantity"`
}

type CheckoutRequest struct {
	BillingFirstName string `form:"billing_first_name"`
	BillingLastName  string `form:"billing_last_name"`
	BillingEmail     string `form:"billing_email"`
	BillingPhone     string `form:"billing_phone"`
}

type CartLine struct {
	LineKey     string            `json:"line_key"`
	ProductID   string            `json:"product_id"`
	VariationID string            `json:"variation_id,omitempty"`
	Name        string            `json:"name"`
	Quantity    int32             `json:"quantity"`
	UnitPrice   string            `json:"unit_price"`
	LineTotal   string            `json:"line_total"`
	Meta        []model.MetaEntry `json:"meta"`
	Selection   *model.Selection  `json:"selection,omitempty"`
}

type CartResponse struct {
	Lines    []*CartLine `json:"lines"`
	Total    string      `json:"total"`
	Currency string      `json:"currency"`
}

type SubscriberListQuery struct {
	OrderBy string `query:"orderby" form:"orderby"`
	Order   string `query:"order" form:"order"`
	Page    int    `query:"paged"`
	PerPage int    `query:"per_page"`
}

type SubscriberRow struct {
	OrderID  uint   `json:"order_id"`
	Customer string `json:"customer"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Date     string `json:"date"`
}

type SubscriberPage struct {
	Rows       []*SubscriberRow `json:"rows"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
	OrderBy    string           `json:"orderby"`
	Order      string           `json:"order"`
}

// SubscriberOrder is one subscriber row with the order behind it.
type SubscriberOrder struct {
	SubscriberRow
	Order *model.Order `json:"-"`
}
