package service

import (
	"encoding/json"
	"purchase-options-demo/internal/model"

	"github.com/shopspring/decimal"
)

const (
	MetaLabelPurchaseType      = "Purchase Type"
	MetaLabelDeliveryFrequency = "Delivery Frequency"
	MetaLabelSavings           = "Subscription Savings"
)

// RestoreSelection reads the selection back out of stored cart line data.
// Loosely typed values are accepted and re-clamped. It returns nil when the
// data carries no selection.
func RestoreSelection(raw json.RawMessage) *model.Selection {
	return restoreCartItemData(raw).Selection
}

func restoreCartItemData(raw json.RawMessage) model.CartItemData {
	var envelope struct {
		Selection    map[string]any `json:"purchase_selection_data"`
		SelectionKey any            `json:"purchase_selection_key"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &envelope) != nil {
		return model.CartItemData{}
	}

	data := model.CartItemData{SelectionKey: stringValue(envelope.SelectionKey)}
	if envelope.Selection == nil {
		return data
	}

	fields := envelope.Selection
	sel := &model.Selection{
		Type:           model.PurchaseType(stringValue(fields["type"])),
		FrequencyKey:   stringValue(fields["frequency"]),
		FrequencyLabel: stringValue(fields["frequency_label"]),
	}
	if v, ok := fields["discount"]; ok {
		f, _ := numericValue(v)
		sel.DiscountPercent = decimal.NewFromFloat(ClampPercent(f))
	}
	if v, ok := fields["base_price"]; ok && v != nil {
		if f, ok := numericValue(v); ok {
			sel.BasePrice = decimal.NewNullDecimal(decimal.Max(decimal.NewFromFloat(f), decimal.Zero))
		}
	}
	data.Selection = sel

	return data
}

// FormatForDisplay lists the label/value pairs shown under a cart or order
// line.
func FormatForDisplay(sel *model.Selection) []model.MetaEntry {
	if sel == nil {
		return nil
	}

	if !sel.IsSubscription() {
		return []model.MetaEntry{{Key: MetaLabelPurchaseType, Value: "One-time purchase"}}
	}

	entries := []model.MetaEntry{{Key: MetaLabelPurchaseType, Value: "Subscription"}}
	if sel.FrequencyLabel != "" {
		entries = append(entries, model.MetaEntry{Key: MetaLabelDeliveryFrequency, Value: sel.FrequencyLabel})
	}
	if sel.DiscountPercent.IsPositive() {
		entries = append(entries, model.MetaEntry{
			Key:   MetaLabelSavings,
			Value: sel.DiscountPercent.Round(2).String() + "% discount",
		})
	}

	return entries
}

// CommitToOrder copies the display entries onto the order line.
func CommitToOrder(sel *model.Selection, item *model.OrderItem) {
	if sel == nil || item == nil {
		return
	}
	item.Meta = append(item.Meta, FormatForDisplay(sel)...)
}

// RecordContact stores the subscription contact phone on the order when any
// line is a subscription. It reports whether the order was changed.
func RecordContact(order *model.Order, submittedPhone string, lines []*CartLine) bool {
	if order == nil {
		return false
	}

	hasSubscription := false
	for _, line := range lines {
		if line.Data.Selection.IsSubscription() {
			hasSubscription = true
			break
		}
	}
	if !hasSubscription {
		return false
	}

	phone := sanitizeText(submittedPhone)
	if phone == "" {
		phone = sanitizeText(order.Billing.Phone)
	}
	if phone == "" || phone == order.GetMeta(model.SubscriptionPhoneMetaKey) {
		return false
	}

	order.SetMeta(model.SubscriptionPhoneMetaKey, phone)
	return true
}
