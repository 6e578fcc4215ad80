package service

import (
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CaptureSelection turns the submitted picker fields into a normalized
// selection. Bad input is corrected, never rejected.
func CaptureSelection(
	form dto.PurchaseForm,
	settings model.Settings,
	catalog *FrequencyCatalog,
	basePrice decimal.Decimal,
) *model.Selection {
	purchaseType := model.PurchaseType(sanitizeKey(form.PurchaseType))
	if !purchaseType.Valid() {
		purchaseType = model.PurchaseOneTime
	}
	if purchaseType == model.PurchaseSubscription && catalog.Len() == 0 {
		purchaseType = model.PurchaseOneTime
	}

	sel := &model.Selection{
		Type:            purchaseType,
		DiscountPercent: decimal.NewFromFloat(ClampPercent(settings.SubscriptionDiscount)),
		BasePrice:       decimal.NewNullDecimal(decimal.Max(basePrice, decimal.Zero)),
	}

	if purchaseType == model.PurchaseSubscription {
		key := sanitizeKey(form.PlanFrequency)
		label, ok := catalog.Label(key)
		if !ok {
			first, _ := catalog.First()
			key, label = first.Key, first.Label
		}
		sel.FrequencyKey = key
		sel.FrequencyLabel = label
	}

	return sel
}

// captureCartItemData attaches the selection and its fingerprint to the
// line data. An invalid nonce leaves existing untouched.
func captureCartItemData(
	existing model.CartItemData,
	form dto.PurchaseForm,
	settings model.Settings,
	catalog *FrequencyCatalog,
	basePrice decimal.Decimal,
) (model.CartItemData, bool) {
	if form.Nonce != "" && !form.NonceValid {
		return existing, false
	}

	sel := CaptureSelection(form, settings, catalog, basePrice)
	existing.Selection = sel
	existing.SelectionKey = sel.Fingerprint()

	return existing, true
}

// AdjustPrice returns the price a line is charged at. Only subscription lines
// are discounted, from the captured base price when there is one.
func AdjustPrice(livePrice decimal.Decimal, sel *model.Selection) decimal.Decimal {
	if !sel.IsSubscription() {
		return livePrice
	}

	source := livePrice
	if sel.BasePrice.Valid {
		source = sel.BasePrice.Decimal
	}

	percent := decimal.Min(decimal.Max(sel.DiscountPercent, decimal.Zero), hundred)
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))

	return decimal.Max(decimal.Zero, source.Mul(factor))
}
