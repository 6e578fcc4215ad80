package service

import (
	"context"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"
	"purchase-options-demo/internal/testdb"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type storeFixture struct {
	db          *gorm.DB
	settings    SettingsService
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	cart        CartService
}

func newStoreFixture(t *testing.T, discount float64, frequencies string) *storeFixture {
	t.Helper()
	ctx := context.Background()
	db := testdb.Open(t)
	logger := zap.NewNop()

	f := &storeFixture{
		db:          db,
		settings:    NewSettingsService(logger, repository.NewOptionRepository(db)),
		productRepo: repository.NewProductRepository(db),
		cartRepo:    repository.NewCartRepository(db),
	}
	f.cart = NewCartService(logger, f.settings, f.productRepo, f.cartRepo)

	require.NoError(t, f.productRepo.Seed(ctx))
	_, err := f.settings.Save(ctx, map[string]any{
		"enable_subscription":   "1",
		"subscription_discount": discount,
		"frequencies":           frequencies,
	})
	require.NoError(t, err)

	return f
}

func addRequest(productID, purchaseType, frequency string, quantity int32) *dto.AddToCartRequest {
	return &dto.AddToCartRequest{
		ProductID: productID,
		Quantity:  quantity,
		PurchaseForm: dto.PurchaseForm{
			PurchaseType:  purchaseType,
			PlanFrequency: frequency,
		},
	}
}

func TestCartService_AddAndPrice(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 15, "Every Week\nEvery Month")

	_, err := f.cart.AddToCart(ctx, "s1", addRequest("oat_milk", "subscription", "every-week", 1))
	require.NoError(t, err)

	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)

	line := cart.Lines[0]
	assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(34)), "unit price %s", line.UnitPrice)
	assert.True(t, line.LivePrice.Equal(decimal.NewFromInt(40)))
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(34)))
	assert.Equal(t, "USD", cart.Currency)
	assert.Equal(t, []model.MetaEntry{
		{Key: "Purchase Type", Value: "Subscription"},
		{Key: "Delivery Frequency", Value: "Every Week"},
		{Key: "Subscription Savings", Value: "15% discount"},
	}, line.Meta)
}

func TestCartService_LinesSplitBySelection(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 10, "Every Week\nEvery Month")

	requests := []*dto.AddToCartRequest{
		addRequest("coffee_beans", "one_time", "", 1),
		addRequest("coffee_beans", "subscription", "every-week", 2),
		addRequest("coffee_beans", "subscription", "every-month", 1),
		addRequest("coffee_beans", "subscription", "every-week", 3),
		addRequest("coffee_beans", "", "", 0),
	}
	for _, req := range requests {
		_, err := f.cart.AddToCart(ctx, "s1", req)
		require.NoError(t, err)
	}

	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 3)

	quantities := map[string]int32{}
	for _, line := range cart.Lines {
		sel := line.Data.Selection
		require.NotNil(t, sel)
		quantities[string(sel.Type)+"/"+sel.FrequencyKey] = line.Item.Quantity
	}
	assert.Equal(t, map[string]int32{
		"one_time/":                2,
		"subscription/every-week":  5,
		"subscription/every-month": 1,
	}, quantities)

	// 2×18 + 5×16.2 + 1×16.2
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("133.2")), "total %s", cart.Total)
}

func TestCartService_InvalidNonceIgnoresSelection(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 15, "Every Week")

	req := addRequest("oat_milk", "subscription", "every-week", 1)
	req.Nonce = "stale"

	_, err := f.cart.AddToCart(ctx, "s1", req)
	require.NoError(t, err)

	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Nil(t, cart.Lines[0].Data.Selection)
	assert.Empty(t, cart.Lines[0].Meta)
	assert.True(t, cart.Lines[0].UnitPrice.Equal(decimal.NewFromInt(40)))
}

func TestCartService_Variation(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 25, "Every Week")

	req := addRequest("coffee_beans", "subscription", "every-week", 1)
	req.VariationID = "coffee_beans_1kg"
	_, err := f.cart.AddToCart(ctx, "s1", req)
	require.NoError(t, err)

	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.True(t, cart.Lines[0].UnitPrice.Equal(decimal.NewFromInt(24)))
	assert.True(t, cart.Lines[0].Data.Selection.BasePrice.Decimal.Equal(decimal.NewFromInt(32)))

	bad := addRequest("green_tea", "one_time", "", 1)
	bad.VariationID = "coffee_beans_1kg"
	_, err = f.cart.AddToCart(ctx, "s1", bad)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_UnknownProduct(t *testing.T) {
	f := newStoreFixture(t, 10, "Every Week")

	_, err := f.cart.AddToCart(context.Background(), "s1", addRequest("caviar", "one_time", "", 1))

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCartService_CapturedBasePriceIsKept(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 50, "Every Week")

	_, err := f.cart.AddToCart(ctx, "s1", addRequest("green_tea", "subscription", "every-week", 1))
	require.NoError(t, err)

	// price change after the line was added
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", "green_tea").
		Update("price", decimal.NewFromInt(100)).Error)

	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.Lines[0].UnitPrice.Equal(decimal.RequireFromString("6.25")), "unit price %s", cart.Lines[0].UnitPrice)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 10, "Every Week")

	item, err := f.cart.AddToCart(ctx, "s1", addRequest("green_tea", "one_time", "", 1))
	require.NoError(t, err)

	require.NoError(t, f.cart.UpdateQuantity(ctx, "s1", item.LineKey, 4))
	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int32(4), cart.Lines[0].Item.Quantity)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(50)))

	assert.ErrorIs(t, f.cart.UpdateQuantity(ctx, "s2", item.LineKey, 2), ErrCartLineNotFound)

	require.NoError(t, f.cart.UpdateQuantity(ctx, "s1", item.LineKey, 0))
	cart, err = f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	assert.ErrorIs(t, f.cart.RemoveLine(ctx, "s1", item.LineKey), ErrCartLineNotFound)
}
