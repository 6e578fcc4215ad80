package service

import (
	"context"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var orderLayouts = []string{repository.OrderStorageHPOS, repository.OrderStorageLegacy}

func newCheckoutService(t *testing.T, f *storeFixture, layout string) (CheckoutService, repository.OrderRepository) {
	t.Helper()
	orderRepo, err := repository.NewOrderRepository(f.db, layout)
	require.NoError(t, err)
	return NewCheckoutService(f.db, zap.NewNop(), f.cart, f.cartRepo, orderRepo), orderRepo
}

func TestCheckoutService_SubscriptionOrder(t *testing.T) {
	for _, layout := range orderLayouts {
		t.Run(layout, func(t *testing.T) {
			ctx := context.Background()
			f := newStoreFixture(t, 15, "Every Week")
			checkout, orderRepo := newCheckoutService(t, f, layout)

			_, err := f.cart.AddToCart(ctx, "s1", addRequest("oat_milk", "subscription", "every-week", 1))
			require.NoError(t, err)
			_, err = f.cart.AddToCart(ctx, "s1", addRequest("green_tea", "one_time", "", 2))
			require.NoError(t, err)

			order, err := checkout.PlaceOrder(ctx, "s1", &dto.CheckoutRequest{
				BillingFirstName: "Ada",
				BillingLastName:  "Lovelace",
				BillingEmail:     "ada@example.com",
				BillingPhone:     "555-0100",
			})
			require.NoError(t, err)
			require.NotZero(t, order.ID)

			assert.True(t, order.Total.Equal(decimal.NewFromInt(59)), "total %s", order.Total)

			stored, err := orderRepo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, "555-0100", stored.GetMeta(model.SubscriptionPhoneMetaKey))
			assert.Equal(t, model.OrderStatusProcessing, stored.Status)
			assert.Equal(t, "Ada", stored.Billing.FirstName)
			require.Len(t, stored.Items, 2)

			subscriptionItem := stored.Items[0]
			assert.Equal(t, "oat_milk", subscriptionItem.ProductID)
			assert.True(t, subscriptionItem.Total.Equal(decimal.NewFromInt(34)))
			assert.True(t, subscriptionItem.Subtotal.Equal(decimal.NewFromInt(40)))
			assert.Equal(t, []model.MetaEntry{
				{Key: "Purchase Type", Value: "Subscription"},
				{Key: "Delivery Frequency", Value: "Every Week"},
				{Key: "Subscription Savings", Value: "15% discount"},
			}, subscriptionItem.Meta)

			assert.Equal(t, []model.MetaEntry{{Key: "Purchase Type", Value: "One-time purchase"}}, stored.Items[1].Meta)

			cart, err := f.cart.GetCart(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, cart.IsEmpty())
		})
	}
}

func TestCheckoutService_OneTimeOrderHasNoContact(t *testing.T) {
	for _, layout := range orderLayouts {
		t.Run(layout, func(t *testing.T) {
			ctx := context.Background()
			f := newStoreFixture(t, 15, "Every Week")
			checkout, orderRepo := newCheckoutService(t, f, layout)

			_, err := f.cart.AddToCart(ctx, "s1", addRequest("oat_milk", "one_time", "", 1))
			require.NoError(t, err)

			order, err := checkout.PlaceOrder(ctx, "s1", &dto.CheckoutRequest{BillingFirstName: "Ada", BillingPhone: "555-0100"})
			require.NoError(t, err)

			phone, err := orderRepo.GetMeta(ctx, order.ID, model.SubscriptionPhoneMetaKey)
			require.NoError(t, err)
			assert.Empty(t, phone)
		})
	}
}

func TestCheckoutService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 15, "Every Week")

	checkout, _ := newCheckoutService(t, f, repository.OrderStorageHPOS)
	_, err := checkout.PlaceOrder(ctx, "empty", &dto.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	withoutStorage := NewCheckoutService(f.db, zap.NewNop(), f.cart, f.cartRepo, nil)
	_, err = withoutStorage.PlaceOrder(ctx, "s1", &dto.CheckoutRequest{})
	assert.ErrorIs(t, err, ErrOrderStorageUnavailable)
}

// cartReadHook runs afterRead once the cart has been read, standing in for a
// request that lands while an order is being placed.
type cartReadHook struct {
	CartService
	afterRead func()
}

func (c *cartReadHook) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	cart, err := c.CartService.GetCart(ctx, sessionID)
	c.afterRead()
	return cart, err
}

func TestCheckoutService_KeepsLinesAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, 15, "Every Week")
	orderRepo, err := repository.NewOrderRepository(f.db, repository.OrderStorageHPOS)
	require.NoError(t, err)

	_, err = f.cart.AddToCart(ctx, "s1", addRequest("green_tea", "one_time", "", 2))
	require.NoError(t, err)

	hook := &cartReadHook{CartService: f.cart, afterRead: func() {
		_, err := f.cart.AddToCart(ctx, "s1", addRequest("green_tea", "one_time", "", 1))
		require.NoError(t, err)
		_, err = f.cart.AddToCart(ctx, "s1", addRequest("oat_milk", "one_time", "", 1))
		require.NoError(t, err)
	}}
	checkout := NewCheckoutService(f.db, zap.NewNop(), hook, f.cartRepo, orderRepo)

	order, err := checkout.PlaceOrder(ctx, "s1", &dto.CheckoutRequest{BillingFirstName: "Ada"})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int32(2), order.Items[0].Quantity)

	cart, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "green_tea", cart.Lines[0].Item.ProductID)
	assert.Equal(t, int32(1), cart.Lines[0].Item.Quantity)
	assert.Equal(t, "oat_milk", cart.Lines[1].Item.ProductID)
}
