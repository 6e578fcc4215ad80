package handler

import (
	"errors"
	"net/http"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/middleware"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StorefrontHandler struct {
	logger          *zap.Logger
	productService  service.ProductService
	settingsService service.SettingsService
	cartService     service.CartService
	checkoutService service.CheckoutService
}

func NewStorefrontHandler(
	logger *zap.Logger,
	productService service.ProductService,
	settingsService service.SettingsService,
	cartService service.CartService,
	checkoutService service.CheckoutService,
) *StorefrontHandler {
	return &StorefrontHandler{
		logger:          logger,
		productService:  productService,
		settingsService: settingsService,
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

type pickerView struct {
	SubscriptionAvailable bool
	HasDiscount           bool
	Discount              string
	Frequencies           []model.FrequencyOption
	Nonce                 string
}

type productView struct {
	Product    *model.Product
	Variations []*model.Product
	Price      string
	Picker     *pickerView
}

type cartView struct {
	*dto.CartResponse
	CSRF string
}

type orderView struct {
	Order *model.Order
}

func (h *StorefrontHandler) ShowProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, variations, err := h.productService.GetProduct(ctx, c.Param("id"))
	if err != nil {
		return productError(err)
	}

	settings := h.settingsService.Get(ctx)
	catalog := h.settingsService.FrequencyOptions(ctx)

	view := &productView{
		Product:    product,
		Variations: variations,
		Price:      product.Price.StringFixed(2),
	}

	// no picker at all when there is nothing to choose
	if settings.EnableSubscription || catalog.Len() > 0 {
		discount := decimal.NewFromFloat(settings.SubscriptionDiscount)
		view.Picker = &pickerView{
			SubscriptionAvailable: settings.EnableSubscription && catalog.Len() > 0,
			HasDiscount:           discount.IsPositive(),
			Discount:              discount.Round(2).String(),
			Frequencies:           catalog.Options(),
			Nonce:                 middleware.CSRFToken(c),
		}
	}

	return c.Render(http.StatusOK, "product.html", view)
}

func (h *StorefrontHandler) AddToCart(c echo.Context) error {
	var req dto.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid add to cart request")
	}
	req.NonceValid = middleware.VerifyFormToken(c, req.Nonce)

	_, err := h.cartService.AddToCart(c.Request().Context(), middleware.SessionID(c), &req)
	if err != nil {
		return productError(err)
	}

	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *StorefrontHandler) ShowCart(c echo.Context) error {
	cart, err := h.cartService.GetCart(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}

	return c.Render(http.StatusOK, "cart.html", &cartView{
		CartResponse: cartResponse(cart),
		CSRF:         middleware.CSRFToken(c),
	})
}

func (h *StorefrontHandler) GetCartJSON(c echo.Context) error {
	cart, err := h.cartService.GetCart(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cartResponse(cart))
}

func (h *StorefrontHandler) UpdateCart(c echo.Context) error {
	var req dto.UpdateCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cart update")
	}

	err := h.cartService.UpdateQuantity(c.Request().Context(), middleware.SessionID(c), req.LineKey, req.Quantity)
	if err != nil {
		return cartLineError(err)
	}

	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *StorefrontHandler) RemoveFromCart(c echo.Context) error {
	err := h.cartService.RemoveLine(c.Request().Context(), middleware.SessionID(c), c.FormValue("line_key"))
	if err != nil {
		return cartLineError(err)
	}

	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *StorefrontHandler) Checkout(c echo.Context) error {
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid checkout request")
	}

	order, err := h.checkoutService.PlaceOrder(c.Request().Context(), middleware.SessionID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			return echo.NewHTTPError(http.StatusBadRequest, "your cart is empty")
		case errors.Is(err, service.ErrOrderStorageUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "orders cannot be placed right now")
		}
		return err
	}

	return c.Render(http.StatusOK, "order.html", &orderView{Order: order})
}

func cartResponse(cart *service.Cart) *dto.CartResponse {
	resp := &dto.CartResponse{
		Lines:    make([]*dto.CartLine, 0, len(cart.Lines)),
		Total:    cart.Total.StringFixed(2),
		Currency: cart.Currency,
	}

	for _, line := range cart.Lines {
		resp.Lines = append(resp.Lines, &dto.CartLine{
			LineKey:     line.Item.LineKey,
			ProductID:   line.Item.ProductID,
			VariationID: line.Item.VariationID,
			Name:        line.Product.Name,
			Quantity:    line.Item.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			LineTotal:   line.LineTotal.StringFixed(2),
			Meta:        line.Meta,
			Selection:   line.Data.Selection,
		})
	}

	return resp
}

func productError(err error) error {
	if errors.Is(err, service.ErrProductNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return err
}

func cartLineError(err error) error {
	if errors.Is(err, service.ErrCartLineNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "cart line not found")
	}
	return err
}
