package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

// CartLine is a cart item with its selection restored and its price
// recalculated.
type CartLine struct {
	Item      *model.CartItem
	Product   *model.Product
	Data      model.CartItemData
	LivePrice decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Meta      []model.MetaEntry
}

type Cart struct {
	Lines    []*CartLine
	Total    decimal.Decimal
	Currency string
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

type CartService interface {
	AddToCart(ctx context.Context, sessionID string, req *dto.AddToCartRequest) (*model.CartItem, error)
	GetCart(ctx context.Context, sessionID string) (*Cart, error)
	// UpdateQuantity removes the line when quantity is not positive.
	UpdateQuantity(ctx context.Context, sessionID, lineKey string, quantity int32) error
	RemoveLine(ctx context.Context, sessionID, lineKey string) error
}

type cartServiceImpl struct {
	logger          *zap.Logger
	settingsService SettingsService
	productRepo     repository.ProductRepository
	cartRepo        repository.CartRepository
}

func NewCartService(
	logger *zap.Logger,
	settingsService SettingsService,
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
) CartService {
	return &cartServiceImpl{
		logger:          logger,
		settingsService: settingsService,
		productRepo:     productRepo,
		cartRepo:        cartRepo,
	}
}

func (s *cartServiceImpl) AddToCart(ctx context.Context, sessionID string, req *dto.AddToCartRequest) (*model.CartItem, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	priced := product
	if req.VariationID != "" {
		variation, err := s.findProduct(ctx, req.VariationID)
		if err != nil {
			return nil, err
		}
		if variation.ParentID != product.ID {
			return nil, fmt.Errorf("variation %s of %s: %w", req.VariationID, product.ID, ErrProductNotFound)
		}
		priced = variation
	}

	settings := s.settingsService.Get(ctx)
	catalog := BuildFrequencyCatalog(settings.Frequencies)

	data, captured := captureCartItemData(model.CartItemData{}, req.PurchaseForm, settings, catalog, basePriceOf(priced))
	if !captured {
		s.logger.Debug("purchase selection ignored, nonce mismatch",
			zap.String("session_id", sessionID),
			zap.String("product_id", product.ID),
		)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode cart item data: %w", err)
	}

	item := &model.CartItem{
		SessionID:   sessionID,
		LineKey:     cartLineKey(product.ID, req.VariationID, data.SelectionKey),
		ProductID:   product.ID,
		VariationID: req.VariationID,
		Quantity:    quantity,
		Data:        datatypes.JSON(raw),
	}
	if err := s.cartRepo.Add(ctx, item); err != nil {
		return nil, fmt.Errorf("store cart item: %w", err)
	}

	return item, nil
}

func (s *cartServiceImpl) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	items, err := s.cartRepo.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}

	cart := &Cart{Total: decimal.Zero, Currency: defaultCurrency}
	if len(items) == 0 {
		return cart, nil
	}

	productIDs := make([]string, 0, len(items)*2)
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		if item.VariationID != "" {
			productIDs = append(productIDs, item.VariationID)
		}
	}
	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get cart products: %w", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	for _, item := range items {
		priced := byID[item.ProductID]
		if item.VariationID != "" {
			priced = byID[item.VariationID]
		}
		if priced == nil {
			s.logger.Warn("cart line product no longer exists",
				zap.String("session_id", sessionID),
				zap.String("line_key", item.LineKey),
			)
			continue
		}

		data := restoreCartItemData(json.RawMessage(item.Data))
		line := &CartLine{
			Item:      item,
			Product:   priced,
			Data:      data,
			LivePrice: priced.Price,
			UnitPrice: AdjustPrice(priced.Price, data.Selection),
			Meta:      FormatForDisplay(data.Selection),
		}
		line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity))

		if len(cart.Lines) == 0 && priced.Currency != "" {
			cart.Currency = priced.Currency
		}
		cart.Lines = append(cart.Lines, line)
		cart.Total = cart.Total.Add(line.LineTotal)
	}

	return cart, nil
}

func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, sessionID, lineKey string, quantity int32) error {
	if quantity <= 0 {
		return s.RemoveLine(ctx, sessionID, lineKey)
	}

	err := s.cartRepo.UpdateQuantity(ctx, sessionID, lineKey, quantity)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCartLineNotFound
	}
	return err
}

func (s *cartServiceImpl) RemoveLine(ctx context.Context, sessionID, lineKey string) error {
	err := s.cartRepo.Remove(ctx, sessionID, lineKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCartLineNotFound
	}
	return err
}

func (s *cartServiceImpl) findProduct(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q: %w", productID, ErrProductNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func basePriceOf(product *model.Product) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	return decimal.Max(product.Price, decimal.Zero)
}

func cartLineKey(productID, variationID, selectionKey string) string {
	sum := md5.Sum([]byte(productID + "|" + variationID + "|" + selectionKey))
	return hex.EncodeToString(sum[:])
}
