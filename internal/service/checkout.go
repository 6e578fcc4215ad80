package service

import (
	"context"
	"fmt"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, sessionID string, req *dto.CheckoutRequest) (*model.Order, error)
}

type checkoutServiceImpl struct {
	db          *gorm.DB
	logger      *zap.Logger
	cartService CartService
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
}

// NewCheckoutService takes a nil orderRepo when no order storage is
// configured; PlaceOrder then fails with ErrOrderStorageUnavailable.
func NewCheckoutService(
	db *gorm.DB,
	logger *zap.Logger,
	cartService CartService,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:          db,
		logger:      logger,
		cartService: cartService,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
	}
}

func (s *checkoutServiceImpl) PlaceOrder(ctx context.Context, sessionID string, req *dto.CheckoutRequest) (*model.Order, error) {
	if s.orderRepo == nil {
		return nil, ErrOrderStorageUnavailable
	}

	// loaded before the transaction: the sqlite pool holds a single connection
	cart, err := s.cartService.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := &model.Order{
		Status:   model.OrderStatusProcessing,
		Currency: cart.Currency,
		Total:    cart.Total,
		Billing: model.Billing{
			FirstName: sanitizeText(req.BillingFirstName),
			LastName:  sanitizeText(req.BillingLastName),
			Email:     sanitizeText(req.BillingEmail),
			Phone:     sanitizeText(req.BillingPhone),
		},
		Items: make([]*model.OrderItem, 0, len(cart.Lines)),
	}

	ordered := make([]*model.CartItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ordered = append(ordered, line.Item)
		quantity := decimal.NewFromInt32(line.Item.Quantity)
		item := &model.OrderItem{
			ProductID:   line.Item.ProductID,
			VariationID: line.Item.VariationID,
			Name:        line.Product.Name,
			Quantity:    line.Item.Quantity,
			Subtotal:    line.LivePrice.Mul(quantity),
			Total:       line.LineTotal,
		}
		CommitToOrder(line.Data.Selection, item)
		order.Items = append(order.Items, item)
	}

	contactRecorded := RecordContact(order, req.BillingPhone, cart.Lines)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		if err := s.cartRepo.Consume(ctx, tx, sessionID, ordered); err != nil {
			return fmt.Errorf("clear ordered cart lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Items)),
		zap.Bool("subscription_contact", contactRecorded),
	)

	return order, nil
}
