package service

import (
	"context"
	"errors"
	"fmt"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"

	"gorm.io/gorm"
)

type ProductService interface {
	// GetProduct returns a parent product with its variations.
	GetProduct(ctx context.Context, productID string) (*model.Product, []*model.Product, error)
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

func (s *productServiceImpl) GetProduct(ctx context.Context, productID string) (*model.Product, []*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("get product: %w", err)
	}
	if product.IsVariation() {
		return nil, nil, ErrProductNotFound
	}

	variations, err := s.productRepo.FindVariations(ctx, product.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get variations: %w", err)
	}

	return product, variations, nil
}
