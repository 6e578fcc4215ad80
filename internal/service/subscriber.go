package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"purchase-options-demo/internal/dto"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/repository"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	SortOrderAsc  = "ASC"
	SortOrderDesc = "DESC"

	guestCustomer    = "Guest customer"
	reportDateLayout = "January 2, 2006"
)

var exportHeader = []string{"Order ID", "Customer Name", "Customer Email", "Subscription Phone", "Order Date"}

type SubscriberService interface {
	List(ctx context.Context, query dto.SubscriberListQuery) (*dto.SubscriberPage, error)
	Export(ctx context.Context, w io.Writer, query dto.SubscriberListQuery) error
	GetOrder(ctx context.Context, orderID uint) (*dto.SubscriberOrder, error)
}

type subscriberServiceImpl struct {
	logger         *zap.Logger
	orderRepo      repository.OrderRepository
	defaultPerPage int
}

func NewSubscriberService(
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	defaultPerPage int,
) SubscriberService {
	if defaultPerPage <= 0 {
		defaultPerPage = 20
	}

	return &subscriberServiceImpl{
		logger:         logger,
		orderRepo:      orderRepo,
		defaultPerPage: defaultPerPage,
	}
}

func (s *subscriberServiceImpl) List(ctx context.Context, query dto.SubscriberListQuery) (*dto.SubscriberPage, error) {
	if s.orderRepo == nil {
		return nil, ErrOrderStorageUnavailable
	}

	orderBy, order := normalizeSort(query)
	page := max(query.Page, 1)
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = s.defaultPerPage
	}

	orders, total, err := s.orderRepo.FindWithMeta(ctx, model.OrderMetaQuery{
		MetaKey:    model.SubscriptionPhoneMetaKey,
		OrderBy:    orderBy,
		Descending: order == SortOrderDesc,
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("find subscriber orders: %w", err)
	}

	rows := make([]*dto.SubscriberRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, subscriberRow(o))
	}

	return &dto.SubscriberPage{
		Rows:       rows,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: max(1, int(math.Ceil(float64(total)/float64(perPage)))),
		OrderBy:    string(orderBy),
		Order:      order,
	}, nil
}

func (s *subscriberServiceImpl) Export(ctx context.Context, w io.Writer, query dto.SubscriberListQuery) error {
	if s.orderRepo == nil {
		return ErrOrderStorageUnavailable
	}

	orderBy, order := normalizeSort(query)
	orders, _, err := s.orderRepo.FindWithMeta(ctx, model.OrderMetaQuery{
		MetaKey:    model.SubscriptionPhoneMetaKey,
		OrderBy:    orderBy,
		Descending: order == SortOrderDesc,
	})
	if err != nil {
		return fmt.Errorf("find subscriber orders: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range orders {
		row := subscriberRow(o)
		record := []string{
			"#" + strconv.FormatUint(uint64(row.OrderID), 10),
			row.Customer,
			row.Email,
			row.Phone,
			row.Date,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("write subscribers csv: %w", err)
	}

	s.logger.Info("subscribers exported", zap.Int("rows", len(orders)))
	return nil
}

func (s *subscriberServiceImpl) GetOrder(ctx context.Context, orderID uint) (*dto.SubscriberOrder, error) {
	if s.orderRepo == nil {
		return nil, ErrOrderStorageUnavailable
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &dto.SubscriberOrder{
		SubscriberRow: *subscriberRow(order),
		Order:         order,
	}, nil
}

// normalizeSort accepts "id" (or "order_id") and "date"; anything else sorts
// by date. The direction defaults to descending.
func normalizeSort(query dto.SubscriberListQuery) (model.OrderSortField, string) {
	orderBy := model.OrderSortByDate
	switch strings.ToLower(strings.TrimSpace(query.OrderBy)) {
	case "id", "order_id":
		orderBy = model.OrderSortByID
	}

	order := SortOrderDesc
	if strings.ToUpper(strings.TrimSpace(query.Order)) == SortOrderAsc {
		order = SortOrderAsc
	}

	return orderBy, order
}

func subscriberRow(o *model.Order) *dto.SubscriberRow {
	return &dto.SubscriberRow{
		OrderID:  o.ID,
		Customer: customerName(o.Billing),
		Email:    o.Billing.Email,
		Phone:    o.GetMeta(model.SubscriptionPhoneMetaKey),
		Date:     o.CreatedAt.Format(reportDateLayout),
	}
}

func customerName(billing model.Billing) string {
	if name := billing.FormattedFullName(); name != "" {
		return name
	}
	if name := strings.TrimSpace(billing.FirstName + " " + billing.LastName); name != "" {
		return name
	}
	return guestCustomer
}
