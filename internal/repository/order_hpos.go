package repository

import (
	"context"
	"fmt"
	"purchase-options-demo/internal/model"
	"time"

	"gorm.io/gorm"
)

const addressTypeBilling = "billing"

// hposOrderRepoImpl keeps orders in the dedicated orders, order_addresses and
// orders_meta tables.
type hposOrderRepoImpl struct {
	db *gorm.DB
}

func NewHPOSOrderRepository(db *gorm.DB) OrderRepository {
	return &hposOrderRepoImpl{
		db: db,
	}
}

func (r *hposOrderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if tx == nil {
		tx = r.db
	}

	return tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.CreatedAt.IsZero() {
			order.CreatedAt = time.Now()
		}
		order.CreatedAt = order.CreatedAt.UTC()
		if order.Status == "" {
			order.Status = model.OrderStatusPending
		}

		record := &model.OrderRecord{
			Status:         order.Status,
			Type:           model.OrderTypeShop,
			Currency:       order.Currency,
			TotalAmount:    order.Total,
			BillingEmail:   order.Billing.Email,
			DateCreatedGMT: order.CreatedAt,
			DateUpdatedGMT: order.CreatedAt,
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		order.ID = record.ID

		address := &model.OrderAddress{
			OrderID:     record.ID,
			AddressType: addressTypeBilling,
			FirstName:   order.Billing.FirstName,
			LastName:    order.Billing.LastName,
			Email:       order.Billing.Email,
			Phone:       order.Billing.Phone,
		}
		if err := tx.Create(address).Error; err != nil {
			return fmt.Errorf("store billing address: %w", err)
		}

		if len(order.Meta) > 0 {
			metas := make([]*model.OrderMeta, 0, len(order.Meta))
			for _, entry := range sortedMeta(order.Meta) {
				metas = append(metas, &model.OrderMeta{OrderID: record.ID, MetaKey: entry.Key, MetaValue: entry.Value})
			}
			if err := tx.Create(&metas).Error; err != nil {
				return fmt.Errorf("store order meta: %w", err)
			}
		}

		return saveOrderItems(ctx, tx, record.ID, order.Items)
	})
}

func (r *hposOrderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	orders, err := r.load(ctx, []uint{orderID})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return orders[0], nil
}

func (r *hposOrderRepoImpl) GetMeta(ctx context.Context, orderID uint, key string) (string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&model.OrderMeta{}).
		Where("order_id = ? AND meta_key = ?", orderID, key).
		Order("id").
		Limit(1).
		Pluck("meta_value", &values).Error

	if err != nil || len(values) == 0 {
		return "", err
	}

	return values[0], nil
}

func (r *hposOrderRepoImpl) UpdateMeta(ctx context.Context, orderID uint, key, value string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := tx.Model(&model.OrderMeta{}).
			Where("order_id = ? AND meta_key = ?", orderID, key).
			Session(&gorm.Session{})

		var count int64
		if err := existing.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return existing.Update("meta_value", value).Error
		}

		return tx.Create(&model.OrderMeta{OrderID: orderID, MetaKey: key, MetaValue: value}).Error
	})
}

func (r *hposOrderRepoImpl) FindWithMeta(ctx context.Context, query model.OrderMetaQuery) ([]*model.Order, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&model.OrderRecord{}).
		Where("type = ?", model.OrderTypeShop).
		Where("status IN ?", model.OrderStatuses).
		Where("EXISTS (SELECT 1 FROM orders_meta om WHERE om.order_id = orders.id AND om.meta_key = ? AND om.meta_value <> '')", query.MetaKey).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriber orders: %w", err)
	}

	var ids []uint
	if err := orderMetaPage(base, query, "id", "date_created_gmt").Pluck("id", &ids).Error; err != nil {
		return nil, 0, fmt.Errorf("query subscriber orders: %w", err)
	}

	orders, err := r.load(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *hposOrderRepoImpl) load(ctx context.Context, ids []uint) ([]*model.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	orders := make([]*model.Order, 0, len(ids))
	for _, batch := range idBatches(ids) {
		loaded, err := r.loadBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		orders = append(orders, loaded...)
	}

	return orders, nil
}

func (r *hposOrderRepoImpl) loadBatch(ctx context.Context, ids []uint) ([]*model.Order, error) {
	var records []*model.OrderRecord
	err := r.db.WithContext(ctx).
		Where("id IN ? AND type = ?", ids, model.OrderTypeShop).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	var addresses []*model.OrderAddress
	err = r.db.WithContext(ctx).
		Where("order_id IN ? AND address_type = ?", ids, addressTypeBilling).
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}

	var metas []*model.OrderMeta
	err = r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("id").
		Find(&metas).Error
	if err != nil {
		return nil, err
	}

	items, err := loadOrderItems(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*model.Order, len(records))
	for _, record := range records {
		byID[record.ID] = &model.Order{
			ID:        record.ID,
			Status:    record.Status,
			Currency:  record.Currency,
			Total:     record.TotalAmount,
			CreatedAt: record.DateCreatedGMT,
			Billing:   model.Billing{Email: record.BillingEmail},
			Meta:      make(map[string]string),
			Items:     items[record.ID],
		}
	}

	for _, address := range addresses {
		if order, ok := byID[address.OrderID]; ok {
			order.Billing = model.Billing{
				FirstName: address.FirstName,
				LastName:  address.LastName,
				Email:     address.Email,
				Phone:     address.Phone,
			}
		}
	}

	// metas are ordered by id; the first row of a duplicated key wins, as in GetMeta
	for _, meta := range metas {
		order, ok := byID[meta.OrderID]
		if !ok {
			continue
		}
		if _, seen := order.Meta[meta.MetaKey]; !seen {
			order.Meta[meta.MetaKey] = meta.MetaValue
		}
	}

	return inIDOrder(ids, byID), nil
}
