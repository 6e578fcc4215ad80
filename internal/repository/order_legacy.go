package repository

import (
	"context"
	"fmt"
	"purchase-options-demo/internal/model"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// legacyOrderRepoImpl keeps orders as rows of the posts table with every
// order field in postmeta.
type legacyOrderRepoImpl struct {
	db *gorm.DB
}

func NewLegacyOrderRepository(db *gorm.DB) OrderRepository {
	return &legacyOrderRepoImpl{
		db: db,
	}
}

func legacyStatuses() []string {
	statuses := make([]string, len(model.OrderStatuses))
	for i, s := range model.OrderStatuses {
		statuses[i] = model.LegacyStatusPrefix + s
	}
	return statuses
}

func (r *legacyOrderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
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

		post := &model.Post{
			PostType:     model.PostTypeShopOrder,
			PostStatus:   model.LegacyStatusPrefix + order.Status,
			PostTitle:    "Order &ndash; " + order.CreatedAt.Format("January 2, 2006 @ 03:04 PM"),
			PostDate:     order.CreatedAt,
			PostModified: order.CreatedAt,
		}
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("store order post: %w", err)
		}
		order.ID = post.ID

		metas := []*model.PostMeta{
			{PostID: post.ID, MetaKey: model.LegacyMetaBillingFN, MetaValue: order.Billing.FirstName},
			{PostID: post.ID, MetaKey: model.LegacyMetaBillingLN, MetaValue: order.Billing.LastName},
			{PostID: post.ID, MetaKey: model.LegacyMetaBillingEM, MetaValue: order.Billing.Email},
			{PostID: post.ID, MetaKey: model.LegacyMetaBillingPH, MetaValue: order.Billing.Phone},
			{PostID: post.ID, MetaKey: model.LegacyMetaOrderTotal, MetaValue: order.Total.String()},
			{PostID: post.ID, MetaKey: model.LegacyMetaCurrency, MetaValue: order.Currency},
		}
		for _, entry := range sortedMeta(order.Meta) {
			metas = append(metas, &model.PostMeta{PostID: post.ID, MetaKey: entry.Key, MetaValue: entry.Value})
		}
		if err := tx.Create(&metas).Error; err != nil {
			return fmt.Errorf("store order meta: %w", err)
		}

		return saveOrderItems(ctx, tx, post.ID, order.Items)
	})
}

func (r *legacyOrderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	orders, err := r.load(ctx, []uint{orderID})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return orders[0], nil
}

func (r *legacyOrderRepoImpl) GetMeta(ctx context.Context, orderID uint, key string) (string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&model.PostMeta{}).
		Where("post_id = ? AND meta_key = ?", orderID, key).
		Order("meta_id").
		Limit(1).
		Pluck("meta_value", &values).Error

	if err != nil || len(values) == 0 {
		return "", err
	}

	return values[0], nil
}

func (r *legacyOrderRepoImpl) UpdateMeta(ctx context.Context, orderID uint, key, value string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := tx.Model(&model.PostMeta{}).
			Where("post_id = ? AND meta_key = ?", orderID, key).
			Session(&gorm.Session{})

		var count int64
		if err := existing.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return existing.Update("meta_value", value).Error
		}

		return tx.Create(&model.PostMeta{PostID: orderID, MetaKey: key, MetaValue: value}).Error
	})
}

func (r *legacyOrderRepoImpl) FindWithMeta(ctx context.Context, query model.OrderMetaQuery) ([]*model.Order, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("post_type = ?", model.PostTypeShopOrder).
		Where("post_status IN ?", legacyStatuses()).
		Where("EXISTS (SELECT 1 FROM postmeta pm WHERE pm.post_id = posts.id AND pm.meta_key = ? AND pm.meta_value <> '')", query.MetaKey).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriber orders: %w", err)
	}

	var ids []uint
	if err := orderMetaPage(base, query, "id", "post_date").Pluck("id", &ids).Error; err != nil {
		return nil, 0, fmt.Errorf("query subscriber orders: %w", err)
	}

	orders, err := r.load(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *legacyOrderRepoImpl) load(ctx context.Context, ids []uint) ([]*model.Order, error) {
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

func (r *legacyOrderRepoImpl) loadBatch(ctx context.Context, ids []uint) ([]*model.Order, error) {
	var posts []*model.Post
	err := r.db.WithContext(ctx).
		Where("id IN ? AND post_type = ?", ids, model.PostTypeShopOrder).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	var metas []*model.PostMeta
	err = r.db.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("meta_id").
		Find(&metas).Error
	if err != nil {
		return nil, err
	}

	items, err := loadOrderItems(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*model.Order, len(posts))
	for _, post := range posts {
		byID[post.ID] = &model.Order{
			ID:        post.ID,
			Status:    strings.TrimPrefix(post.PostStatus, model.LegacyStatusPrefix),
			CreatedAt: post.PostDate,
			Meta:      make(map[string]string),
			Items:     items[post.ID],
		}
	}

	// metas are ordered by meta_id; the first row of a duplicated key wins, as in GetMeta
	seen := make(map[uint]map[string]bool, len(byID))
	for _, meta := range metas {
		order, ok := byID[meta.PostID]
		if !ok || seen[meta.PostID][meta.MetaKey] {
			continue
		}
		if seen[meta.PostID] == nil {
			seen[meta.PostID] = make(map[string]bool)
		}
		seen[meta.PostID][meta.MetaKey] = true

		switch meta.MetaKey {
		case model.LegacyMetaBillingFN:
			order.Billing.FirstName = meta.MetaValue
		case model.LegacyMetaBillingLN:
			order.Billing.LastName = meta.MetaValue
		case model.LegacyMetaBillingEM:
			order.Billing.Email = meta.MetaValue
		case model.LegacyMetaBillingPH:
			order.Billing.Phone = meta.MetaValue
		case model.LegacyMetaOrderTotal:
			order.Total, _ = decimal.NewFromString(meta.MetaValue)
		case model.LegacyMetaCurrency:
			order.Currency = meta.MetaValue
		default:
			order.Meta[meta.MetaKey] = meta.MetaValue
		}
	}

	return inIDOrder(ids, byID), nil
}
