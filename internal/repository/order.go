package repository

import (
	"context"
	"errors"
	"fmt"
	"purchase-options-demo/internal/model"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	OrderStorageHPOS   = "hpos"
	OrderStorageLegacy = "legacy"
)

var ErrUnknownOrderStorage = errors.New("unknown order storage layout")

// loadBatchSize caps how many ids are bound into a single IN list, keeping
// unbounded reads under the driver placeholder limits.
var loadBatchSize = 500

// OrderRepository hides which of the two order table layouts is active.
// Both implementations must agree on FindWithMeta filtering: a shop order in
// a registered status whose meta value for the key is present and non-empty.
type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	GetMeta(ctx context.Context, orderID uint, key string) (string, error)
	UpdateMeta(ctx context.Context, orderID uint, key, value string) error
	FindWithMeta(ctx context.Context, query model.OrderMetaQuery) ([]*model.Order, int64, error)
}

func NewOrderRepository(db *gorm.DB, layout string) (OrderRepository, error) {
	switch layout {
	case OrderStorageHPOS:
		return NewHPOSOrderRepository(db), nil
	case OrderStorageLegacy:
		return NewLegacyOrderRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderStorage, layout)
	}
}

// orderMetaPage applies sorting and paging. Ties on the date column are
// broken by id in the same direction so pages never overlap.
func orderMetaPage(q *gorm.DB, query model.OrderMetaQuery, idColumn, dateColumn string) *gorm.DB {
	primary := dateColumn
	if query.OrderBy == model.OrderSortByID {
		primary = idColumn
	}

	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: primary}, Desc: query.Descending})
	if primary != idColumn {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: idColumn}, Desc: query.Descending})
	}

	if query.PerPage > 0 {
		page := query.Page
		if page < 1 {
			page = 1
		}
		q = q.Limit(query.PerPage).Offset((page - 1) * query.PerPage)
	}

	return q
}

// sortedMeta returns meta entries ordered by key so inserts are stable.
func sortedMeta(meta map[string]string) []model.MetaEntry {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]model.MetaEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, model.MetaEntry{Key: k, Value: meta[k]})
	}
	return entries
}

func saveOrderItems(ctx context.Context, tx *gorm.DB, orderID uint, items []*model.OrderItem) error {
	for _, item := range items {
		line := &model.OrderLineItem{
			OrderID:       orderID,
			OrderItemName: item.Name,
			OrderItemType: model.OrderItemTypeLine,
		}
		if err := tx.WithContext(ctx).Create(line).Error; err != nil {
			return fmt.Errorf("store order item: %w", err)
		}
		item.ID = line.OrderItemID

		metas := []*model.OrderItemMeta{
			{OrderItemID: line.OrderItemID, MetaKey: model.ItemMetaProductID, MetaValue: item.ProductID},
			{OrderItemID: line.OrderItemID, MetaKey: model.ItemMetaVariationID, MetaValue: item.VariationID},
			{OrderItemID: line.OrderItemID, MetaKey: model.ItemMetaQty, MetaValue: strconv.Itoa(int(item.Quantity))},
			{OrderItemID: line.OrderItemID, MetaKey: model.ItemMetaLineSubtotal, MetaValue: item.Subtotal.String()},
			{OrderItemID: line.OrderItemID, MetaKey: model.ItemMetaLineTotal, MetaValue: item.Total.String()},
		}
		for _, entry := range item.Meta {
			metas = append(metas, &model.OrderItemMeta{
				OrderItemID: line.OrderItemID,
				MetaKey:     entry.Key,
				MetaValue:   entry.Value,
			})
		}

		if err := tx.WithContext(ctx).Create(&metas).Error; err != nil {
			return fmt.Errorf("store order item meta: %w", err)
		}
	}

	return nil
}

func loadOrderItems(ctx context.Context, db *gorm.DB, orderIDs []uint) (map[uint][]*model.OrderItem, error) {
	result := make(map[uint][]*model.OrderItem)
	if len(orderIDs) == 0 {
		return result, nil
	}

	var lines []*model.OrderLineItem
	err := db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Where("order_item_type = ?", model.OrderItemTypeLine).
		Order("order_item_id").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return result, nil
	}

	lineIDs := make([]uint, len(lines))
	items := make(map[uint]*model.OrderItem, len(lines))
	for i, line := range lines {
		lineIDs[i] = line.OrderItemID
		item := &model.OrderItem{
			ID:   line.OrderItemID,
			Name: line.OrderItemName,
		}
		items[line.OrderItemID] = item
		result[line.OrderID] = append(result[line.OrderID], item)
	}

	var metas []*model.OrderItemMeta
	for _, batch := range idBatches(lineIDs) {
		var found []*model.OrderItemMeta
		err = db.WithContext(ctx).
			Where("order_item_id IN ?", batch).
			Order("meta_id").
			Find(&found).Error
		if err != nil {
			return nil, err
		}
		metas = append(metas, found...)
	}

	for _, meta := range metas {
		item := items[meta.OrderItemID]
		switch meta.MetaKey {
		case model.ItemMetaProductID:
			item.ProductID = meta.MetaValue
		case model.ItemMetaVariationID:
			item.VariationID = meta.MetaValue
		case model.ItemMetaQty:
			qty, _ := strconv.Atoi(meta.MetaValue)
			item.Quantity = int32(qty)
		case model.ItemMetaLineSubtotal:
			item.Subtotal, _ = decimal.NewFromString(meta.MetaValue)
		case model.ItemMetaLineTotal:
			item.Total, _ = decimal.NewFromString(meta.MetaValue)
		default:
			if strings.HasPrefix(meta.MetaKey, "_") {
				continue
			}
			item.Meta = append(item.Meta, model.MetaEntry{Key: meta.MetaKey, Value: meta.MetaValue})
		}
	}

	return result, nil
}

// idBatches splits ids into consecutive slices of at most loadBatchSize.
func idBatches(ids []uint) [][]uint {
	size := max(loadBatchSize, 1)
	batches := make([][]uint, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		batches = append(batches, ids[start:min(start+size, len(ids))])
	}
	return batches
}

// inIDOrder returns orders arranged in the order of ids, skipping misses.
func inIDOrder(ids []uint, byID map[uint]*model.Order) []*model.Order {
	orders := make([]*model.Order, 0, len(ids))
	for _, id := range ids {
		if order, ok := byID[id]; ok {
			orders = append(orders, order)
		}
	}
	return orders
}
