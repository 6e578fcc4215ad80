package repository

import (
	"context"
	"purchase-options-demo/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// Add inserts the line or, when the session already holds a line with the
	// same key, increases its quantity.
	Add(ctx context.Context, item *model.CartItem) error
	List(ctx context.Context, sessionID string) ([]*model.CartItem, error)
	UpdateQuantity(ctx context.Context, sessionID, lineKey string, quantity int32) error
	Remove(ctx context.Context, sessionID, lineKey string) error
	// Consume takes the ordered quantities off the session's lines and drops
	// lines left empty. Lines added or topped up after the cart was read keep
	// the difference.
	Consume(ctx context.Context, tx *gorm.DB, sessionID string, ordered []*model.CartItem) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) Add(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "line_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
}

func (r *cartRepoImpl) List(ctx context.Context, sessionID string) ([]*model.CartItem, error) {
	var items []*model.CartItem
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *cartRepoImpl) UpdateQuantity(ctx context.Context, sessionID, lineKey string, quantity int32) error {
	result := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("session_id = ? AND line_key = ?", sessionID, lineKey).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *cartRepoImpl) Remove(ctx context.Context, sessionID, lineKey string) error {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND line_key = ?", sessionID, lineKey).
		Delete(&model.CartItem{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *cartRepoImpl) Consume(ctx context.Context, tx *gorm.DB, sessionID string, ordered []*model.CartItem) error {
	if tx == nil {
		tx = r.db
	}
	tx = tx.WithContext(ctx)

	for _, item := range ordered {
		err := tx.Model(&model.CartItem{}).
			Where("session_id = ? AND line_key = ?", sessionID, item.LineKey).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity - ?", item.Quantity),
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return err
		}
	}

	return tx.
		Where("session_id = ? AND quantity <= 0", sessionID).
		Delete(&model.CartItem{}).Error
}
