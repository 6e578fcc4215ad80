package repository

import (
	"context"
	"errors"
	"purchase-options-demo/internal/model"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OptionRepository interface {
	// Get returns the raw JSON value of the option and whether it exists.
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, value []byte) error
}

type optionRepoImpl struct {
	db *gorm.DB
}

func NewOptionRepository(db *gorm.DB) OptionRepository {
	return &optionRepoImpl{
		db: db,
	}
}

func (r *optionRepoImpl) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var option model.Option
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&option).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return []byte(option.Value), true, nil
}

func (r *optionRepoImpl) Set(ctx context.Context, name string, value []byte) error {
	option := &model.Option{
		Name:  name,
		Value: datatypes.JSON(value),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      option.Value,
			"updated_at": time.Now(),
		}),
	}).Create(option).Error
}
