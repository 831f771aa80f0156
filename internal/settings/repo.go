package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-promotions/internal/repo"
	"github.com/angelmondragon/storefront-promotions/pkg/db/models"
)

// Repository reads global storefront settings.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) Get(ctx context.Context, key string) (string, bool, error) {
	var setting models.Setting
	err := r.base.DB(ctx).Where("key = ?", key).Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}
