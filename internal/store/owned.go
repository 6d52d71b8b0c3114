package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// updateOwned applies updates to row id only if it belongs to userID, then
// reloads it. Rows of other users look missing.
func updateOwned[T any](ctx context.Context, db *gorm.DB, what, id, userID string, updates map[string]interface{}) (*T, error) {
	res := db.WithContext(ctx).Model(new(T)).Where("id = ? AND user_id = ?", id, userID).Updates(updates)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "update %s %s", what, id)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	out := new(T)
	if err := db.WithContext(ctx).Where("id = ?", id).First(out).Error; err != nil {
		return nil, errors.Wrapf(err, "reload %s %s", what, id)
	}
	return out, nil
}

func deleteOwned[T any](ctx context.Context, db *gorm.DB, what, id, userID string) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(new(T))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete %s %s", what, id)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
