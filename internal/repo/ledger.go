package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/models"
)

// Persist inserts a new refresh token record. A user may hold any number of
// live records, one per session.
func (r *GormRepo) Persist(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (*models.RefreshToken, error) {
	rec := models.RefreshToken{UserID: userID, ExpiresAt: expiresAt.UTC()}
	if err := r.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// FindByIDAndOwner returns ErrNotFound for missing records and for records
// past their expiry.
func (r *GormRepo) FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND expires_at > ?", id, userID, r.now()).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// DeleteRefresh is idempotent. The affected row count tells concurrent
// rotations of the same token apart: only one caller sees 1.
func (r *GormRepo) DeleteRefresh(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteExpiredRefresh(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
