package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/models"
)

func (r *GormRepo) CreateTenant(ctx context.Context, t *models.Tenant) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormRepo) ListTenants(ctx context.Context, q ListQuery) (int64, []models.Tenant, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Tenant{})
	if strings.TrimSpace(q.Q) != "" {
		p := likePattern(q.Q)
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(address) LIKE ? ESCAPE '\'`, p, p)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var tenants []models.Tenant
	err := tx.Order("created_at DESC").Order("id").
		Offset(q.Offset).Limit(q.Limit).
		Find(&tenants).Error
	if err != nil {
		return 0, nil, err
	}
	return total, tenants, nil
}

func (r *GormRepo) UpdateTenant(ctx context.Context, id uuid.UUID, name, address string) (*models.Tenant, error) {
	db := r.DB.WithContext(ctx)

	var t models.Tenant
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&t).Updates(map[string]any{"name": name, "address": address}).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *GormRepo) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
