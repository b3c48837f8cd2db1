package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Preload("Tenant").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindUsersByIDs returns the users in the order of ids, skipping unknown ids.
func (r *GormRepo) FindUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.User
	if err := r.DB.WithContext(ctx).Preload("Tenant").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]models.User, 0, len(found))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, q ListQuery) (int64, []models.User, error) {
	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if strings.TrimSpace(q.Q) != "" {
		p := likePattern(q.Q)
		tx = tx.Where(`LOWER(firstname) LIKE ? ESCAPE '\' OR LOWER(lastname) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, p, p, p)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var users []models.User
	err := tx.Preload("Tenant").
		Order("created_at DESC").Order("id").
		Offset(q.Offset).Limit(q.Limit).
		Find(&users).Error
	if err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

type UserUpdate struct {
	Firstname    string
	Lastname     string
	Role         models.Role
	// TenantID nil leaves the tenant as is unless DetachTenant is set.
	TenantID     *uuid.UUID
	DetachTenant bool
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, upd UserUpdate) (*models.User, error) {
	db := r.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}

	cols := map[string]any{
		"firstname": upd.Firstname,
		"lastname":  upd.Lastname,
		"role":      upd.Role,
	}
	switch {
	case upd.TenantID != nil:
		cols["tenant_id"] = *upd.TenantID
	case upd.DetachTenant:
		cols["tenant_id"] = nil
	}

	err := db.Model(&user).Updates(cols).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindUserByID(ctx, id)
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
