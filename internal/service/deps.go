package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/tokens"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserRepo interface {
	UserStore
	FindUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	ListUsers(ctx context.Context, q repo.ListQuery) (int64, []models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, upd repo.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type TenantRepo interface {
	CreateTenant(ctx context.Context, t *models.Tenant) error
	FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListTenants(ctx context.Context, q repo.ListQuery) (int64, []models.Tenant, error)
	UpdateTenant(ctx context.Context, id uuid.UUID, name, address string) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, id uuid.UUID) error
}

type RefreshLedger interface {
	FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID) (*models.RefreshToken, error)
	DeleteRefresh(ctx context.Context, id uuid.UUID) (int64, error)
}

type TokenIssuer interface {
	IssueAccessToken(ctx context.Context, p tokens.Principal) (string, error)
	IssueRefreshToken(ctx context.Context, p tokens.Principal, user *models.User, expiresAt time.Time) (string, error)
}

type UserIndex interface {
	Put(ctx context.Context, u *models.User) error
	Remove(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

// sideEffects groups the best-effort outputs of a flow. Failures are logged
// and counted but never fail the request.
type sideEffects struct {
	Events  events.Publisher
	Index   UserIndex
	Metrics *metrics.Metrics
}

func (s sideEffects) publish(ctx context.Context, topic, key string, event any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "error", err)
		s.Metrics.PublishFailed(topic)
	}
}

func (s sideEffects) indexUser(ctx context.Context, u *models.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, u); err != nil {
		logging.FromContext(ctx).Warn("user_index_failed", "user_id", u.ID, "error", err)
	}
}

func (s sideEffects) unindexUser(ctx context.Context, id uuid.UUID) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("user_unindex_failed", "user_id", id, "error", err)
	}
}

func userEvent(typ string, u *models.User, at time.Time) events.UserEvent {
	ev := events.UserEvent{
		Type:   typ,
		UserID: u.ID.String(),
		Email:  u.Email,
		Role:   u.Role.String(),
		At:     at.UTC(),
	}
	if u.TenantID != nil {
		ev.TenantID = u.TenantID.String()
	}
	return ev
}

func parseID(raw, field string) (uuid.UUID, *AuthError) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &AuthError{
			Kind:    KindValidation,
			Message: field + " is not valid uuid",
			Err:     err,
		}
	}
	return id, nil
}
