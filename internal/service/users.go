package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type UserService struct {
	Users   UserRepo
	Tenants TenantRepo
	Now     func() time.Time

	Events  events.Publisher
	Index   UserIndex
	Metrics *metrics.Metrics
}

func (s *UserService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *UserService) effects() sideEffects {
	return sideEffects{Events: s.Events, Index: s.Index, Metrics: s.Metrics}
}

// Create adds a manager account.
func (s *UserService) Create(ctx context.Context, req transport.RegisterRequest) (string, error) {
	l := logging.FromContext(ctx).With("svc", "users.create")

	if fe := req.Validate(); len(fe) > 0 {
		return "", ValidationError(fe)
	}
	user, aerr := createUser(ctx, s.Users, req, models.RoleManager)
	if aerr != nil {
		l.Warn("user_create_error", "reason", aerr.Message, "error", aerr.Err)
		return "", aerr
	}

	fx := s.effects()
	fx.indexUser(ctx, user)
	fx.publish(ctx, events.TopicUsers, user.ID.String(), userEvent(events.UserCreated, user, s.now()))

	l.Info("manager_created", "user_id", user.ID)
	return user.ID.String(), nil
}

func (s *UserService) Get(ctx context.Context, rawID string) (*models.User, error) {
	id, aerr := parseID(rawID, "user id")
	if aerr != nil {
		return nil, aerr
	}
	user, err := s.Users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewError(KindUserNotFound, MsgUserNotFound, err)
		}
		return nil, Persistence(err)
	}
	return user, nil
}

// List searches the index when one is configured and falls back to a
// database substring match when it is not or when it fails.
func (s *UserService) List(ctx context.Context, q repo.ListQuery) (int64, []models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.list")

	if s.Index != nil && strings.TrimSpace(q.Q) != "" {
		total, ids, err := s.Index.Search(ctx, q.Q, q.Offset, q.Limit)
		if err == nil {
			users, err := s.Users.FindUsersByIDs(ctx, ids)
			if err != nil {
				return 0, nil, Persistence(err)
			}
			// hits whose row is gone are stale index entries
			if stale := len(ids) - len(users); stale > 0 {
				l.Warn("user_search_stale_hits", "count", stale)
				total = max(total-int64(stale), int64(len(users)))
			}
			return total, users, nil
		}
		l.Warn("user_search_fallback", "reason", "index search failed", "error", err)
	}

	total, users, err := s.Users.ListUsers(ctx, q)
	if err != nil {
		l.Error("user_list_error", "error", err)
		return 0, nil, Persistence(err)
	}
	return total, users, nil
}

func (s *UserService) Update(ctx context.Context, rawID string, req transport.UpdateUserRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update")

	id, aerr := parseID(rawID, "user id")
	if aerr != nil {
		return nil, aerr
	}
	if fe := req.Validate(); len(fe) > 0 {
		return nil, ValidationError(fe)
	}

	upd := repo.UserUpdate{Firstname: req.Firstname, Lastname: req.Lastname, Role: req.ParsedRole, DetachTenant: req.DetachTenant}
	if req.TenantID != nil {
		tid := uuid.MustParse(*req.TenantID)
		if _, err := s.Tenants.FindTenantByID(ctx, tid); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, NewError(KindTenantNotFound, MsgTenantNotFound, err)
			}
			return nil, Persistence(err)
		}
		upd.TenantID = &tid
	}

	user, err := s.Users.UpdateUser(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, NewError(KindUserNotFound, MsgUserNotFound, err)
		case errors.Is(err, repo.ErrBadReference):
			return nil, NewError(KindTenantNotFound, MsgTenantNotFound, err)
		}
		l.Error("user_update_error", "user_id", id, "error", err)
		return nil, Persistence(err)
	}

	fx := s.effects()
	fx.indexUser(ctx, user)
	fx.publish(ctx, events.TopicUsers, user.ID.String(), userEvent(events.UserUpdated, user, s.now()))

	l.Info("user_updated", "user_id", id)
	return user, nil
}

// Delete removes the user. Its refresh tokens go with it.
func (s *UserService) Delete(ctx context.Context, rawID string) error {
	l := logging.FromContext(ctx).With("svc", "users.delete")

	id, aerr := parseID(rawID, "user id")
	if aerr != nil {
		return aerr
	}
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewError(KindUserNotFound, MsgUserNotFound, err)
		}
		l.Error("user_delete_error", "user_id", id, "error", err)
		return Persistence(err)
	}

	fx := s.effects()
	fx.unindexUser(ctx, id)
	fx.publish(ctx, events.TopicUsers, id.String(), events.UserEvent{Type: events.UserDeleted, UserID: id.String(), At: s.now().UTC()})

	l.Info("user_deleted", "user_id", id)
	return nil
}
