package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/keys"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/tokens"
	"github.com/Skotchmaster/auth_service/internal/transport"
	pkg_hash "github.com/Skotchmaster/auth_service/pkg/hash"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type AuthService struct {
	Users  UserStore
	Ledger RefreshLedger
	Tokens TokenIssuer
	Now    func() time.Time

	Events  events.Publisher
	Index   UserIndex
	Metrics *metrics.Metrics
}

type LoginResult struct {
	UserID           string
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) effects() sideEffects {
	return sideEffects{Events: s.Events, Index: s.Index, Metrics: s.Metrics}
}

// Register creates a customer account and returns its id.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (id string, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")
	defer func() { s.Metrics.Flow("register", err) }()

	if fe := req.Validate(); len(fe) > 0 {
		l.Warn("register_error", "status", 400, "reason", "validation failed")
		return "", ValidationError(fe)
	}

	user, aerr := createUser(ctx, s.Users, req, models.RoleCustomer)
	if aerr != nil {
		l.Warn("register_error", "reason", aerr.Message, "error", aerr.Err)
		return "", aerr
	}

	fx := s.effects()
	fx.indexUser(ctx, user)
	fx.publish(ctx, events.TopicUsers, user.ID.String(), userEvent(events.UserRegistered, user, s.now()))

	l.Info("register_successful", "user_id", user.ID)
	return user.ID.String(), nil
}

func createUser(ctx context.Context, users UserStore, req transport.RegisterRequest, role models.Role) (*models.User, *AuthError) {
	_, err := users.FindUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, NewError(KindDuplicateEmail, MsgDuplicateEmail, nil)
	case !errors.Is(err, repo.ErrNotFound):
		return nil, Persistence(err)
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if err != nil {
		return nil, Persistence(err)
	}

	user := &models.User{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  pwHash,
		Role:      role,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewError(KindDuplicateEmail, MsgDuplicateEmail, err)
		}
		return nil, Persistence(err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (res *LoginResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")
	defer func() { s.Metrics.Flow("login", err) }()

	if fe := req.Validate(); len(fe) > 0 {
		return nil, ValidationError(fe)
	}

	user, err := s.Users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 400, "reason", "unknown email")
			return nil, NewError(KindInvalidCredentials, MsgInvalidCredentials, nil)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, Persistence(err)
	}

	if !pkg_hash.CheckPassword(user.Password, req.Password) {
		l.Warn("login_failed", "status", 400, "reason", "password mismatch", "user_id", user.ID)
		return nil, NewError(KindInvalidCredentials, MsgInvalidCredentials, nil)
	}

	res, aerr := s.issue(ctx, user)
	if aerr != nil {
		l.Error("login_failed", "reason", aerr.Message, "error", aerr.Err)
		return nil, aerr
	}

	s.effects().publish(ctx, events.TopicUsers, user.ID.String(), userEvent(events.UserLoggedIn, user, s.now()))
	l.Info("login_successful", "user_id", user.ID)
	return res, nil
}

// Refresh rotates the presented refresh token. The old ledger record is
// deleted before new tokens are issued; losing that delete to a concurrent
// refresh of the same token is reported as a revoked token.
func (s *AuthService) Refresh(ctx context.Context, claims *tokens.RefreshClaims) (res *LoginResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	defer func() { s.Metrics.Flow("refresh", err) }()

	userID, tokenID, aerr := refreshIDs(claims)
	if aerr != nil {
		return nil, aerr
	}

	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 400, "reason", "user not found", "user_id", userID)
			return nil, NewError(KindUserNotFound, MsgUserNotFound, err)
		}
		return nil, Persistence(err)
	}

	n, err := s.Ledger.DeleteRefresh(ctx, tokenID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "reason", "cannot delete old refresh token", "error", err)
		return nil, Persistence(err)
	}
	if n == 0 {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token already rotated", "token_id", tokenID)
		return nil, Unauthorized(KindRevokedToken, nil)
	}

	res, aerr = s.issue(ctx, user)
	if aerr != nil {
		l.Error("refresh_failed", "reason", aerr.Message, "error", aerr.Err)
		return nil, aerr
	}

	s.effects().publish(ctx, events.TopicUsers, user.ID.String(), userEvent(events.TokenRefreshed, user, s.now()))
	l.Info("refresh_successful", "user_id", user.ID)
	return res, nil
}

// Logout deletes the ledger record of the presented refresh token. subject
// is the access token's subject and must own the refresh token. A record that
// is already gone is not an error here.
func (s *AuthService) Logout(ctx context.Context, subject string, claims *tokens.RefreshClaims) (err error) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")
	defer func() { s.Metrics.Flow("logout", err) }()

	userID, tokenID, aerr := refreshIDs(claims)
	if aerr != nil {
		return aerr
	}
	if subject != claims.Subject {
		l.Warn("logout_failed", "status", 401, "reason", "token subjects differ", "user_id", userID)
		return Unauthorized(KindInvalidToken, errors.New("access and refresh token subjects differ"))
	}

	if _, err := s.Ledger.DeleteRefresh(ctx, tokenID); err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return Persistence(err)
	}

	s.effects().publish(ctx, events.TopicUsers, userID.String(), events.UserEvent{
		Type:   events.UserLoggedOut,
		UserID: userID.String(),
		Role:   claims.Role.String(),
		At:     s.now().UTC(),
	})
	l.Info("successful_logout", "user_id", userID)
	return nil
}

func (s *AuthService) Self(ctx context.Context, subject string) (*models.User, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, Unauthorized(KindInvalidToken, err)
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

// issue signs a fresh token pair for user with the role stored in the
// database, so role changes take effect at the next refresh.
func (s *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, *AuthError) {
	p := tokens.Principal{Subject: user.ID.String(), Role: user.Role}

	access, err := s.Tokens.IssueAccessToken(ctx, p)
	if err != nil {
		return nil, issueError(err)
	}

	expiresAt := s.now().Add(tokens.RefreshTTL)
	refresh, err := s.Tokens.IssueRefreshToken(ctx, p, user, expiresAt)
	if err != nil {
		return nil, issueError(err)
	}

	return &LoginResult{
		UserID:           user.ID.String(),
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: expiresAt,
	}, nil
}

func issueError(err error) *AuthError {
	if errors.Is(err, keys.ErrKeyUnavailable) {
		return NewError(KindKeyUnavailable, MsgKeyUnavailable, err)
	}
	return Persistence(err)
}

func refreshIDs(claims *tokens.RefreshClaims) (userID, tokenID uuid.UUID, aerr *AuthError) {
	if claims == nil {
		return uuid.Nil, uuid.Nil, Unauthorized(KindInvalidToken, errors.New("no refresh claims"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, Unauthorized(KindInvalidToken, err)
	}
	tokenID, err = uuid.Parse(claims.TokenID)
	if err != nil {
		return uuid.Nil, uuid.Nil, Unauthorized(KindInvalidToken, err)
	}
	return userID, tokenID, nil
}
