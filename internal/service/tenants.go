package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/transport"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

type TenantService struct {
	Tenants TenantRepo
	Now     func() time.Time

	Events  events.Publisher
	Metrics *metrics.Metrics
}

func (s *TenantService) publish(ctx context.Context, typ string, t *models.Tenant) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	sideEffects{Events: s.Events, Metrics: s.Metrics}.publish(ctx, events.TopicTenants, t.ID.String(), events.TenantEvent{
		Type:     typ,
		TenantID: t.ID.String(),
		Name:     t.Name,
		At:       now.UTC(),
	})
}

func tenantError(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NewError(KindTenantNotFound, MsgTenantNotFound, err)
	}
	return Persistence(err)
}

func (s *TenantService) Create(ctx context.Context, req transport.TenantRequest) (*models.Tenant, error) {
	l := logging.FromContext(ctx).With("svc", "tenants.create")

	if fe := req.Validate(); len(fe) > 0 {
		return nil, ValidationError(fe)
	}
	t := &models.Tenant{Name: req.Name, Address: req.Address}
	if err := s.Tenants.CreateTenant(ctx, t); err != nil {
		l.Error("tenant_create_error", "error", err)
		return nil, Persistence(err)
	}

	s.publish(ctx, events.TenantCreated, t)
	l.Info("tenant_created", "tenant_id", t.ID)
	return t, nil
}

func (s *TenantService) Get(ctx context.Context, rawID string) (*models.Tenant, error) {
	id, aerr := parseID(rawID, "tenant id")
	if aerr != nil {
		return nil, aerr
	}
	t, err := s.Tenants.FindTenantByID(ctx, id)
	if err != nil {
		return nil, tenantError(err)
	}
	return t, nil
}

func (s *TenantService) List(ctx context.Context, q repo.ListQuery) (int64, []models.Tenant, error) {
	total, list, err := s.Tenants.ListTenants(ctx, q)
	if err != nil {
		logging.FromContext(ctx).Error("tenant_list_error", "error", err)
		return 0, nil, Persistence(err)
	}
	return total, list, nil
}

func (s *TenantService) Update(ctx context.Context, rawID string, req transport.TenantRequest) (*models.Tenant, error) {
	l := logging.FromContext(ctx).With("svc", "tenants.update")

	id, aerr := parseID(rawID, "tenant id")
	if aerr != nil {
		return nil, aerr
	}
	if fe := req.Validate(); len(fe) > 0 {
		return nil, ValidationError(fe)
	}
	t, err := s.Tenants.UpdateTenant(ctx, id, req.Name, req.Address)
	if err != nil {
		l.Warn("tenant_update_error", "tenant_id", id, "error", err)
		return nil, tenantError(err)
	}

	s.publish(ctx, events.TenantUpdated, t)
	l.Info("tenant_updated", "tenant_id", id)
	return t, nil
}

func (s *TenantService) Delete(ctx context.Context, rawID string) error {
	l := logging.FromContext(ctx).With("svc", "tenants.delete")

	id, aerr := parseID(rawID, "tenant id")
	if aerr != nil {
		return aerr
	}
	if err := s.Tenants.DeleteTenant(ctx, id); err != nil {
		l.Warn("tenant_delete_error", "tenant_id", id, "error", err)
		return tenantError(err)
	}

	s.publish(ctx, events.TenantDeleted, &models.Tenant{ID: id})
	l.Info("tenant_deleted", "tenant_id", id)
	return nil
}
