package events

import (
	"context"
	"sync"
	"time"
)

const (
	UserRegistered = "user.registered"
	UserLoggedIn   = "user.logged_in"
	UserLoggedOut  = "user.logged_out"
	TokenRefreshed = "user.token_refreshed"
	UserCreated    = "user.created"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"

	TenantCreated = "tenant.created"
	TenantUpdated = "tenant.updated"
	TenantDeleted = "tenant.deleted"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role,omitempty"`
	TenantID string    `json:"tenant_id,omitempty"`
	At       time.Time `json:"at"`
}

type TenantEvent struct {
	Type     string    `json:"type"`
	TenantID string    `json:"tenant_id"`
	Name     string    `json:"name,omitempty"`
	At       time.Time `json:"at"`
}

type Published struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

func (r *Recorder) Types() []string {
	var out []string
	for _, p := range r.Events() {
		switch e := p.Event.(type) {
		case UserEvent:
			out = append(out, e.Type)
		case TenantEvent:
			out = append(out, e.Type)
		}
	}
	return out
}
