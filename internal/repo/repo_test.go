package repo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/testutil"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(testutil.InitTestDB(t))
}

func seedUser(t *testing.T, r *GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{
		Firstname: "Ann",
		Lastname:  "Smith",
		Email:     email,
		Password:  "$2b$10$hash",
		Role:      models.RoleCustomer,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestUsers_CreateAndFind(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "ann@example.com")
	assert.NotEqual(t, uuid.Nil, u.ID)

	byEmail, err := r.FindUserByEmail(ctx, " ANN@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", byID.Email)

	_, err = r.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	r := newRepo(t)
	seedUser(t, r, "dup@example.com")

	err := r.CreateUser(context.Background(), &models.User{
		Firstname: "B", Lastname: "C", Email: "dup@example.com", Password: "x", Role: models.RoleCustomer,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUsers_ListSearchAndPage(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedUser(t, r, fmt.Sprintf("user%d@example.com", i))
	}
	other := &models.User{Firstname: "Zed", Lastname: "Zulu", Email: "zz@corp.io", Password: "x", Role: models.RoleManager}
	require.NoError(t, r.CreateUser(ctx, other))

	total, users, err := r.ListUsers(ctx, ListQuery{Offset: 0, Limit: 4})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, users, 4)

	total, users, err = r.ListUsers(ctx, ListQuery{Q: "ZULU", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, other.ID, users[0].ID)

	total, _, err = r.ListUsers(ctx, ListQuery{Q: "100%", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestUsers_FindByIDsKeepsOrder(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	a := seedUser(t, r, "a@example.com")
	b := seedUser(t, r, "b@example.com")

	users, err := r.FindUsersByIDs(ctx, []uuid.UUID{b.ID, uuid.New(), a.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, b.ID, users[0].ID)
	assert.Equal(t, a.ID, users[1].ID)

	users, err = r.FindUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUsers_UpdateAndDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "upd@example.com")

	tenant := &models.Tenant{Name: "Acme", Address: "Main st 1"}
	require.NoError(t, r.CreateTenant(ctx, tenant))

	got, err := r.UpdateUser(ctx, u.ID, UserUpdate{Firstname: "Anna", Lastname: "Smyth", Role: models.RoleManager, TenantID: &tenant.ID})
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Firstname)
	assert.Equal(t, models.RoleManager, got.Role)
	require.NotNil(t, got.Tenant)
	assert.Equal(t, "Acme", got.Tenant.Name)

	got, err = r.UpdateUser(ctx, u.ID, UserUpdate{Firstname: "Anne", Lastname: "Smyth", Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, "Anne", got.Firstname)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, tenant.ID, *got.TenantID)

	got, err = r.UpdateUser(ctx, u.ID, UserUpdate{Firstname: "Anne", Lastname: "Smyth", Role: models.RoleManager, DetachTenant: true})
	require.NoError(t, err)
	assert.Nil(t, got.TenantID)

	missing := uuid.New()
	_, err = r.UpdateUser(ctx, u.ID, UserUpdate{Firstname: "A", Lastname: "B", Role: models.RoleManager, TenantID: &missing})
	assert.Error(t, err)

	_, err = r.UpdateUser(ctx, uuid.New(), UserUpdate{Firstname: "A", Lastname: "B", Role: models.RoleManager})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.DeleteUser(ctx, u.ID))
	assert.ErrorIs(t, r.DeleteUser(ctx, u.ID), ErrNotFound)
}

func TestTenants_CRUD(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	a := &models.Tenant{Name: "Alpha Pizza", Address: "Baker st 221b"}
	b := &models.Tenant{Name: "Beta Burgers", Address: "Elm st 5"}
	require.NoError(t, r.CreateTenant(ctx, a))
	require.NoError(t, r.CreateTenant(ctx, b))

	total, list, err := r.ListTenants(ctx, ListQuery{Q: "baker", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	upd, err := r.UpdateTenant(ctx, b.ID, "Beta Bistro", "Elm st 6")
	require.NoError(t, err)
	assert.Equal(t, "Beta Bistro", upd.Name)

	got, err := r.FindTenantByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elm st 6", got.Address)

	require.NoError(t, r.DeleteTenant(ctx, a.ID))
	_, err = r.FindTenantByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.DeleteTenant(ctx, a.ID), ErrNotFound)
	_, err = r.UpdateTenant(ctx, a.ID, "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTenants_DeleteDetachesUsers(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	tenant := &models.Tenant{Name: "Gamma", Address: "Oak st 9"}
	require.NoError(t, r.CreateTenant(ctx, tenant))
	u := seedUser(t, r, "g@example.com")
	_, err := r.UpdateUser(ctx, u.ID, UserUpdate{Firstname: u.Firstname, Lastname: u.Lastname, Role: u.Role, TenantID: &tenant.ID})
	require.NoError(t, err)

	require.NoError(t, r.DeleteTenant(ctx, tenant.ID))

	got, err := r.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TenantID)
}

func TestLedger_PersistFindDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "ledger@example.com")

	a, err := r.Persist(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	b, err := r.Persist(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := r.FindByIDAndOwner(ctx, a.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = r.FindByIDAndOwner(ctx, a.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := r.DeleteRefresh(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = r.DeleteRefresh(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = r.FindByIDAndOwner(ctx, a.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindByIDAndOwner(ctx, b.ID, u.ID)
	assert.NoError(t, err)
}

func TestLedger_PersistUnknownUser(t *testing.T) {
	r := newRepo(t)
	_, err := r.Persist(context.Background(), uuid.New(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}

func TestLedger_ExpiredIsNotFound(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "exp@example.com")

	old, err := r.Persist(ctx, u.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	live, err := r.Persist(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = r.FindByIDAndOwner(ctx, old.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := r.DeleteExpiredRefresh(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = r.FindByIDAndOwner(ctx, live.ID, u.ID)
	assert.NoError(t, err)
}

func TestLedger_CascadeOnUserDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "cascade@example.com")

	rec, err := r.Persist(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, r.DeleteUser(ctx, u.ID))

	n, err := r.DeleteRefresh(ctx, rec.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestLedger_ConcurrentDeleteSingleWinner(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := seedUser(t, r, "race@example.com")
	rec, err := r.Persist(ctx, u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := r.DeleteRefresh(ctx, rec.ID)
			if err == nil {
				wins.Add(n)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}
