package transport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/internal/models"
)

func paths(fe []FieldError) []string {
	out := make([]string, 0, len(fe))
	for _, e := range fe {
		out = append(out, e.Path)
	}
	return out
}

func TestRegisterRequest_Validate(t *testing.T) {
	t.Parallel()

	valid := func() RegisterRequest {
		return RegisterRequest{Firstname: "Savi", Lastname: "Singh", Email: "1@gmail.com", Password: "Test@9767$%13456"}
	}

	tests := []struct {
		name   string
		mutate func(r *RegisterRequest)
		want   []string
	}{
		{name: "valid", mutate: func(*RegisterRequest) {}, want: []string{}},
		{name: "missing email", mutate: func(r *RegisterRequest) { r.Email = "  " }, want: []string{"email"}},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }, want: []string{"email"}},
		{name: "short firstname", mutate: func(r *RegisterRequest) { r.Firstname = "Al" }, want: []string{"firstname"}},
		{name: "missing lastname", mutate: func(r *RegisterRequest) { r.Lastname = "" }, want: []string{"lastname"}},
		{name: "weak password", mutate: func(r *RegisterRequest) { r.Password = "password" }, want: []string{"password"}},
		{name: "long password", mutate: func(r *RegisterRequest) { r.Password = "Aa1!" + strings.Repeat("x", 70) }, want: []string{"password"}},
		{name: "everything missing", mutate: func(r *RegisterRequest) { *r = RegisterRequest{} }, want: []string{"firstname", "lastname", "email", "password"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := valid()
			tt.mutate(&r)
			assert.Equal(t, tt.want, paths(r.Validate()))
		})
	}
}

func TestRegisterRequest_Normalizes(t *testing.T) {
	t.Parallel()

	r := RegisterRequest{Firstname: "  Savi ", Lastname: "Singh", Email: " Savi@Example.COM ", Password: "Test@9767$%13456"}
	require.Empty(t, r.Validate())
	assert.Equal(t, "Savi", r.Firstname)
	assert.Equal(t, "savi@example.com", r.Email)
}

func TestRegisterRequest_ErrorShape(t *testing.T) {
	t.Parallel()

	r := RegisterRequest{Firstname: "Savi", Lastname: "Singh", Email: "", Password: "Test@9767$%13456"}
	fe := r.Validate()
	require.Len(t, fe, 1)
	assert.Equal(t, FieldError{Type: "field", Msg: "email is required!", Path: "email", Location: "body"}, fe[0])
}

func TestLoginRequest_Validate(t *testing.T) {
	t.Parallel()

	r := LoginRequest{Email: " A@B.io ", Password: "x"}
	assert.Empty(t, r.Validate())
	assert.Equal(t, "a@b.io", r.Email)

	empty := LoginRequest{}
	assert.Equal(t, []string{"email", "password"}, paths(empty.Validate()))
}

func TestUpdateUserRequest_Validate(t *testing.T) {
	t.Parallel()

	tid := "4f1c0d0e-8b7a-4a51-9a55-2f0c3b5e9d11"
	r := UpdateUserRequest{Firstname: "Anna", Lastname: "Smith", Role: " Manager ", TenantID: &tid}
	require.Empty(t, r.Validate())
	assert.Equal(t, models.RoleManager, r.ParsedRole)

	blank := " "
	r = UpdateUserRequest{Firstname: "Anna", Lastname: "Smith", Role: "admin", TenantID: &blank}
	require.Empty(t, r.Validate())
	assert.Nil(t, r.TenantID)
	assert.True(t, r.DetachTenant)

	bad := "nope"
	r = UpdateUserRequest{Firstname: "Anna", Lastname: "Smith", Role: "owner", TenantID: &bad}
	assert.Equal(t, []string{"role", "tenantId"}, paths(r.Validate()))
}

func TestTenantRequest_Validate(t *testing.T) {
	t.Parallel()

	r := TenantRequest{Name: " Acme ", Address: "Main st 1"}
	require.Empty(t, r.Validate())
	assert.Equal(t, "Acme", r.Name)

	r = TenantRequest{Name: "A", Address: strings.Repeat("x", 251)}
	assert.Equal(t, []string{"name", "address"}, paths(r.Validate()))
}

func TestStrongPassword(t *testing.T) {
	t.Parallel()

	assert.True(t, StrongPassword("Test@9767$%13456"))
	assert.True(t, StrongPassword("Aa1!aaaa"))
	assert.False(t, StrongPassword("Aa1!aaa"))
	assert.False(t, StrongPassword("aa1!aaaa"))
	assert.False(t, StrongPassword("AA1!AAAA"))
	assert.False(t, StrongPassword("Aaa!aaaa"))
	assert.False(t, StrongPassword("Aa1aaaaa"))
}
