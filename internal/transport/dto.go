package transport

import (
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"

	"github.com/Skotchmaster/auth_service/internal/models"
)

// FieldError mirrors one entry of the {"errors": [...]} response body.
type FieldError struct {
	Type     string `json:"type"`
	Msg      string `json:"msg"`
	Path     string `json:"path,omitempty"`
	Location string `json:"location,omitempty"`
}

func bodyField(path, msg string) FieldError {
	return FieldError{Type: "field", Msg: msg, Path: path, Location: "body"}
}

type fieldErrors []FieldError

func (fe *fieldErrors) add(path, msg string) {
	*fe = append(*fe, bodyField(path, msg))
}

func (fe *fieldErrors) name(path, value string) {
	switch {
	case value == "":
		fe.add(path, path+" is required!")
	case !govalidator.StringLength(value, "3", "50"):
		fe.add(path, path+" should be between 3 to 50 characters")
	}
}

func (fe *fieldErrors) role(value string) models.Role {
	if value == "" {
		fe.add("role", "Role is required!")
		return ""
	}
	r, err := models.ParseRole(value)
	if err != nil {
		names := make([]string, 0, 3)
		for _, r := range models.Roles() {
			names = append(names, r.String())
		}
		fe.add("role", "Role must be one of the following: "+strings.Join(names, ", "))
		return ""
	}
	return r
}

const MaxPasswordLen = 72

type RegisterRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() []FieldError {
	r.Normalize()
	var fe fieldErrors
	fe.name("firstname", r.Firstname)
	fe.name("lastname", r.Lastname)

	switch {
	case r.Email == "":
		fe.add("email", "email is required!")
	case !govalidator.IsEmail(r.Email):
		fe.add("email", "please enter a valid email")
	}

	switch {
	case r.Password == "":
		fe.add("password", "password is required")
	case len(r.Password) > MaxPasswordLen:
		fe.add("password", "Password cannot be greater than 72 characters")
	case !StrongPassword(r.Password):
		fe.add("password", "enter a strong password")
	}
	return fe
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() []FieldError {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	var fe fieldErrors
	if r.Email == "" {
		fe.add("email", "email is required!")
	}
	if r.Password == "" {
		fe.add("password", "password is required")
	}
	return fe
}

type UpdateUserRequest struct {
	Firstname string  `json:"firstname"`
	Lastname  string  `json:"lastname"`
	Role      string  `json:"role"`
	TenantID  *string `json:"tenantId"`

	ParsedRole   models.Role `json:"-"`
	// DetachTenant is set when tenantId was sent empty.
	DetachTenant bool        `json:"-"`
}

func (r *UpdateUserRequest) Validate() []FieldError {
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)

	var fe fieldErrors
	fe.name("firstname", r.Firstname)
	fe.name("lastname", r.Lastname)
	r.ParsedRole = fe.role(r.Role)

	if r.TenantID != nil {
		id := strings.TrimSpace(*r.TenantID)
		switch {
		case id == "":
			r.TenantID = nil
			r.DetachTenant = true
		case !govalidator.IsUUID(id):
			fe.add("tenantId", "Invalid Tenant id format!")
		default:
			r.TenantID = &id
		}
	}
	return fe
}

type TenantRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (r *TenantRequest) Validate() []FieldError {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)

	var fe fieldErrors
	switch {
	case r.Name == "":
		fe.add("name", "tenant name is required!")
	case !govalidator.StringLength(r.Name, "2", "100"):
		fe.add("name", "tenant name should be between 2 to 100 characters")
	}
	switch {
	case r.Address == "":
		fe.add("address", "tenant address is required!")
	case !govalidator.StringLength(r.Address, "2", "250"):
		fe.add("address", "tenant address should be between 2 to 250 characters")
	}
	return fe
}

// StrongPassword requires at least 8 characters with a lowercase letter, an
// uppercase letter, a digit and a symbol.
func StrongPassword(p string) bool {
	if len([]rune(p)) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

type IDResponse struct {
	ID string `json:"id"`
}

type ErrorsResponse struct {
	Errors []FieldError `json:"errors"`
}
