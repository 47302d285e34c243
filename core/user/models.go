package user

import (
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/scaffold/core"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// AnonymousUsername is the placeholder identity carried by requests without a valid session.
	AnonymousUsername = "0"
)

var (
	errBlankUsername     = errors.New("username is required")
	errBlankRole         = errors.New("roles cannot contain blank values")
	errBlankService      = errors.New("service name is required")
	errInvalidSvcToken   = errors.New("service token cannot be nil or a function")
	errInvalidTokenValue = "must be a string or a structured value"
)

// User is the authenticated identity attached to a request.
// Roles are kept lowercased, deduplicated and sorted; service tokens are private so that
// their values can never be nil or functions.
type User struct {
	Username         string            `json:"username"`
	Roles            []string          `json:"roles"`
	FirstName        string            `json:"firstName,omitempty"`
	LastName         string            `json:"lastName,omitempty"`
	Email            string            `json:"email,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
	SessionTimestamp int64             `json:"sessionTimestamp,omitempty"` // epoch ms

	serviceTokens map[string]interface{}
}

// NewUser builds a User; username must not be blank.
func NewUser(username string, roles []string) (User, error) {
	username = core.CleanString(username)
	if username == "" {
		return User{}, core.NewValidationError(errBlankUsername, core.FieldError{Field: "username", Error: errBlankUsername.Error()})
	}
	cleaned, err := cleanRoles(roles)
	if err != nil {
		return User{}, err
	}
	return User{Username: username, Roles: cleaned}, nil
}

// FromProfile re-hydrates a User out of a stored Profile.
func FromProfile(p Profile) (User, error) {
	usr, err := NewUser(p.Username, p.Roles)
	if err != nil {
		return User{}, err
	}
	usr.FirstName = p.FirstName
	usr.LastName = p.LastName
	usr.Email = p.Email
	if len(p.Extra) > 0 {
		usr.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			usr.Extra[k] = v
		}
	}
	return usr, nil
}

// Anonymous returns the placeholder User for unauthenticated requests.
func Anonymous() User {
	return User{Username: AnonymousUsername, Roles: []string{}}
}

func cleanRoles(roles []string) ([]string, error) {
	set := make(map[string]struct{}, len(roles))
	cleaned := make([]string, 0, len(roles))
	for _, role := range roles {
		role = core.CleanString(role, true /* lower */)
		if role == "" {
			return nil, core.NewValidationError(errBlankRole, core.FieldError{Field: "roles", Error: errBlankRole.Error()})
		}
		if _, ok := set[role]; !ok {
			set[role] = struct{}{}
			cleaned = append(cleaned, role)
		}
	}
	sort.Strings(cleaned)
	return cleaned, nil
}

func (u User) IsAuthenticated() bool {
	return u.Username != "" && u.Username != AnonymousUsername
}

// HasRole does a case-insensitive membership test.
func (u User) HasRole(role string) bool {
	role = core.CleanString(role)
	if role == "" {
		return false
	}
	for _, r := range u.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

func (u User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SetServiceToken stores an opaque credential for the given service.
// token must be a string or a structured value (map, slice, struct); nil and functions are rejected.
func (u *User) SetServiceToken(service string, token interface{}) error {
	service = core.CleanString(service)
	if service == "" {
		return core.NewValidationError(errBlankService, core.FieldError{Field: "service", Error: errBlankService.Error()})
	}
	if token == nil {
		return core.NewValidationError(errInvalidSvcToken, core.FieldError{Field: service, Error: errInvalidTokenValue})
	}
	switch reflect.TypeOf(token).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return core.NewValidationError(errInvalidSvcToken, core.FieldError{Field: service, Error: errInvalidTokenValue})
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		if reflect.ValueOf(token).IsNil() {
			return core.NewValidationError(errInvalidSvcToken, core.FieldError{Field: service, Error: errInvalidTokenValue})
		}
	}
	if u.serviceTokens == nil {
		u.serviceTokens = make(map[string]interface{})
	}
	u.serviceTokens[service] = token
	return nil
}

func (u User) ServiceToken(service string) (interface{}, bool) {
	token, ok := u.serviceTokens[service]
	return token, ok
}

// ServiceTokens returns a copy of the service tokens map (never the live one).
func (u User) ServiceTokens() map[string]interface{} {
	clone := make(map[string]interface{}, len(u.serviceTokens))
	for k, v := range u.serviceTokens {
		clone[k] = v
	}
	return clone
}

// Profile is the stored record behind a User.
type Profile struct {
	Username     string            `json:"username" yaml:"username"`
	Roles        []string          `json:"roles" yaml:"roles,flow"`
	FirstName    string            `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName     string            `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Email        string            `json:"email,omitempty" yaml:"email,omitempty"`
	PasswordHash string            `json:"passwordHash,omitempty" yaml:"passwordHash,omitempty"`
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (p *Profile) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hash)
	return nil
}

func (p *Profile) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(pwd))
}

// NewProfile contains information needed to create a new Profile.
type NewProfile struct {
	Username        string            `json:"username" validate:"required,alphanum_"`
	FirstName       string            `json:"firstName"`
	LastName        string            `json:"lastName"`
	Email           string            `json:"email" validate:"omitempty,email"`
	Roles           []string          `json:"roles" validate:"omitempty,dive,rolename"`
	Password        string            `json:"password" validate:"required"`
	PasswordConfirm string            `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Extra           map[string]string `json:"extra"`
}

func (np *NewProfile) clean() {
	np.Username = core.CleanString(np.Username)
	np.FirstName = core.CleanString(np.FirstName)
	np.LastName = core.CleanString(np.LastName)
	np.Email = core.CleanString(np.Email, true /* lower */)
	for i, role := range np.Roles {
		np.Roles[i] = core.CleanString(role, true /* lower */)
	}
}

// UpdateProfile defines what information may be provided to modify an existing Profile.
// Empty fields are left untouched.
type UpdateProfile struct {
	FirstName string            `json:"firstName" form:"firstName" validate:"omitempty,max=64"`
	LastName  string            `json:"lastName" form:"lastName" validate:"omitempty,max=64"`
	Email     string            `json:"email" form:"email" validate:"omitempty,email"`
	Extra     map[string]string `json:"extra" form:"-"`
}

func (up *UpdateProfile) clean() {
	up.FirstName = core.CleanString(up.FirstName)
	up.LastName = core.CleanString(up.LastName)
	up.Email = core.CleanString(up.Email, true /* lower */)
}

type ResetPassword struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}
