package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scaffold/core"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		roles     []string
		wantRoles []string
		wantErr   bool
	}{
		{name: "blank username", username: "  ", wantErr: true},
		{name: "blank role", username: "pparker", roles: []string{"superhero", " "}, wantErr: true},
		{name: "no roles", username: "pparker", wantRoles: []string{}},
		{
			name: "roles are lowered, deduplicated and sorted", username: " pparker ",
			roles: []string{"Reporter", "SUPERHERO", "reporter"}, wantRoles: []string{"reporter", "superhero"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := NewUser(tt.username, tt.roles)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err), "NewUser() error = %v; want ValidationError", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pparker", usr.Username)
			assert.Equal(t, tt.wantRoles, usr.Roles)
		})
	}
}

func TestUser_HasRole(t *testing.T) {
	usr, err := NewUser("pparker", []string{"superhero", "Reporter"})
	require.NoError(t, err)

	tests := []struct {
		role string
		want bool
	}{
		{role: "superhero", want: true},
		{role: "SuperHero", want: true},
		{role: "reporter", want: true},
		{role: "villain", want: false},
		{role: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, usr.HasRole(tt.role))
		})
	}

	assert.True(t, usr.HasAnyRole("villain", "REPORTER"))
	assert.False(t, usr.HasAnyRole())
	assert.False(t, usr.IsAdmin())

	t.Run("roles set directly", func(t *testing.T) {
		unsorted := User{Username: "jjjameson", Roles: []string{"reporter", "admin"}}
		assert.True(t, unsorted.HasRole("admin"))
		assert.True(t, unsorted.IsAdmin())

		mixedCase := User{Username: "jjjameson", Roles: []string{"Admin", " Editor "}}
		assert.True(t, mixedCase.HasRole("admin"))
		assert.True(t, mixedCase.HasRole("EDITOR"))
		assert.False(t, mixedCase.HasRole("reporter"))
	})
}

func TestAnonymous(t *testing.T) {
	anon := Anonymous()
	assert.Equal(t, AnonymousUsername, anon.Username)
	assert.False(t, anon.IsAuthenticated())
	assert.False(t, anon.HasRole("*"))
	assert.False(t, User{}.IsAuthenticated())
}

func TestUser_SetServiceToken(t *testing.T) {
	var nilMap map[string]string
	var nilPtr *struct{}

	tests := []struct {
		name    string
		service string
		token   interface{}
		wantErr bool
	}{
		{name: "blank service", service: " ", token: "x", wantErr: true},
		{name: "nil token", service: "github", token: nil, wantErr: true},
		{name: "typed nil map", service: "github", token: nilMap, wantErr: true},
		{name: "typed nil pointer", service: "github", token: nilPtr, wantErr: true},
		{name: "function", service: "github", token: func() {}, wantErr: true},
		{name: "string", service: "github", token: "gh-token"},
		{name: "structured", service: "aws", token: map[string]interface{}{"key": "k", "secret": "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var usr User
			err := usr.SetServiceToken(tt.service, tt.token)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err), "SetServiceToken() error = %v; want ValidationError", err)
				_, ok := usr.ServiceToken(tt.service)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			got, ok := usr.ServiceToken(tt.service)
			assert.True(t, ok)
			assert.Equal(t, tt.token, got)
		})
	}
}

func TestUser_ServiceTokensIsACopy(t *testing.T) {
	var usr User
	require.NoError(t, usr.SetServiceToken("a", "x"))

	tokens := usr.ServiceTokens()
	tokens["a"] = "tampered"
	tokens["b"] = "y"

	got, _ := usr.ServiceToken("a")
	assert.Equal(t, "x", got)
	assert.Len(t, usr.ServiceTokens(), 1)
}

func TestFromProfile(t *testing.T) {
	p := Profile{
		Username:  "pparker",
		Roles:     []string{"superhero", "reporter"},
		FirstName: "Peter",
		LastName:  "Parker",
		Extra:     map[string]string{"alias": "Spider-Man"},
	}
	usr, err := FromProfile(p)
	require.NoError(t, err)
	assert.Equal(t, "Peter Parker", usr.FullName())
	assert.Equal(t, []string{"reporter", "superhero"}, usr.Roles)

	// the profile does not share its extras with the user
	usr.Extra["alias"] = "Venom"
	assert.Equal(t, "Spider-Man", p.Extra["alias"])
}

func TestProfile_Password(t *testing.T) {
	var p Profile
	require.NoError(t, p.SetPassword("Sup3r$ecret"))
	assert.NotEqual(t, "Sup3r$ecret", p.PasswordHash)
	assert.NoError(t, p.CheckPassword("Sup3r$ecret"))
	assert.Error(t, p.CheckPassword("sup3r$ecret"))
}
