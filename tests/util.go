// Package testutil holds the fixtures shared by the packages' tests.
package testutil

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{} // interface compliance check

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// NewConfig loads the TEST configuration: embedded navigation, dummy engine, placeholder verifier.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("CONFIG_FILE", "")

	conf, err := core.NewConfig()
	if err != nil {
		t.Fatalf("core.NewConfig() failed: %v", err)
	}
	conf.Debug = false
	return conf
}

// NewValidator returns a validator and translator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(NopLogger{})
	return validate, translator
}

// CreateProfile saves a profile with a bcrypt-hashed pwd (when not empty).
func CreateProfile(t *testing.T, repo user.Repository, uname, pwd string, roles ...string) user.Profile {
	t.Helper()
	p := user.Profile{
		Username:  uname,
		Roles:     roles,
		FirstName: uname,
		Email:     uname + "@test.cd",
	}
	if pwd != "" {
		if err := p.SetPassword(pwd); err != nil {
			t.Fatalf("CreateProfile() failed: %v", err)
		}
	}
	if err := repo.SaveProfile(context.Background(), uname, p); err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}
