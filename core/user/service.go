package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("user not found")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)

type (
	// Repository is the profile data-access collaborator.
	Repository interface {
		// LookupProfile returns (nil, nil) when no profile exists for username.
		LookupProfile(ctx context.Context, username string) (*Profile, error)
		SaveProfile(ctx context.Context, username string, p Profile) error
		QueryProfiles(ctx context.Context) ([]Profile, error)
	}

	Service struct {
		repo     Repository
		verifier Verifier
		validate *validator.Validate
	}

	// LoginResult holds exactly one of: a User, a non-authentication Err, or a Message for the login form.
	LoginResult struct {
		User    *User
		Err     error
		Message string
	}
)

func NewService(repo Repository, verifier Verifier, validate *validator.Validate) *Service {
	return &Service{repo: repo, verifier: verifier, validate: validate}
}

// Authenticate checks the credentials and returns the username they belong to.
// Any credential mismatch is reported as ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	username = core.CleanString(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if err := svc.verifier.Verify(ctx, username, password); err != nil {
		if errors.Cause(err) == ErrInvalidCredentials {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, "verifying credentials")
	}
	return username, nil
}

// InitUser looks up the profile of username and builds the matching User.
func (svc *Service) InitUser(ctx context.Context, username string) (User, error) {
	p, err := svc.repo.LookupProfile(ctx, core.CleanString(username))
	if err != nil {
		return User{}, errors.Wrap(err, "looking up profile")
	}
	if p == nil {
		return User{}, ErrNotFound
	}
	return FromProfile(*p)
}

// Login composes Authenticate and InitUser and stamps the session timestamp on success.
func (svc *Service) Login(ctx context.Context, username, password string) LoginResult {
	uname, err := svc.Authenticate(ctx, username, password)
	if err != nil {
		if err == ErrInvalidCredentials {
			return LoginResult{Message: ErrInvalidCredentials.Error()}
		}
		return LoginResult{Err: err}
	}

	usr, err := svc.InitUser(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return LoginResult{Message: ErrInvalidCredentials.Error()}
		}
		return LoginResult{Err: errors.Wrap(err, "initializing user")}
	}
	usr.SessionTimestamp = NowFunc().UnixNano() / int64(time.Millisecond)
	return LoginResult{User: &usr}
}

func (svc *Service) GetProfile(ctx context.Context, username string) (Profile, error) {
	p, err := svc.repo.LookupProfile(ctx, username)
	if err != nil {
		return Profile{}, errors.Wrap(err, "looking up profile")
	}
	if p == nil {
		return Profile{}, ErrNotFound
	}
	return *p, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Profile, error) {
	return svc.repo.QueryProfiles(ctx)
}

func (svc *Service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	np.clean()
	if err := svc.validate.Struct(np); err != nil {
		return Profile{}, err
	}
	existing, err := svc.repo.LookupProfile(ctx, np.Username)
	if err != nil {
		return Profile{}, errors.Wrap(err, "looking up profile")
	}
	if existing != nil {
		return Profile{}, core.NewValidationError(
			ErrUsernameExists,
			core.FieldError{Field: "username", Error: ErrUsernameExists.Error()},
		)
	}

	roles, err := cleanRoles(np.Roles)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		Username:  np.Username,
		Roles:     roles,
		FirstName: np.FirstName,
		LastName:  np.LastName,
		Email:     np.Email,
		Extra:     np.Extra,
	}
	if err = p.SetPassword(np.Password); err != nil {
		return Profile{}, errors.Wrap(err, "hashing password")
	}
	if err = svc.repo.SaveProfile(ctx, p.Username, p); err != nil {
		return Profile{}, errors.Wrap(err, "saving profile")
	}
	return p, nil
}

// Update applies up on the profile of username and returns the refreshed User.
func (svc *Service) Update(ctx context.Context, username string, up UpdateProfile) (User, error) {
	up.clean()
	if err := svc.validate.Struct(up); err != nil {
		return User{}, err
	}
	p, err := svc.GetProfile(ctx, username)
	if err != nil {
		return User{}, err
	}

	if up.FirstName != "" {
		p.FirstName = up.FirstName
	}
	if up.LastName != "" {
		p.LastName = up.LastName
	}
	if up.Email != "" {
		p.Email = up.Email
	}
	if len(up.Extra) > 0 {
		if p.Extra == nil {
			p.Extra = make(map[string]string, len(up.Extra))
		}
		for k, v := range up.Extra {
			p.Extra[k] = v
		}
	}

	if err = svc.repo.SaveProfile(ctx, username, p); err != nil {
		return User{}, errors.Wrap(err, "saving profile")
	}
	return FromProfile(p)
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	rp.Username = core.CleanString(rp.Username)
	if err := svc.validate.Struct(rp); err != nil {
		return err
	}
	p, err := svc.GetProfile(ctx, rp.Username)
	if err != nil {
		return err
	}
	if err = p.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return errors.Wrap(svc.repo.SaveProfile(ctx, p.Username, p), "saving profile")
}
