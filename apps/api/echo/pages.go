package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/nav"
	"github.com/trezcool/scaffold/core/user"
)

var homeCrumb = nav.Options{Title: "Home", RouteState: "dashboard"}

type (
	dashboardView struct {
		SessionRemainingMs int64
	}

	accountView struct {
		Form   user.UpdateProfile
		Errors map[string]string
		Saved  bool
	}

	usersView struct {
		Users []user.User
	}
)

func registerPages(s *Server) {
	s.app.GET("/", s.dashboard, requireLogin).Name = "dashboard"
	s.app.GET("/account", s.account, requireLogin).Name = "account"
	s.app.POST("/account", s.updateAccount, requireLogin)

	admin := s.app.Group("/admin", requireLogin, requireRoles(user.RoleAdmin))
	admin.GET("/users", s.adminUsers).Name = "admin.users"
	admin.GET("/users/:username", s.adminUser).Name = "admin.user"
}

func crumbs(list ...interface{}) (*nav.BreadCrumbs, error) {
	bc, err := nav.NewBreadCrumbs(list...)
	return bc, errors.Wrap(err, "building breadcrumbs")
}

func (s *Server) dashboard(ctx echo.Context) error {
	bc, err := crumbs("Dashboard")
	if err != nil {
		return err
	}
	usr := getContextUser(ctx)
	view := dashboardView{SessionRemainingMs: s.codec.Remaining(usr.SessionTimestamp).Milliseconds()}
	return s.render(ctx, http.StatusOK, "dashboard", "Dashboard", bc, view)
}

func (s *Server) account(ctx echo.Context) error {
	usr := getContextUser(ctx)
	view := accountView{
		Form:  user.UpdateProfile{FirstName: usr.FirstName, LastName: usr.LastName, Email: usr.Email},
		Saved: ctx.QueryParam("saved") != "",
	}
	return s.renderAccount(ctx, http.StatusOK, view)
}

func (s *Server) renderAccount(ctx echo.Context, code int, view accountView) error {
	bc, err := crumbs(homeCrumb, "Account")
	if err != nil {
		return err
	}
	return s.render(ctx, code, "account", "Account", bc, view)
}

func (s *Server) updateAccount(ctx echo.Context) error {
	var form user.UpdateProfile
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	usr := getContextUser(ctx)
	if _, err := s.usrSvc.Update(ctx.Request().Context(), usr.Username, form); err != nil {
		view := accountView{Form: form}
		switch vErr := errors.Cause(err).(type) {
		case validator.ValidationErrors:
			view.Errors = core.TranslateErrors(vErr, s.translator)
		case *core.ValidationError:
			view.Errors = map[string]string{"form": vErr.Error()}
		default:
			return errors.Wrap(err, "updating profile")
		}
		return s.renderAccount(ctx, http.StatusBadRequest, view)
	}
	return ctx.Redirect(http.StatusSeeOther, "/account?saved=1")
}

func (s *Server) adminUsers(ctx echo.Context) error {
	users, err := s.queryUsers(ctx)
	if err != nil {
		return err
	}
	bc, err := crumbs(homeCrumb, "Administration", "Users")
	if err != nil {
		return err
	}
	return s.render(ctx, http.StatusOK, "users", "Users", bc, usersView{Users: users})
}

func (s *Server) adminUser(ctx echo.Context) error {
	p, err := s.usrSvc.GetProfile(ctx.Request().Context(), ctx.Param("username"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	usr, err := user.FromProfile(p)
	if err != nil {
		return errors.Wrap(err, "building user")
	}

	bc, err := crumbs(homeCrumb, "Administration", nav.Options{Title: "Users", RouteState: "admin.users"})
	if err != nil {
		return err
	}
	if err = bc.Push(usr.Username); err != nil {
		return errors.Wrap(err, "building breadcrumbs")
	}
	return s.render(ctx, http.StatusOK, "user", usr.Username, bc, usr)
}

// queryUsers lists every profile as a User, leaving the password hashes behind.
func (s *Server) queryUsers(ctx echo.Context) ([]user.User, error) {
	profiles, err := s.usrSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	users := make([]user.User, 0, len(profiles))
	for _, p := range profiles {
		usr, err := user.FromProfile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "building user %s", p.Username)
		}
		users = append(users, usr)
	}
	return users, nil
}
