package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core/session"
	"github.com/trezcool/scaffold/core/user"
)

type statusResponse struct {
	ServerTime         time.Time `json:"serverTime"`
	Authenticated      bool      `json:"authenticated"`
	SessionRemainingMs int64     `json:"sessionRemainingMs"`
}

func registerAPI(s *Server) {
	g := s.app.Group("/api")

	g.GET("/navigation", s.navigation)
	g.GET("/status", s.status)

	g.GET("/me", s.me, requireLogin)
	g.GET("/profile", s.me, requireLogin)
	g.PUT("/profile", s.updateProfile, requireLogin)
	g.GET("/users", s.userList, requireLogin, requireRoles(user.RoleAdmin))
}

func (s *Server) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, getContextUser(ctx))
}

// navigation returns the menu visible to the current user, links resolved. Anonymous users get the public part.
func (s *Server) navigation(ctx echo.Context) error {
	entry := s.menu.Root().Render(getContextUser(ctx), s.resolveRoute, ctx.QueryParam("current"))
	if entry == nil {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (s *Server) status(ctx echo.Context) error {
	usr := getContextUser(ctx)
	resp := statusResponse{
		ServerTime:    session.NowFunc().UTC(),
		Authenticated: usr.IsAuthenticated(),
	}
	if resp.Authenticated {
		resp.SessionRemainingMs = s.codec.Remaining(usr.SessionTimestamp).Milliseconds()
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (s *Server) updateProfile(ctx echo.Context) error {
	var up user.UpdateProfile
	if err := ctx.Bind(&up); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	usr := getContextUser(ctx)
	updated, err := s.usrSvc.Update(ctx.Request().Context(), usr.Username, up)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	if err = carrySession(&updated, usr); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, updated)
}

// carrySession copies the session state of the signed-in user onto its freshly saved profile.
func carrySession(updated *user.User, current user.User) error {
	updated.SessionTimestamp = current.SessionTimestamp
	for svc, tok := range current.ServiceTokens() {
		if err := updated.SetServiceToken(svc, tok); err != nil {
			return errors.Wrapf(err, "restoring %s service token", svc)
		}
	}
	return nil
}

func (s *Server) userList(ctx echo.Context) error {
	users, err := s.queryUsers(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}
