package echoapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core/session"
	"github.com/trezcool/scaffold/core/user"
)

var (
	contextUserKey       = "user"
	contextSessionErrKey = "sessionError"
)

// sessionMiddleware decodes the session cookie, if any, into the context user.
// An untrusted cookie is cleared and its error kept in the context for requireLogin.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()

		tok, ok, err := s.sealer.Read(req)
		if !ok {
			return next(ctx)
		}
		if err != nil {
			err = session.NewInvalidSessionError(session.ReasonMalformed, err)
		} else {
			var usr user.User
			if usr, err = s.codec.Deserialize(req.Context(), tok); err == nil {
				ctx.Set(contextUserKey, usr)
				return next(ctx)
			}
		}

		s.logger.Debug("rejecting session: " + err.Error())
		ctx.Set(contextSessionErrKey, err)
		if cErr := s.sealer.Clear(ctx.Response(), req); cErr != nil {
			return errors.Wrap(cErr, "clearing session cookie")
		}
		return next(ctx)
	}
}

// anonymousGuard makes sure a user, at worst the anonymous one, is always in the context.
func anonymousGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := ctx.Get(contextUserKey).(user.User); !ok {
			ctx.Set(contextUserKey, user.Anonymous())
		}
		return next(ctx)
	}
}

// requireLogin sends unauthenticated page requests to the login page; API requests get a 401.
func requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if getContextUser(ctx).IsAuthenticated() {
			return next(ctx)
		}
		if isAPIRequest(ctx) {
			if err, ok := ctx.Get(contextSessionErrKey).(error); ok {
				return err
			}
			return errUnauthorized
		}
		return redirectToLogin(ctx)
	}
}

// redirectToLogin sends the request to the login page, which returns to the requested URI afterwards.
func redirectToLogin(ctx echo.Context) error {
	return ctx.Redirect(http.StatusSeeOther, "/login?redirect="+url.QueryEscape(ctx.Request().URL.RequestURI()))
}

// requireRoles lets through users holding any of roles.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if getContextUser(ctx).HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func getContextUser(ctx echo.Context) user.User {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr
	}
	return user.Anonymous()
}

func isAPIRequest(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().URL.Path, "/api/") || ctx.Request().URL.Path == "/healthz"
}

// safeRedirect only allows same-site relative paths.
func safeRedirect(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return u.RequestURI()
}
