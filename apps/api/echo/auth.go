package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
)

type (
	loginForm struct {
		Username    string `json:"username" form:"username" validate:"required"`
		Password    string `json:"password" form:"password" validate:"required"`
		RedirectURL string `json:"redirectUrl" form:"redirectUrl"`
	}

	loginView struct {
		Username     string
		ErrorMessage string
		Redirect     string
	}
)

func registerAuthRoutes(s *Server) {
	s.app.GET("/login", s.loginPage).Name = "login"
	s.app.POST("/login", s.login)
	s.app.GET("/logout", s.logout).Name = "logout"
	s.app.POST("/logout", s.logout)

	s.app.POST("/api/login", s.apiLogin)
	s.app.POST("/api/logout", s.apiLogout)
}

func (s *Server) loginPage(ctx echo.Context) error {
	redirect := safeRedirect(ctx.QueryParam("redirect"))
	if getContextUser(ctx).IsAuthenticated() {
		return ctx.Redirect(http.StatusSeeOther, redirect)
	}
	return s.renderLogin(ctx, loginView{Redirect: redirect})
}

func (s *Server) renderLogin(ctx echo.Context, view loginView) error {
	return s.render(ctx, http.StatusOK, "login", "Sign in", nil, view)
}

func (s *Server) login(ctx echo.Context) error {
	var form loginForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}
	form.Username = core.CleanString(form.Username)
	view := loginView{Username: form.Username, Redirect: safeRedirect(form.RedirectURL)}

	if err := s.validate.Struct(form); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			view.ErrorMessage = firstError(core.TranslateErrors(vErrs, s.translator))
			return s.renderLogin(ctx, view)
		}
		return errors.Wrap(err, "validating loginForm")
	}

	res := s.usrSvc.Login(ctx.Request().Context(), form.Username, form.Password)
	switch {
	case res.Err != nil:
		return errors.Wrap(res.Err, "logging in")
	case res.User == nil:
		view.ErrorMessage = res.Message
		return s.renderLogin(ctx, view)
	}

	if err := s.startSession(ctx, res.User); err != nil {
		return err
	}
	s.logger.Info("user logged in: " + res.User.Username)
	return ctx.Redirect(http.StatusSeeOther, view.Redirect)
}

func (s *Server) startSession(ctx echo.Context, usr *user.User) error {
	tok := s.codec.Serialize(usr)
	if tok.IsEmpty() {
		return errors.New("empty session token")
	}
	return errors.Wrap(s.sealer.Write(ctx.Response(), ctx.Request(), tok), "writing session cookie")
}

func (s *Server) logout(ctx echo.Context) error {
	if err := s.sealer.Clear(ctx.Response(), ctx.Request()); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) apiLogin(ctx echo.Context) error {
	var form loginForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to loginForm")
	}
	form.Username = core.CleanString(form.Username)
	if err := s.validate.Struct(form); err != nil {
		return err
	}

	res := s.usrSvc.Login(ctx.Request().Context(), form.Username, form.Password)
	switch {
	case res.Err != nil:
		return errors.Wrap(res.Err, "logging in")
	case res.User == nil:
		return echo.NewHTTPError(http.StatusUnauthorized, res.Message)
	}

	if err := s.startSession(ctx, res.User); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res.User)
}

func (s *Server) apiLogout(ctx echo.Context) error {
	if err := s.sealer.Clear(ctx.Response(), ctx.Request()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// firstError returns one message out of fldErrs, preferring the username.
func firstError(fldErrs map[string]string) string {
	for _, fld := range []string{"username", "password"} {
		if msg, ok := fldErrs[fld]; ok {
			return fld + ": " + msg
		}
	}
	for fld, msg := range fldErrs {
		return fld + ": " + msg
	}
	return ""
}
