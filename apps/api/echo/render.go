package echoapi

import (
	"html/template"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core/nav"
	"github.com/trezcool/scaffold/core/user"
	appfs "github.com/trezcool/scaffold/fs"
)

const layoutTemplate = "templates/layout.gohtml"

var pageTemplates = []string{"login", "dashboard", "account", "users", "user", "error"}

type (
	// templateRenderer renders every page inside the shared layout.
	templateRenderer struct {
		pages map[string]*template.Template
	}

	pageView struct {
		AppName string
		Title   string
		User    user.User
		Menu    *nav.Entry
		Crumbs  []nav.Crumb
		Data    interface{}
	}

	errorView struct {
		Code    int
		Message string
	}
)

func newTemplateRenderer() (*templateRenderer, error) {
	funcs := template.FuncMap{"join": strings.Join}

	r := &templateRenderer{pages: make(map[string]*template.Template, len(pageTemplates))}
	for _, name := range pageTemplates {
		tmpl, err := template.New(path.Base(layoutTemplate)).Funcs(funcs).
			ParseFS(appfs.FS, layoutTemplate, "templates/"+name+".gohtml")
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, path.Base(layoutTemplate), data)
}

// render wraps data with the layout essentials: the menu visible to the current user and the breadcrumbs.
func (s *Server) render(ctx echo.Context, code int, name, title string, crumbs *nav.BreadCrumbs, data interface{}) error {
	usr := getContextUser(ctx)
	view := pageView{
		AppName: s.conf.AppName,
		Title:   title,
		User:    usr,
		Data:    data,
	}
	if s.menu != nil {
		view.Menu = s.menu.Root().Render(usr, s.resolveRoute, ctx.Request().URL.Path)
	}
	if crumbs != nil {
		view.Crumbs = crumbs.Render(s.resolveRoute)
	}
	return ctx.Render(code, name, view)
}

// routeIndex maps route names to their path patterns.
func routeIndex(routes []*echo.Route) map[string]string {
	idx := make(map[string]string, len(routes))
	for _, r := range routes {
		if r.Name == "" || strings.ContainsAny(r.Name, "/()") {
			continue // echo defaults unnamed routes to the handler name
		}
		if _, ok := idx[r.Name]; !ok {
			idx[r.Name] = r.Path
		}
	}
	return idx
}

// resolveRoute is the nav.RouteResolver of the pages: `:param` segments are replaced by params.
func (s *Server) resolveRoute(name string, params map[string]string) string {
	pattern, ok := s.routes[name]
	if !ok {
		return "#"
	}
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = url.PathEscape(params[seg[1:]])
		}
	}
	return strings.Join(segments, "/")
}
