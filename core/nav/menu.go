// Package nav holds the role-gated navigation tree and the breadcrumb chain rendered by pages.
package nav

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
)

const (
	// RolePublic lets anyone, authenticated or not, see an item.
	RolePublic = "*"

	defaultLink    = "#"
	defaultFontSet = "angular-material"
)

var (
	errBlankTitle   = errors.New("menu item title is required")
	errBadRole      = errors.New("menu item roles must be non-blank strings")
	errCycle        = errors.New("menu item cannot be its own descendant")
	errInvalidInput = "menu item options must be Options, *MenuItem or a map, got %T"
)

// RouteResolver returns the href of a named route.
type RouteResolver func(name string, params map[string]string) string

// Options is the declarative shape of a MenuItem, as found in config literals.
// ChildItems entries may be Options, *Options, *MenuItem or maps.
type Options struct {
	Title       string            `mapstructure:"title"`
	Position    int               `mapstructure:"position"`
	RouteState  string            `mapstructure:"routeState"`
	RouteParams map[string]string `mapstructure:"routeParams"`
	Link        string            `mapstructure:"link"`
	FontSet     string            `mapstructure:"fontSet"`
	IconName    string            `mapstructure:"iconName"`
	Roles       []string          `mapstructure:"roles"`
	ChildItems  []interface{}     `mapstructure:"childItems"`
}

type MenuItem struct {
	Title       string            `json:"title"`
	Position    int               `json:"position"`
	RouteState  string            `json:"routeState,omitempty"`
	RouteParams map[string]string `json:"routeParams,omitempty"`
	Link        string            `json:"link"`
	FontSet     string            `json:"fontSet"`
	IconName    string            `json:"iconName,omitempty"`
	Roles       []string          `json:"roles"`
	ChildItems  []*MenuItem       `json:"childItems"`
}

// NewMenuItem builds a MenuItem, recursively, out of v.
// A *MenuItem with a title is returned as-is; anything but Options, *Options or a map is a core.ValidationError.
func NewMenuItem(v interface{}) (*MenuItem, error) {
	switch opts := v.(type) {
	case *MenuItem:
		if opts == nil {
			return nil, core.NewValidationError(errors.Errorf(errInvalidInput, v))
		}
		if core.CleanString(opts.Title) == "" {
			return nil, core.NewValidationError(errBlankTitle, core.FieldError{Field: "title", Error: errBlankTitle.Error()})
		}
		return opts, nil
	case Options:
		return newFromOptions(opts)
	case *Options:
		if opts == nil {
			return nil, core.NewValidationError(errors.Errorf(errInvalidInput, v))
		}
		return newFromOptions(*opts)
	case map[string]interface{}:
		return newFromMap(opts)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(opts))
		for k, val := range opts {
			m[fmt.Sprint(k)] = val
		}
		return newFromMap(m)
	default:
		return nil, core.NewValidationError(errors.Errorf(errInvalidInput, v))
	}
}

func newFromMap(m map[string]interface{}) (*MenuItem, error) {
	var opts Options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &opts, TagName: "mapstructure"})
	if err != nil {
		return nil, errors.Wrap(err, "creating options decoder")
	}
	if err = dec.Decode(m); err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "decoding menu item options"))
	}
	return newFromOptions(opts)
}

func newFromOptions(opts Options) (*MenuItem, error) {
	title := core.CleanString(opts.Title)
	if title == "" {
		return nil, core.NewValidationError(errBlankTitle, core.FieldError{Field: "title", Error: errBlankTitle.Error()})
	}

	item := &MenuItem{
		Title:       title,
		Position:    opts.Position,
		RouteState:  core.CleanString(opts.RouteState),
		RouteParams: make(map[string]string, len(opts.RouteParams)),
		Link:        core.CleanString(opts.Link),
		FontSet:     core.CleanString(opts.FontSet),
		IconName:    core.CleanString(opts.IconName),
		ChildItems:  make([]*MenuItem, 0, len(opts.ChildItems)),
	}
	for k, v := range opts.RouteParams {
		item.RouteParams[k] = v
	}
	if item.Link == "" {
		item.Link = defaultLink
	}
	if item.FontSet == "" {
		item.FontSet = defaultFontSet
	}

	if len(opts.Roles) == 0 {
		item.Roles = []string{RolePublic}
	} else {
		item.Roles = make([]string, 0, len(opts.Roles))
		for _, role := range opts.Roles {
			role = core.CleanString(role, true /* lower */)
			if role == "" {
				return nil, core.NewValidationError(errBadRole, core.FieldError{Field: "roles", Error: errBadRole.Error()})
			}
			item.Roles = append(item.Roles, role)
		}
	}

	for i, child := range opts.ChildItems {
		if _, err := item.AddChildItem(child); err != nil {
			return nil, errors.Wrapf(err, "%s: child item %d", title, i)
		}
	}
	return item, nil
}

// AddChildItem appends v (validated like NewMenuItem) and returns the appended child.
func (m *MenuItem) AddChildItem(v interface{}) (*MenuItem, error) {
	child, err := NewMenuItem(v)
	if err != nil {
		return nil, err
	}
	if child == m || child.contains(m) {
		return nil, core.NewValidationError(errCycle)
	}
	m.ChildItems = append(m.ChildItems, child)
	return child, nil
}

func (m *MenuItem) contains(target *MenuItem) bool {
	for _, child := range m.ChildItems {
		if child == target || child.contains(target) {
			return true
		}
	}
	return false
}

func (m *MenuItem) ClearChildItems() {
	if len(m.ChildItems) > 0 {
		m.ChildItems = make([]*MenuItem, 0)
	}
}

func (m *MenuItem) IsPublic() bool {
	for _, role := range m.Roles {
		if role == RolePublic {
			return true
		}
	}
	return false
}

// CanRender reports whether usr may see this item: public items render for everyone,
// others only for authenticated users holding one of the item roles.
func (m *MenuItem) CanRender(usr user.User) bool {
	if m.IsPublic() {
		return true
	}
	if !usr.IsAuthenticated() {
		return false
	}
	return usr.HasAnyRole(m.Roles...)
}

// GetLink resolves RouteState through resolve when set, the literal Link otherwise.
func (m *MenuItem) GetLink(resolve RouteResolver) string {
	if m.RouteState != "" && resolve != nil {
		return resolve(m.RouteState, m.RouteParams)
	}
	return m.Link
}

// SortedChildItems returns the children ordered by Position (stable); the tree itself is untouched.
func (m *MenuItem) SortedChildItems() []*MenuItem {
	sorted := make([]*MenuItem, len(m.ChildItems))
	copy(sorted, m.ChildItems)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	return sorted
}

// Visible returns a pruned copy of the tree holding only what usr can render, or nil.
func (m *MenuItem) Visible(usr user.User) *MenuItem {
	if !m.CanRender(usr) {
		return nil
	}
	cp := *m
	cp.ChildItems = make([]*MenuItem, 0, len(m.ChildItems))
	for _, child := range m.ChildItems {
		if vc := child.Visible(usr); vc != nil {
			cp.ChildItems = append(cp.ChildItems, vc)
		}
	}
	return &cp
}

// Find walks the tree depth-first and returns the first item whose RouteState is state.
func (m *MenuItem) Find(state string) *MenuItem {
	if state == "" {
		return nil
	}
	if m.RouteState == state {
		return m
	}
	for _, child := range m.ChildItems {
		if found := child.Find(state); found != nil {
			return found
		}
	}
	return nil
}

// Entry is a MenuItem ready to be rendered: link resolved, children sorted and filtered.
type Entry struct {
	Title    string   `json:"title"`
	Href     string   `json:"href"`
	IconName string   `json:"iconName,omitempty"`
	FontSet  string   `json:"fontSet"`
	Position int      `json:"position"`
	Active   bool     `json:"active,omitempty"`
	Children []*Entry `json:"children"`
}

// Render builds the Entry tree visible to usr. current is the path of the page being rendered;
// an entry is active when it links to current or one of its children is active.
func (m *MenuItem) Render(usr user.User, resolve RouteResolver, current string) *Entry {
	visible := m.Visible(usr)
	if visible == nil {
		return nil
	}
	return visible.entry(resolve, current)
}

func (m *MenuItem) entry(resolve RouteResolver, current string) *Entry {
	href := m.GetLink(resolve)
	e := &Entry{
		Title:    m.Title,
		Href:     href,
		IconName: m.IconName,
		FontSet:  m.FontSet,
		Position: m.Position,
		Active:   current != "" && href == current,
		Children: make([]*Entry, 0, len(m.ChildItems)),
	}
	for _, child := range m.SortedChildItems() {
		ce := child.entry(resolve, current)
		e.Active = e.Active || ce.Active
		e.Children = append(e.Children, ce)
	}
	return e
}
