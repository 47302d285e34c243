package nav

import "github.com/pkg/errors"

// BreadCrumbs is the navigation path of the current view. The zero value is ready to use.
type BreadCrumbs struct {
	crumbs []*MenuItem
}

func NewBreadCrumbs(list ...interface{}) (*BreadCrumbs, error) {
	bc := new(BreadCrumbs)
	if err := bc.SetCrumbs(list...); err != nil {
		return nil, err
	}
	return bc, nil
}

// toCrumb turns a bare string into {Title: s} and everything else through NewMenuItem.
func toCrumb(v interface{}) (*MenuItem, error) {
	if title, ok := v.(string); ok {
		return NewMenuItem(Options{Title: title})
	}
	return NewMenuItem(v)
}

// SetCrumbs replaces the whole chain. On error the chain is left untouched.
func (bc *BreadCrumbs) SetCrumbs(list ...interface{}) error {
	crumbs := make([]*MenuItem, 0, len(list))
	for i, v := range list {
		crumb, err := toCrumb(v)
		if err != nil {
			return errors.Wrapf(err, "crumb %d", i)
		}
		crumbs = append(crumbs, crumb)
	}
	bc.crumbs = crumbs
	return nil
}

func (bc *BreadCrumbs) Push(v interface{}) error {
	crumb, err := toCrumb(v)
	if err != nil {
		return err
	}
	bc.crumbs = append(bc.crumbs, crumb)
	return nil
}

// Pop removes the last crumb; ok is false on an empty chain.
func (bc *BreadCrumbs) Pop() (crumb *MenuItem, ok bool) {
	if len(bc.crumbs) == 0 {
		return nil, false
	}
	last := len(bc.crumbs) - 1
	crumb = bc.crumbs[last]
	bc.crumbs[last] = nil
	bc.crumbs = bc.crumbs[:last]
	return crumb, true
}

// Crumbs returns the live chain; copy it before mutating.
func (bc *BreadCrumbs) Crumbs() []*MenuItem {
	return bc.crumbs
}

func (bc *BreadCrumbs) Len() int {
	return len(bc.crumbs)
}

// Crumb is a breadcrumb ready to be rendered.
type Crumb struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Last  bool   `json:"last,omitempty"`
}

func (bc *BreadCrumbs) Render(resolve RouteResolver) []Crumb {
	out := make([]Crumb, 0, len(bc.crumbs))
	for i, c := range bc.crumbs {
		out = append(out, Crumb{Title: c.Title, Href: c.GetLink(resolve), Last: i == len(bc.crumbs)-1})
	}
	return out
}
