package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scaffold/core"
)

func titles(bc *BreadCrumbs) []string {
	out := make([]string, 0, bc.Len())
	for _, c := range bc.Crumbs() {
		out = append(out, c.Title)
	}
	return out
}

func TestBreadCrumbs_SetCrumbs(t *testing.T) {
	users, _ := NewMenuItem(Options{Title: "Users", RouteState: "admin.users"})
	list := []interface{}{
		"Home",
		map[string]interface{}{"title": "Admin", "link": "/admin"},
		users,
		Options{Title: "pparker"},
	}

	var bc BreadCrumbs
	require.NoError(t, bc.SetCrumbs(list...))
	assert.Equal(t, []string{"Home", "Admin", "Users", "pparker"}, titles(&bc))
	assert.Same(t, users, bc.Crumbs()[2])
	assert.Equal(t, "#", bc.Crumbs()[0].Link)

	// setting the same list again replaces the chain
	require.NoError(t, bc.SetCrumbs(list...))
	assert.Equal(t, len(list), bc.Len())

	require.NoError(t, bc.SetCrumbs())
	assert.Equal(t, 0, bc.Len())
}

func TestBreadCrumbs_SetCrumbsInvalid(t *testing.T) {
	tests := []struct {
		name string
		list []interface{}
	}{
		{name: "number", list: []interface{}{"Home", 42}},
		{name: "nil", list: []interface{}{nil}},
		{name: "blank string", list: []interface{}{"Home", "  "}},
		{name: "map without title", list: []interface{}{map[string]interface{}{"link": "/"}}},
		{name: "slice", list: []interface{}{[]string{"Home"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc, err := NewBreadCrumbs("Dashboard")
			require.NoError(t, err)

			err = bc.SetCrumbs(tt.list...)
			assert.True(t, core.IsValidationError(err), "SetCrumbs() error = %v; want ValidationError", err)
			assert.Equal(t, []string{"Dashboard"}, titles(bc), "chain is untouched on error")
		})
	}
}

func TestBreadCrumbs_PushPop(t *testing.T) {
	var bc BreadCrumbs

	crumb, ok := bc.Pop()
	assert.False(t, ok)
	assert.Nil(t, crumb)

	require.NoError(t, bc.Push("Home"))
	require.NoError(t, bc.Push(map[string]interface{}{"title": "Account", "routeState": "account"}))
	assert.True(t, core.IsValidationError(bc.Push(3.14)))
	assert.Equal(t, []string{"Home", "Account"}, titles(&bc))

	crumb, ok = bc.Pop()
	require.True(t, ok)
	assert.Equal(t, "Account", crumb.Title)
	assert.Equal(t, 1, bc.Len())

	crumb, ok = bc.Pop()
	require.True(t, ok)
	assert.Equal(t, "Home", crumb.Title)

	_, ok = bc.Pop()
	assert.False(t, ok)
}

func TestBreadCrumbs_Render(t *testing.T) {
	bc, err := NewBreadCrumbs("Home", Options{Title: "Account", RouteState: "account"})
	require.NoError(t, err)

	got := bc.Render(func(name string, _ map[string]string) string { return "/" + name })
	assert.Equal(t, []Crumb{
		{Title: "Home", Href: "#"},
		{Title: "Account", Href: "/account", Last: true},
	}, got)
}
