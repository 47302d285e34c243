package nav

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/trezcool/scaffold/core"
)

// ConfigKey holds the navigation literal in the settings tree.
const ConfigKey = "navigation"

var errNoNavigation = errors.New("navigation is not configured")

// LoadMenu builds the whole tree out of the `navigation` settings key.
func LoadMenu(v *viper.Viper) (*MenuItem, error) {
	raw := v.Get(ConfigKey)
	if raw == nil {
		return nil, core.NewValidationError(errNoNavigation)
	}
	root, err := NewMenuItem(raw)
	if err != nil {
		return nil, errors.Wrap(err, "loading navigation")
	}
	return root, nil
}

// Menu serves the current navigation tree. A config change builds a new tree and swaps it in;
// a served tree is never mutated.
type Menu struct {
	mu     sync.RWMutex
	root   *MenuItem
	v      *viper.Viper
	logger core.Logger
}

func NewMenu(conf *core.Config, logger core.Logger) (*Menu, error) {
	root, err := LoadMenu(conf.Viper())
	if err != nil {
		return nil, err
	}
	return &Menu{root: root, v: conf.Viper(), logger: logger}, nil
}

func (m *Menu) Root() *MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// Reload rebuilds the tree; the served tree is kept when the new settings are invalid.
func (m *Menu) Reload() error {
	root, err := LoadMenu(m.v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.root = root
	m.mu.Unlock()
	return nil
}

// Watch reloads the tree every time the config file changes.
func (m *Menu) Watch() {
	m.v.OnConfigChange(func(e fsnotify.Event) {
		if err := m.Reload(); err != nil {
			m.logger.Error("reloading navigation: "+e.Name, err)
			return
		}
		m.logger.Info("navigation reloaded: " + e.Name)
	})
	m.v.WatchConfig()
}
