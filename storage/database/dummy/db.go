package dummydb

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
	"github.com/trezcool/scaffold/storage/database"
)

type (
	// DB is a single-process, in-memory profile table seeded from YAML.
	DB struct {
		profile  *profileTable
		seedFile string
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*user.Profile
	}
)

// Open loads database.seedFile (the embedded seed when unset). A seed file that does not exist
// yet gives an empty DB; Flush creates it.
func Open(conf *core.Config) (*DB, error) {
	db := &DB{
		profile:  &profileTable{table: make(map[string]*user.Profile)},
		seedFile: conf.Database.SeedFile,
	}
	if !database.SeedExists(db.seedFile) {
		return db, nil
	}

	profiles, err := database.LoadSeed(db.seedFile)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		p := profiles[i]
		if p.Username == "" {
			return nil, errors.Errorf("seed profile %d has no username", i)
		}
		db.profile.table[p.Username] = &p
	}
	return db, nil
}

// Flush writes the current profiles back to the seed file.
func (db *DB) Flush() error {
	db.profile.RLock()
	profiles := db.profile.all()
	db.profile.RUnlock()
	return database.SaveSeed(db.seedFile, profiles)
}

func (t *profileTable) all() []user.Profile {
	profiles := make([]user.Profile, 0, len(t.table))
	for _, p := range t.table {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Username < profiles[j].Username })
	return profiles
}
