// Package storage opens the profile store selected by database.engine.
package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
	"github.com/trezcool/scaffold/storage/database"
	"github.com/trezcool/scaffold/storage/database/dummy"
	"github.com/trezcool/scaffold/storage/database/redisdb"
)

type Store struct {
	Repo  user.Repository
	flush func() error
	close func() error
}

// Open returns the store of conf.Database.Engine. An empty Redis store is seeded from the seed profiles.
func Open(conf *core.Config, logger core.Logger) (*Store, error) {
	switch conf.Database.Engine {
	case "redis":
		rdb, err := redisdb.Open(conf)
		if err != nil {
			return nil, err
		}
		st := &Store{
			Repo:  redisdb.NewProfileRepository(rdb, conf.Redis.Prefix),
			flush: func() error { return nil },
			close: rdb.Close,
		}
		if err = st.seed(conf, logger); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return st, nil

	default:
		db, err := dummydb.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening dummy database")
		}
		return &Store{
			Repo:  dummydb.NewProfileRepository(db),
			flush: db.Flush,
			close: func() error { return nil },
		}, nil
	}
}

func (st *Store) seed(conf *core.Config, logger core.Logger) error {
	profiles, err := database.LoadSeed(conf.Database.SeedFile)
	if err != nil {
		return err
	}
	n, err := database.SeedIfEmpty(context.Background(), st.Repo, profiles)
	if err != nil {
		return errors.Wrap(err, "seeding profiles")
	}
	if n > 0 {
		logger.Info(fmt.Sprintf("seeded %d profiles", n))
	}
	return nil
}

// Flush persists the changes of a dummy store back to its seed file. Redis needs no flushing.
func (st *Store) Flush() error {
	return st.flush()
}

func (st *Store) Close() error {
	return st.close()
}
