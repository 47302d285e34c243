package database

import (
	"context"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/trezcool/scaffold/core/user"
	appfs "github.com/trezcool/scaffold/fs"
)

// DefaultSeed is the embedded profiles file used when database.seedFile is not set.
const DefaultSeed = "seed/profiles.yaml"

var maxPingAttempts = 30

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Ping waits for the backend to be ready. Waits 100ms longer between each attempt.
func Ping(ctx context.Context, p Pinger) error {
	var err error
	for attempts := 1; attempts <= maxPingAttempts; attempts++ {
		if err = p.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "database ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "database ping timeout")
}

// LoadSeed reads a YAML list of profiles from path, or from the embedded seed when path is empty.
func LoadSeed(path string) ([]user.Profile, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = appfs.FS.ReadFile(DefaultSeed)
	} else {
		data, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading seed file")
	}

	var profiles []user.Profile
	if err = yaml.Unmarshal(data, &profiles); err != nil {
		return nil, errors.Wrap(err, "parsing seed file")
	}
	return profiles, nil
}

// SaveSeed writes profiles back to path as YAML.
func SaveSeed(path string, profiles []user.Profile) error {
	if path == "" {
		return errors.New("database.seedFile is not set")
	}
	data, err := yaml.Marshal(profiles)
	if err != nil {
		return errors.Wrap(err, "encoding seed file")
	}
	return errors.Wrap(ioutil.WriteFile(path, data, 0o600), "writing seed file")
}

// SeedIfEmpty saves profiles into repo when it holds none yet.
func SeedIfEmpty(ctx context.Context, repo user.Repository, profiles []user.Profile) (int, error) {
	existing, err := repo.QueryProfiles(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying profiles")
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, p := range profiles {
		if err = repo.SaveProfile(ctx, p.Username, p); err != nil {
			return 0, errors.Wrapf(err, "saving profile %s", p.Username)
		}
	}
	return len(profiles), nil
}

// SeedExists reports whether the seed file at path can be read.
func SeedExists(path string) bool {
	if path == "" {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}
