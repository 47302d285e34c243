package redisdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/scaffold/core/user"
)

// profileRepository stores each profile as JSON under <prefix>:profile:<username>
// and keeps the set of known usernames under <prefix>:profiles.
type profileRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

var _ user.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(rdb redis.UniversalClient, prefix string) user.Repository {
	if prefix == "" {
		prefix = "scaffold"
	}
	return &profileRepository{rdb: rdb, prefix: prefix}
}

func (repo *profileRepository) key(username string) string {
	return repo.prefix + ":profile:" + username
}

func (repo *profileRepository) indexKey() string {
	return repo.prefix + ":profiles"
}

func (repo *profileRepository) LookupProfile(ctx context.Context, username string) (*user.Profile, error) {
	data, err := repo.rdb.Get(ctx, repo.key(username)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting profile")
	}

	var p user.Profile
	if err = json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "decoding profile %s", username)
	}
	return &p, nil
}

func (repo *profileRepository) SaveProfile(ctx context.Context, username string, p user.Profile) error {
	p.Username = username
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding profile")
	}

	_, err = repo.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, repo.key(username), data, 0)
		pipe.SAdd(ctx, repo.indexKey(), username)
		return nil
	})
	return errors.Wrap(err, "saving profile")
}

func (repo *profileRepository) QueryProfiles(ctx context.Context) ([]user.Profile, error) {
	usernames, err := repo.rdb.SMembers(ctx, repo.indexKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing profiles")
	}
	if len(usernames) == 0 {
		return []user.Profile{}, nil
	}
	sort.Strings(usernames)

	keys := make([]string, len(usernames))
	for i, uname := range usernames {
		keys[i] = repo.key(uname)
	}
	values, err := repo.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting profiles")
	}

	profiles := make([]user.Profile, 0, len(values))
	for i, val := range values {
		s, ok := val.(string)
		if !ok { // removed behind our back
			continue
		}
		var p user.Profile
		if err = json.Unmarshal([]byte(s), &p); err != nil {
			return nil, errors.Wrapf(err, "decoding profile %s", usernames[i])
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
