package dummydb

import (
	"context"

	"github.com/trezcool/scaffold/core/user"
)

type profileRepository struct {
	db *profileTable
}

var _ user.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) user.Repository {
	return &profileRepository{db: db.profile}
}

func copyProfile(p user.Profile) user.Profile {
	p.Roles = append([]string(nil), p.Roles...)
	if p.Extra != nil {
		extra := make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			extra[k] = v
		}
		p.Extra = extra
	}
	return p
}

func (repo *profileRepository) LookupProfile(_ context.Context, username string) (*user.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.table[username]; ok {
		cp := copyProfile(*p)
		return &cp, nil
	}
	return nil, nil
}

func (repo *profileRepository) SaveProfile(_ context.Context, username string, p user.Profile) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	p = copyProfile(p)
	p.Username = username
	repo.db.table[username] = &p
	return nil
}

func (repo *profileRepository) QueryProfiles(context.Context) ([]user.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := repo.db.all()
	for i := range profiles {
		profiles[i] = copyProfile(profiles[i])
	}
	return profiles, nil
}
