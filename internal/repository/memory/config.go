package memory

import (
	"context"
	"maps"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

type configRepository struct {
	s *Store
}

func (r *configRepository) Get(_ context.Context, key string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	val, ok := r.s.config[key]
	if !ok {
		return "", model.ErrConfigNotFound
	}
	return val, nil
}

func (r *configRepository) Set(_ context.Context, key, val string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.config[key] = val
	return nil
}

func (r *configRepository) All(_ context.Context) (map[string]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return maps.Clone(r.s.config), nil
}
