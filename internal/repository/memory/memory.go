// Package memory keeps every table in process memory. It backs the
// "memory" store driver and the service tests, and enforces the same
// uniqueness and sequence rules as the Postgres repositories.
package memory

import (
	"sync"

	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	users    []*model.User
	posts    []*model.Post
	comments []*model.Comment
	config   map[string]string
	lastUID  int64
	lastPID  int64
}

// New returns an empty store seeded with the default site config.
func New() *Store {
	cfg := make(map[string]string, len(model.DefaultSiteConfig))
	for k, v := range model.DefaultSiteConfig {
		cfg[k] = v
	}
	return &Store{config: cfg, lastUID: model.FirstUID - 1}
}

func (s *Store) Users() repository.UserRepository       { return &userRepository{s} }
func (s *Store) Posts() repository.PostRepository       { return &postRepository{s} }
func (s *Store) Comments() repository.CommentRepository { return &commentRepository{s} }
func (s *Store) Config() repository.ConfigRepository    { return &configRepository{s} }

func find[T any](items []*T, filter func(*T) bool) []*T {
	var result []*T
	for _, it := range items {
		if filter(it) {
			result = append(result, it)
		}
	}
	return result
}

// window returns the [start, end) bounds of page over n rows, reading one
// extra row for has_next detection.
func window(n int, page model.Page) (int, int) {
	start := min(page.Offset, n)
	end := min(start+page.Fetch(), n)
	return start, end
}
