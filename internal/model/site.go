package model

import "time"

// Well-known config keys
const (
	ConfigSiteName = "siteName"
	ConfigSiteDesc = "siteDesc"
	ConfigSecret   = "secret"
)

// DefaultSiteConfig is seeded into the config table and used when a key is unset.
var DefaultSiteConfig = map[string]string{
	ConfigSiteName: "Blog Now",
	ConfigSiteDesc: "My new blog!",
}

// SiteMeta summarizes the blog for the landing page.
type SiteMeta struct {
	TotalPosts int64      `json:"total_posts"`
	TotalUsers int64      `json:"total_users"`
	FoundedAt  *time.Time `json:"founded_at"`
	LatestPost *Post      `json:"latest_post"`
}

// SetConfigRequest is the body of PUT /config/{key}.
type SetConfigRequest struct {
	Val *string `json:"val"`
}

var (
	// ErrConfigNotFound is returned for unknown config keys
	ErrConfigNotFound = newKindError(ErrNotFound, "config key not found")

	// ErrConfigReserved is returned when a reserved key is read or written over HTTP
	ErrConfigReserved = newKindError(ErrForbidden, "config key is reserved")
)
