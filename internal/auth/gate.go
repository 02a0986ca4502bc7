package auth

import (
	"slices"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// Require allows viewer when its authority is at least level.
// A nil viewer is unauthenticated, a low authority is forbidden.
func Require(viewer *model.User, level int) error {
	if viewer == nil {
		return model.ErrAuthRequired
	}
	if viewer.Authority < level {
		return model.ErrPermissionDenied
	}
	return nil
}

// RequireOwnerOr allows the owner of a resource regardless of authority,
// anyone else needs level.
func RequireOwnerOr(viewer *model.User, ownerUUID string, level int) error {
	if viewer == nil {
		return model.ErrAuthRequired
	}
	if ownerUUID != "" && viewer.UUID == ownerUUID {
		return nil
	}
	return Require(viewer, level)
}

// CanView reports whether viewer may read a resource with visibility v.
// Deleted or private resources are readable by their author, by the
// allow-list and by viewers at or above viewHidden. The resource's own
// authority override only opens private resources that are not deleted.
func CanView(viewer model.Viewer, v model.Visibility, viewHidden int) bool {
	if !v.Deleted && !v.Private {
		return true
	}
	if viewer.UUID == "" {
		return false
	}
	if viewer.UUID == v.AuthorUUID || viewer.Authority >= viewHidden {
		return true
	}
	if slices.Contains(v.AllowedUsers, viewer.UUID) {
		return true
	}
	if v.Deleted {
		return false
	}
	return v.AllowedAuthority > 0 && viewer.Authority >= v.AllowedAuthority
}
