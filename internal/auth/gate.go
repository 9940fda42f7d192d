// Package auth is the authorization gate shared by the item and issue
// managers. Ownership and role rules live here so the managers never
// re-derive them per operation.
package auth

import (
	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/types"
)

// Caller identifies the authenticated user performing a request.
// A nil *Caller means the request carried no valid identity.
type Caller struct {
	ID     int
	Role   types.Role
	Active bool
}

// IsAdmin reports whether the caller holds the admin role.
func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == types.RoleAdmin
}

// RequireAuthenticated passes when the caller is present and the
// account is active.
func RequireAuthenticated(caller *Caller) error {
	if caller == nil {
		return apperr.New(apperr.KindUnauthenticated, "authentication required")
	}
	if !caller.Active {
		return apperr.New(apperr.KindAccountDisabled, "account is deactivated")
	}
	return nil
}

// RequireRole passes when the caller holds exactly the given role.
// Unknown roles fail closed.
func RequireRole(caller *Caller, role types.Role) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.Role != role {
		return apperr.Newf(apperr.KindForbidden, "%s access required", role)
	}
	return nil
}

// RequireOwnerOrAdmin passes when the caller owns the record or holds
// the admin role.
func RequireOwnerOrAdmin(caller *Caller, ownerID int) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.ID != ownerID && caller.Role != types.RoleAdmin {
		return apperr.New(apperr.KindForbidden, "not allowed to modify this record")
	}
	return nil
}

// RequireAdminOnOther passes when the caller is an admin acting on a
// different user. Acting on one's own account is rejected with a
// distinct self-action error before the generic role check.
func RequireAdminOnOther(caller *Caller, targetID int) error {
	if err := RequireAuthenticated(caller); err != nil {
		return err
	}
	if caller.ID == targetID {
		return apperr.New(apperr.KindSelfAction, "cannot change your own role or account status")
	}
	return RequireRole(caller, types.RoleAdmin)
}
