package auth

import (
	"testing"

	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/types"
)

var (
	student  = &Caller{ID: 1, Role: types.RoleStudent, Active: true}
	admin    = &Caller{ID: 2, Role: types.RoleAdmin, Active: true}
	disabled = &Caller{ID: 3, Role: types.RoleStudent, Active: false}
)

func TestRequireAuthenticated(t *testing.T) {
	tests := []struct {
		name   string
		caller *Caller
		want   apperr.Kind
	}{
		{"nil caller", nil, apperr.KindUnauthenticated},
		{"disabled account", disabled, apperr.KindAccountDisabled},
		{"active student", student, ""},
		{"active admin", admin, ""},
	}

	for _, tt := range tests {
		err := RequireAuthenticated(tt.caller)
		if got := apperr.KindOf(err); got != tt.want {
			t.Errorf("%s: kind = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		caller *Caller
		role   types.Role
		want   apperr.Kind
	}{
		{"student needs admin", student, types.RoleAdmin, apperr.KindForbidden},
		{"admin is admin", admin, types.RoleAdmin, ""},
		{"nil caller", nil, types.RoleAdmin, apperr.KindUnauthenticated},
		{"disabled caller", disabled, types.RoleStudent, apperr.KindAccountDisabled},
		{"unknown role fails closed", &Caller{ID: 4, Role: "staff", Active: true}, types.RoleAdmin, apperr.KindForbidden},
	}

	for _, tt := range tests {
		err := RequireRole(tt.caller, tt.role)
		if got := apperr.KindOf(err); got != tt.want {
			t.Errorf("%s: kind = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	tests := []struct {
		name    string
		caller  *Caller
		ownerID int
		want    apperr.Kind
	}{
		{"owner passes", student, 1, ""},
		{"admin passes on any record", admin, 1, ""},
		{"stranger forbidden", student, 99, apperr.KindForbidden},
		{"nil caller", nil, 1, apperr.KindUnauthenticated},
	}

	for _, tt := range tests {
		err := RequireOwnerOrAdmin(tt.caller, tt.ownerID)
		if got := apperr.KindOf(err); got != tt.want {
			t.Errorf("%s: kind = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRequireAdminOnOther(t *testing.T) {
	tests := []struct {
		name     string
		caller   *Caller
		targetID int
		want     apperr.Kind
	}{
		{"admin on other user", admin, 1, ""},
		{"admin on self rejected first", admin, 2, apperr.KindSelfAction},
		{"student on self rejected before role check", student, 1, apperr.KindSelfAction},
		{"student on other forbidden", student, 2, apperr.KindForbidden},
		{"nil caller", nil, 1, apperr.KindUnauthenticated},
	}

	for _, tt := range tests {
		err := RequireAdminOnOther(tt.caller, tt.targetID)
		if got := apperr.KindOf(err); got != tt.want {
			t.Errorf("%s: kind = %q, want %q", tt.name, got, tt.want)
		}
	}
}
