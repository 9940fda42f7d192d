package services

import (
	"context"

	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/internal/auth"
	"github.com/campusdesk/apiserver/internal/validate"
	"github.com/campusdesk/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// ProfileInput is a partial patch of a user's own profile. The
// password hash, when present, has already been computed by the
// caller.
type ProfileInput struct {
	Name         *string
	StudentID    *string
	PasswordHash *string
}

// UserService encapsulates user use-cases, including the admin account
// controls with their self-protection rule.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// List returns a page of accounts. Admin only.
func (s *UserService) List(ctx context.Context, offset, limit int, caller *auth.Caller) ([]types.User, int, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, apperr.Store(err)
	}
	return users, total, nil
}

// UpdateProfile lets a user edit their own name, student id, and
// password. Role and active flag are admin-only and untouchable here.
func (s *UserService) UpdateProfile(ctx context.Context, in ProfileInput, caller *auth.Caller) (types.User, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, caller.ID)
	if err != nil {
		return types.User{}, mapStoreErr(err, "user")
	}

	var c validate.Checker
	if in.Name != nil {
		c.StringLen("name", *in.Name, 2, 100)
	}
	if in.StudentID != nil {
		c.StringLen("student_id", *in.StudentID, 1, 50)
	}
	if err := c.Err(); err != nil {
		return types.User{}, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.StudentID != nil {
		user.StudentID = *in.StudentID
	}
	if in.PasswordHash != nil {
		user.PasswordHash = *in.PasswordHash
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, mapStoreErr(err, "user")
	}
	return updated, nil
}

// SetRole changes another user's role. Admin only; an admin cannot
// change their own role.
func (s *UserService) SetRole(ctx context.Context, targetID int, role types.Role, caller *auth.Caller) (types.User, error) {
	if err := auth.RequireAdminOnOther(caller, targetID); err != nil {
		return types.User{}, err
	}

	var c validate.Checker
	c.OneOf("role", string(role), []string{string(types.RoleStudent), string(types.RoleAdmin)})
	if err := c.Err(); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return types.User{}, mapStoreErr(err, "user")
	}

	user.Role = role
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, mapStoreErr(err, "user")
	}
	return updated, nil
}

// SetActive toggles another user's active flag. Admin only; an admin
// cannot deactivate their own account.
func (s *UserService) SetActive(ctx context.Context, targetID int, active bool, caller *auth.Caller) (types.User, error) {
	if err := auth.RequireAdminOnOther(caller, targetID); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return types.User{}, mapStoreErr(err, "user")
	}

	user.Active = active
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, mapStoreErr(err, "user")
	}
	return updated, nil
}
