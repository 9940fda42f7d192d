package services

import (
	"context"
	"errors"

	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/internal/store"
	"github.com/campusdesk/apiserver/types"
)

// UserLookup resolves user ids to full records for expansion and
// reference checks.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (types.User, error)
}

// summaryFor resolves a user id to its summary. A dangling reference
// degrades to a summary carrying only the id rather than failing the
// whole read.
func summaryFor(ctx context.Context, users UserLookup, id int) (types.UserSummary, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UserSummary{ID: id}, nil
		}
		return types.UserSummary{}, apperr.Store(err)
	}
	return user.Summary(), nil
}

func summaryForPtr(ctx context.Context, users UserLookup, id *int) (*types.UserSummary, error) {
	if id == nil {
		return nil, nil
	}
	summary, err := summaryFor(ctx, users, *id)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// mapStoreErr converts a repository error into the application
// taxonomy: ErrNotFound becomes a not-found error for the named
// resource, anything else an opaque store error.
func mapStoreErr(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(resource)
	}
	return apperr.Store(err)
}
