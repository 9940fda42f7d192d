package services

import (
	"context"
	"errors"
	"time"

	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/internal/auth"
	"github.com/campusdesk/apiserver/internal/store"
	"github.com/campusdesk/apiserver/internal/validate"
	"github.com/campusdesk/apiserver/types"
)

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	List(ctx context.Context, filter store.ItemFilter) ([]types.Item, int, error)
	Get(ctx context.Context, id int) (types.Item, error)
	Create(ctx context.Context, item types.Item) (types.Item, error)
	Update(ctx context.Context, item types.Item) (types.Item, error)
	ClaimIfActive(ctx context.Context, id, claimantID int, at time.Time) error
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ItemCreateInput carries the fields of a new lost/found report.
type ItemCreateInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Type         string   `json:"type"`
	Location     string   `json:"location"`
	Date         string   `json:"date"`
	Images       []string `json:"images"`
	ContactPhone string   `json:"contact_phone"`
	ContactEmail string   `json:"contact_email"`
}

// ItemUpdateInput is a partial patch of an item's editable fields.
// Nil means "leave unchanged". Reporter, status, claimant, and
// verification are never editable through this path.
type ItemUpdateInput struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Type         *string  `json:"type"`
	Location     *string  `json:"location"`
	Date         *string  `json:"date"`
	Images       []string `json:"images"`
	ContactPhone *string  `json:"contact_phone"`
	ContactEmail *string  `json:"contact_email"`
}

// ItemService is the lifecycle manager for lost/found items.
type ItemService struct {
	repo   ItemRepository
	users  UserLookup
	events *EventPublisher
	now    func() time.Time
}

func NewItemService(repo ItemRepository, users UserLookup, events *EventPublisher) *ItemService {
	return &ItemService{
		repo:   repo,
		users:  users,
		events: events,
		now:    time.Now,
	}
}

// List is a public read; filtering, sorting, and pagination are
// delegated to the store.
func (s *ItemService) List(ctx context.Context, filter store.ItemFilter) ([]types.ExpandedItem, int, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store(err)
	}
	expanded := make([]types.ExpandedItem, 0, len(items))
	for _, item := range items {
		e, err := s.expand(ctx, item)
		if err != nil {
			return nil, 0, err
		}
		expanded = append(expanded, e)
	}
	return expanded, total, nil
}

// Get is a public read.
func (s *ItemService) Get(ctx context.Context, id int) (types.ExpandedItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}
	return s.expand(ctx, item)
}

// Create validates all field constraints at once and persists the
// report as active with the caller as reporter.
func (s *ItemService) Create(ctx context.Context, in ItemCreateInput, caller *auth.Caller) (types.ExpandedItem, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return types.ExpandedItem{}, err
	}

	var c validate.Checker
	c.StringLen("title", in.Title, 5, 100)
	c.StringLen("description", in.Description, 10, 500)
	c.OneOf("category", in.Category, types.ItemCategories)
	c.OneOf("type", in.Type, []string{string(types.ItemTypeLost), string(types.ItemTypeFound)})
	c.StringLen("location", in.Location, 3, 100)
	date := c.Date("date", in.Date)
	c.NonEmptyList("images", len(in.Images))
	c.Phone("contact_phone", in.ContactPhone)
	c.Email("contact_email", in.ContactEmail)
	if err := c.Err(); err != nil {
		return types.ExpandedItem{}, err
	}

	item := types.Item{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Type:         types.ItemType(in.Type),
		Location:     in.Location,
		Date:         date,
		Images:       in.Images,
		Status:       types.ItemStatusActive,
		ReporterID:   caller.ID,
		ContactPhone: in.ContactPhone,
		ContactEmail: in.ContactEmail,
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return types.ExpandedItem{}, apperr.Store(err)
	}

	s.events.Publish(ctx, EventItemCreated, map[string]any{"item_id": created.ID, "reporter_id": caller.ID})
	return s.expand(ctx, created)
}

// Update applies a partial patch. Only the reporter or an admin may
// edit; reporter, status, claimant, and verification never change here.
func (s *ItemService) Update(ctx context.Context, id int, in ItemUpdateInput, caller *auth.Caller) (types.ExpandedItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}
	if err := auth.RequireOwnerOrAdmin(caller, item.ReporterID); err != nil {
		return types.ExpandedItem{}, err
	}

	var c validate.Checker
	if in.Title != nil {
		c.StringLen("title", *in.Title, 5, 100)
	}
	if in.Description != nil {
		c.StringLen("description", *in.Description, 10, 500)
	}
	if in.Category != nil {
		c.OneOf("category", *in.Category, types.ItemCategories)
	}
	if in.Type != nil {
		c.OneOf("type", *in.Type, []string{string(types.ItemTypeLost), string(types.ItemTypeFound)})
	}
	if in.Location != nil {
		c.StringLen("location", *in.Location, 3, 100)
	}
	var date time.Time
	if in.Date != nil {
		date = c.Date("date", *in.Date)
	}
	if in.Images != nil {
		c.NonEmptyList("images", len(in.Images))
	}
	if in.ContactPhone != nil {
		c.Phone("contact_phone", *in.ContactPhone)
	}
	if in.ContactEmail != nil {
		c.Email("contact_email", *in.ContactEmail)
	}
	if err := c.Err(); err != nil {
		return types.ExpandedItem{}, err
	}

	if in.Title != nil {
		item.Title = *in.Title
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Type != nil {
		item.Type = types.ItemType(*in.Type)
	}
	if in.Location != nil {
		item.Location = *in.Location
	}
	if in.Date != nil {
		item.Date = date
	}
	if in.Images != nil {
		item.Images = in.Images
	}
	if in.ContactPhone != nil {
		item.ContactPhone = *in.ContactPhone
	}
	if in.ContactEmail != nil {
		item.ContactEmail = *in.ContactEmail
	}

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}
	return s.expand(ctx, updated)
}

// Claim transitions an active item to claimed for the caller. The
// reporter cannot claim their own item, and the store write is
// conditional on the item still being active, so a second claim
// attempt by anyone fails.
func (s *ItemService) Claim(ctx context.Context, id int, caller *auth.Caller) (types.ExpandedItem, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return types.ExpandedItem{}, err
	}

	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}
	if item.Status != types.ItemStatusActive {
		return types.ExpandedItem{}, apperr.Newf(apperr.KindInvalidTransition, "item is %s, only active items can be claimed", item.Status)
	}
	if caller.ID == item.ReporterID {
		return types.ExpandedItem{}, apperr.New(apperr.KindSelfAction, "cannot claim your own item")
	}

	now := s.now()
	if err := s.repo.ClaimIfActive(ctx, id, caller.ID, now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.ExpandedItem{}, apperr.New(apperr.KindInvalidTransition, "item is no longer active")
		}
		return types.ExpandedItem{}, apperr.Store(err)
	}

	claimantID := caller.ID
	item.Status = types.ItemStatusClaimed
	item.ClaimantID = &claimantID
	item.ClaimedAt = &now

	s.events.Publish(ctx, EventItemClaimed, map[string]any{"item_id": item.ID, "claimant_id": caller.ID})
	return s.expand(ctx, item)
}

// Verify marks the item as verified by the calling admin, regardless
// of the item's current status.
func (s *ItemService) Verify(ctx context.Context, id int, caller *auth.Caller) (types.ExpandedItem, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.ExpandedItem{}, err
	}

	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}

	now := s.now()
	verifierID := caller.ID
	item.Verified = true
	item.VerifierID = &verifierID
	item.VerifiedAt = &now

	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}

	s.events.Publish(ctx, EventItemVerified, map[string]any{"item_id": id, "verifier_id": caller.ID})
	return s.expand(ctx, updated)
}

// Close sets the status to closed with no prior-state check: closing
// an already-closed item is a no-op success, unlike claim and verify.
func (s *ItemService) Close(ctx context.Context, id int, caller *auth.Caller) (types.ExpandedItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}
	if err := auth.RequireOwnerOrAdmin(caller, item.ReporterID); err != nil {
		return types.ExpandedItem{}, err
	}

	item.Status = types.ItemStatusClosed
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return types.ExpandedItem{}, mapStoreErr(err, "item")
	}

	s.events.Publish(ctx, EventItemClosed, map[string]any{"item_id": id})
	return s.expand(ctx, updated)
}

// Delete removes the record permanently.
func (s *ItemService) Delete(ctx context.Context, id int, caller *auth.Caller) error {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err, "item")
	}
	if err := auth.RequireOwnerOrAdmin(caller, item.ReporterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreErr(err, "item")
	}
	return nil
}

// StatusCounts returns per-status item counts for admins.
func (s *ItemService) StatusCounts(ctx context.Context, caller *auth.Caller) (map[string]int, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return counts, nil
}

func (s *ItemService) expand(ctx context.Context, item types.Item) (types.ExpandedItem, error) {
	reporter, err := summaryFor(ctx, s.users, item.ReporterID)
	if err != nil {
		return types.ExpandedItem{}, err
	}
	claimant, err := summaryForPtr(ctx, s.users, item.ClaimantID)
	if err != nil {
		return types.ExpandedItem{}, err
	}
	verifier, err := summaryForPtr(ctx, s.users, item.VerifierID)
	if err != nil {
		return types.ExpandedItem{}, err
	}
	return types.ExpandedItem{
		Item:     item,
		Reporter: reporter,
		Claimant: claimant,
		Verifier: verifier,
	}, nil
}
