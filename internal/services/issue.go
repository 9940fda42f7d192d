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

// IssueRepository defines persistence operations for issues.
type IssueRepository interface {
	List(ctx context.Context, filter store.IssueFilter) ([]types.Issue, int, error)
	Get(ctx context.Context, id int) (types.Issue, error)
	Create(ctx context.Context, issue types.Issue) (types.Issue, error)
	Update(ctx context.Context, issue types.Issue) (types.Issue, error)
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// IssueCreateInput carries the fields of a new facility issue.
type IssueCreateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Location    string   `json:"location"`
	Images      []string `json:"images"`
}

// IssueUpdateInput is a partial patch of an issue's editable fields.
// Status, assignment, and resolution have their own operations.
type IssueUpdateInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Priority    *string  `json:"priority"`
	Location    *string  `json:"location"`
	Images      []string `json:"images"`
}

// IssueStatusInput carries an admin status update. Notes and the
// estimated resolution time are stored whenever provided, independent
// of the target status.
type IssueStatusInput struct {
	Status              string     `json:"status"`
	Notes               string     `json:"notes"`
	EstimatedResolution *time.Time `json:"estimated_resolution"`
}

var issuePriorities = []string{
	string(types.IssuePriorityLow),
	string(types.IssuePriorityMedium),
	string(types.IssuePriorityHigh),
	string(types.IssuePriorityUrgent),
}

var issueStatuses = []string{
	string(types.IssueStatusPending),
	string(types.IssueStatusInProgress),
	string(types.IssueStatusResolved),
	string(types.IssueStatusClosed),
}

// strictNext is the transition table applied only when strict
// transitions are enabled. The default model lets admins set any
// status from any status.
var strictNext = map[types.IssueStatus][]types.IssueStatus{
	types.IssueStatusPending:    {types.IssueStatusInProgress, types.IssueStatusClosed},
	types.IssueStatusInProgress: {types.IssueStatusResolved, types.IssueStatusClosed},
	types.IssueStatusResolved:   {types.IssueStatusClosed},
	types.IssueStatusClosed:     {},
}

// IssueService is the lifecycle manager for facility issues.
type IssueService struct {
	repo              IssueRepository
	users             UserLookup
	events            *EventPublisher
	strictTransitions bool
	now               func() time.Time
}

func NewIssueService(repo IssueRepository, users UserLookup, events *EventPublisher, strictTransitions bool) *IssueService {
	return &IssueService{
		repo:              repo,
		users:             users,
		events:            events,
		strictTransitions: strictTransitions,
		now:               time.Now,
	}
}

// List is a public read.
func (s *IssueService) List(ctx context.Context, filter store.IssueFilter) ([]types.ExpandedIssue, int, error) {
	issues, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store(err)
	}
	expanded := make([]types.ExpandedIssue, 0, len(issues))
	for _, issue := range issues {
		e, err := s.expand(ctx, issue)
		if err != nil {
			return nil, 0, err
		}
		expanded = append(expanded, e)
	}
	return expanded, total, nil
}

// Get is a public read.
func (s *IssueService) Get(ctx context.Context, id int) (types.ExpandedIssue, error) {
	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedIssue{}, mapStoreErr(err, "issue")
	}
	return s.expand(ctx, issue)
}

// Create validates the input and persists the issue as pending with
// an empty upvote set. Priority defaults to medium when omitted.
func (s *IssueService) Create(ctx context.Context, in IssueCreateInput, caller *auth.Caller) (types.ExpandedIssue, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return types.ExpandedIssue{}, err
	}

	priority := in.Priority
	if priority == "" {
		priority = string(types.IssuePriorityMedium)
	}

	var c validate.Checker
	c.StringLen("title", in.Title, 5, 100)
	c.StringLen("description", in.Description, 10, 1000)
	c.OneOf("category", in.Category, types.IssueCategories)
	c.OneOf("priority", priority, issuePriorities)
	c.StringLen("location", in.Location, 3, 100)
	if err := c.Err(); err != nil {
		return types.ExpandedIssue{}, err
	}

	issue := types.Issue{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    types.IssuePriority(priority),
		Location:    in.Location,
		Images:      in.Images,
		Status:      types.IssueStatusPending,
		ReporterID:  caller.ID,
		Upvotes:     []int{},
		UpvoteCount: 0,
	}

	created, err := s.repo.Create(ctx, issue)
	if err != nil {
		return types.ExpandedIssue{}, apperr.Store(err)
	}

	s.events.Publish(ctx, EventIssueCreated, map[string]any{"issue_id": created.ID, "reporter_id": caller.ID})
	return s.expand(ctx, created)
}

// Update applies a partial patch under the same ownership rule as
// items. Reporter, status, upvotes, and resolution never change here.
func (s *IssueService) Update(ctx context.Context, id int, in IssueUpdateInput, caller *auth.Caller) (types.ExpandedIssue, error) {
	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedIssue{}, mapStoreErr(err, "issue")
	}
	if err := auth.RequireOwnerOrAdmin(caller, issue.ReporterID); err != nil {
		return types.ExpandedIssue{}, err
	}

	var c validate.Checker
	if in.Title != nil {
		c.StringLen("title", *in.Title, 5, 100)
	}
	if in.Description != nil {
		c.StringLen("description", *in.Description, 10, 1000)
	}
	if in.Category != nil {
		c.OneOf("category", *in.Category, types.IssueCategories)
	}
	if in.Priority != nil {
		c.OneOf("priority", *in.Priority, issuePriorities)
	}
	if in.Location != nil {
		c.StringLen("location", *in.Location, 3, 100)
	}
	if err := c.Err(); err != nil {
		return types.ExpandedIssue{}, err
	}

	if in.Title != nil {
		issue.Title = *in.Title
	}
	if in.Description != nil {
		issue.Description = *in.Description
	}
	if in.Category != nil {
		issue.Category = *in.Category
	}
	if in.Priority != nil {
		issue.Priority = types.IssuePriority(*in.Priority)
	}
	if in.Location != nil {
		issue.Location = *in.Location
	}
	if in.Images != nil {
		issue.Images = in.Images
	}

	updated, err := s.persist(ctx, issue)
	if err != nil {
		return types.ExpandedIssue{}, err
	}
	return s.expand(ctx, updated)
}

// ToggleUpvote adds the caller to the upvote set, or removes them if
// already present. Calling it twice with the same caller restores the
// original set. Any authenticated user may upvote any issue.
func (s *IssueService) ToggleUpvote(ctx context.Context, id int, caller *auth.Caller) (types.ExpandedIssue, error) {
	if err := auth.RequireAuthenticated(caller); err != nil {
		return types.ExpandedIssue{}, err
	}

	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedIssue{}, mapStoreErr(err, "issue")
	}

	if issue.HasUpvote(caller.ID) {
		kept := make([]int, 0, len(issue.Upvotes)-1)
		for _, uid := range issue.Upvotes {
			if uid != caller.ID {
				kept = append(kept, uid)
			}
		}
		issue.Upvotes = kept
	} else {
		issue.Upvotes = append(issue.Upvotes, caller.ID)
	}

	updated, err := s.persist(ctx, issue)
	if err != nil {
		return types.ExpandedIssue{}, err
	}

	s.events.Publish(ctx, EventIssueUpvoted, map[string]any{"issue_id": id, "user_id": caller.ID, "upvote_count": updated.UpvoteCount})
	return s.expand(ctx, updated)
}

// Assign sets the assignee and forces the status to in-progress,
// whatever the current status. Admin only; the assignee must exist.
func (s *IssueService) Assign(ctx context.Context, id, assigneeID int, caller *auth.Caller) (types.ExpandedIssue, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.ExpandedIssue{}, err
	}

	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedIssue{}, mapStoreErr(err, "issue")
	}

	if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ExpandedIssue{}, apperr.Validation([]apperr.FieldViolation{
				{Field: "assignee_id", Message: "must reference an existing user"},
			})
		}
		return types.ExpandedIssue{}, apperr.Store(err)
	}

	issue.AssigneeID = &assigneeID
	issue.Status = types.IssueStatusInProgress

	updated, err := s.persist(ctx, issue)
	if err != nil {
		return types.ExpandedIssue{}, err
	}

	s.events.Publish(ctx, EventIssueAssigned, map[string]any{"issue_id": id, "assignee_id": assigneeID})
	return s.expand(ctx, updated)
}

// UpdateStatus sets the status to any enum value. A transition to
// resolved records the resolution time and the resolving admin.
func (s *IssueService) UpdateStatus(ctx context.Context, id int, in IssueStatusInput, caller *auth.Caller) (types.ExpandedIssue, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return types.ExpandedIssue{}, err
	}

	var c validate.Checker
	c.OneOf("status", in.Status, issueStatuses)
	if in.Notes != "" {
		c.StringLen("notes", in.Notes, 1, 500)
	}
	if err := c.Err(); err != nil {
		return types.ExpandedIssue{}, err
	}

	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.ExpandedIssue{}, mapStoreErr(err, "issue")
	}

	newStatus := types.IssueStatus(in.Status)
	if s.strictTransitions && newStatus != issue.Status && !transitionAllowed(issue.Status, newStatus) {
		return types.ExpandedIssue{}, apperr.Newf(apperr.KindInvalidTransition, "cannot move issue from %s to %s", issue.Status, newStatus)
	}

	issue.Status = newStatus
	if newStatus == types.IssueStatusResolved {
		now := s.now()
		resolverID := caller.ID
		issue.ResolvedAt = &now
		issue.ResolvedByID = &resolverID
	}
	if in.Notes != "" {
		issue.ResolutionNotes = in.Notes
	}
	if in.EstimatedResolution != nil {
		issue.EstimatedResolution = in.EstimatedResolution
	}

	updated, err := s.persist(ctx, issue)
	if err != nil {
		return types.ExpandedIssue{}, err
	}

	s.events.Publish(ctx, EventIssueStatusChange, map[string]any{"issue_id": id, "status": in.Status})
	return s.expand(ctx, updated)
}

// Delete removes the record permanently.
func (s *IssueService) Delete(ctx context.Context, id int, caller *auth.Caller) error {
	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err, "issue")
	}
	if err := auth.RequireOwnerOrAdmin(caller, issue.ReporterID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreErr(err, "issue")
	}
	return nil
}

// StatusCounts returns per-status issue counts for admins.
func (s *IssueService) StatusCounts(ctx context.Context, caller *auth.Caller) (map[string]int, error) {
	if err := auth.RequireRole(caller, types.RoleAdmin); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return counts, nil
}

// persist restores the upvote-count invariant and writes the issue.
// Every issue mutation funnels through here so the stored count always
// equals the cardinality of the upvote set.
func (s *IssueService) persist(ctx context.Context, issue types.Issue) (types.Issue, error) {
	issue.UpvoteCount = len(issue.Upvotes)
	updated, err := s.repo.Update(ctx, issue)
	if err != nil {
		return types.Issue{}, mapStoreErr(err, "issue")
	}
	return updated, nil
}

func transitionAllowed(from, to types.IssueStatus) bool {
	for _, next := range strictNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *IssueService) expand(ctx context.Context, issue types.Issue) (types.ExpandedIssue, error) {
	reporter, err := summaryFor(ctx, s.users, issue.ReporterID)
	if err != nil {
		return types.ExpandedIssue{}, err
	}
	assignee, err := summaryForPtr(ctx, s.users, issue.AssigneeID)
	if err != nil {
		return types.ExpandedIssue{}, err
	}
	resolvedBy, err := summaryForPtr(ctx, s.users, issue.ResolvedByID)
	if err != nil {
		return types.ExpandedIssue{}, err
	}
	return types.ExpandedIssue{
		Issue:      issue,
		Reporter:   reporter,
		Assignee:   assignee,
		ResolvedBy: resolvedBy,
	}, nil
}
