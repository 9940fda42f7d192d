package types

import "time"

// IssuePriority is the urgency level of a facility issue.
type IssuePriority string

// Issue priorities. Medium is the default when none is given.
const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityUrgent IssuePriority = "urgent"
)

// IssueStatus is the lifecycle state of a facility issue.
type IssueStatus string

// Issue lifecycle states. Admin status updates may set any value from
// any value; the nominal order is pending, in-progress, resolved, closed.
const (
	IssueStatusPending    IssueStatus = "pending"
	IssueStatusInProgress IssueStatus = "in-progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// IssueCategories is the closed set of categories an issue may carry.
var IssueCategories = []string{
	"electrical",
	"plumbing",
	"civil",
	"cleaning",
	"internet",
	"furniture",
	"safety",
	"other",
}

// Issue represents a reported facility or infrastructure problem.
type Issue struct {
	// ID is the unique identifier of the issue.
	ID int `json:"id" db:"id"`

	// Title is the short human-readable name of the issue.
	Title string `json:"title" db:"title"`

	// Description contains the full issue text.
	Description string `json:"description" db:"description"`

	// Category is one of IssueCategories.
	Category string `json:"category" db:"category"`

	// Priority is the urgency level of the issue.
	Priority IssuePriority `json:"priority" db:"priority"`

	// Location is where the problem was observed.
	Location string `json:"location" db:"location"`

	// Images holds opaque image URLs attached to the issue.
	Images []string `json:"images" db:"images"`

	// Status is the current lifecycle state of the issue.
	Status IssueStatus `json:"status" db:"status"`

	// ReporterID references the user who created the issue.
	// Immutable after creation.
	ReporterID int `json:"reporter_id" db:"reporter_id"`

	// AssigneeID references the user the issue is assigned to, if any.
	// Assignment forces Status to in-progress.
	AssigneeID *int `json:"assignee_id,omitempty" db:"assignee_id"`

	// Upvotes is the set of user ids endorsing the issue. Each id
	// appears at most once.
	Upvotes []int `json:"upvotes" db:"upvotes"`

	// UpvoteCount equals the cardinality of Upvotes. It is derived
	// and recomputed from the set before every persist.
	UpvoteCount int `json:"upvote_count" db:"upvote_count"`

	// ResolvedAt is set when a status update lands on resolved.
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`

	// ResolvedByID references the admin whose status update resolved
	// the issue.
	ResolvedByID *int `json:"resolved_by_id,omitempty" db:"resolved_by_id"`

	// ResolutionNotes holds free-form notes recorded by admin status
	// updates, independent of the status value.
	ResolutionNotes string `json:"resolution_notes,omitempty" db:"resolution_notes"`

	// EstimatedResolution is the admin's estimate for when the issue
	// will be resolved, if one was given.
	EstimatedResolution *time.Time `json:"estimated_resolution,omitempty" db:"estimated_resolution"`

	// CreatedAt is the timestamp at which the issue was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the issue.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ExpandedIssue is an Issue with its user references resolved to
// summaries for response purposes.
type ExpandedIssue struct {
	Issue

	Reporter   UserSummary  `json:"reporter"`
	Assignee   *UserSummary `json:"assignee,omitempty"`
	ResolvedBy *UserSummary `json:"resolved_by,omitempty"`
}

// HasUpvote reports whether the given user id is in the upvote set.
func (i Issue) HasUpvote(userID int) bool {
	for _, id := range i.Upvotes {
		if id == userID {
			return true
		}
	}
	return false
}
