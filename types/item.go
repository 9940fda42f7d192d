package types

import "time"

// ItemType distinguishes lost reports from found reports.
type ItemType string

// Item report types.
const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// ItemStatus is the lifecycle state of an item report.
type ItemStatus string

// Item lifecycle states. A closed item never transitions out of closed.
const (
	ItemStatusActive  ItemStatus = "active"
	ItemStatusClaimed ItemStatus = "claimed"
	ItemStatusClosed  ItemStatus = "closed"
)

// ItemCategories is the closed set of categories an item may carry.
var ItemCategories = []string{
	"electronics",
	"documents",
	"clothing",
	"accessories",
	"books",
	"keys",
	"bags",
	"other",
}

// Item represents a lost or found item report.
type Item struct {
	// ID is the unique identifier of the item.
	ID int `json:"id" db:"id"`

	// Title is the short human-readable name of the item.
	Title string `json:"title" db:"title"`

	// Description contains the full report text.
	Description string `json:"description" db:"description"`

	// Category is one of ItemCategories.
	Category string `json:"category" db:"category"`

	// Type records whether the item was lost or found.
	Type ItemType `json:"type" db:"type"`

	// Location is where the item was lost or found.
	Location string `json:"location" db:"location"`

	// Date is the calendar date the item was lost or found.
	Date time.Time `json:"date" db:"date"`

	// Images holds opaque image URLs attached to the report.
	// Always non-empty for a valid report.
	Images []string `json:"images" db:"images"`

	// Status is the current lifecycle state of the report.
	Status ItemStatus `json:"status" db:"status"`

	// ReporterID references the user who created the report.
	// Immutable after creation.
	ReporterID int `json:"reporter_id" db:"reporter_id"`

	// ClaimantID references the user who claimed the item.
	// Set iff Status is claimed; never equal to ReporterID.
	ClaimantID *int `json:"claimant_id,omitempty" db:"claimant_id"`

	// ClaimedAt is the timestamp of the successful claim, if any.
	ClaimedAt *time.Time `json:"claimed_at,omitempty" db:"claimed_at"`

	// ContactPhone is the reporter's contact number (10 digits).
	ContactPhone string `json:"contact_phone" db:"contact_phone"`

	// ContactEmail is the reporter's contact email address.
	ContactEmail string `json:"contact_email" db:"contact_email"`

	// Verified reports whether an admin has verified the item.
	// Independent of Status.
	Verified bool `json:"verified" db:"verified"`

	// VerifierID references the admin who verified the item, if any.
	VerifierID *int `json:"verifier_id,omitempty" db:"verifier_id"`

	// VerifiedAt is the timestamp of the verification, if any.
	VerifiedAt *time.Time `json:"verified_at,omitempty" db:"verified_at"`

	// CreatedAt is the timestamp at which the report was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the report.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ExpandedItem is an Item with its user references resolved to
// summaries for response purposes. The id fields remain the source
// of truth; the summaries are a read-time view.
type ExpandedItem struct {
	Item

	Reporter UserSummary  `json:"reporter"`
	Claimant *UserSummary `json:"claimant,omitempty"`
	Verifier *UserSummary `json:"verifier,omitempty"`
}
