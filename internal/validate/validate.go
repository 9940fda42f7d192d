// Package validate provides the field-rule helpers shared by the item
// and issue managers. Rules accumulate violations so a caller sees every
// invalid field at once, not just the first.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/campusdesk/apiserver/internal/apperr"
)

const dateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Checker accumulates field violations across a sequence of rules.
type Checker struct {
	violations []apperr.FieldViolation
}

// Fail records a violation for the named field.
func (c *Checker) Fail(field, message string) {
	c.violations = append(c.violations, apperr.FieldViolation{Field: field, Message: message})
}

// StringLen requires value, after trimming, to be between min and max
// characters.
func (c *Checker) StringLen(field, value string, min, max int) {
	n := len(strings.TrimSpace(value))
	if n < min || n > max {
		c.Fail(field, fmt.Sprintf("must be between %d and %d characters", min, max))
	}
}

// OneOf requires value to be a member of allowed.
func (c *Checker) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	c.Fail(field, "must be one of: "+strings.Join(allowed, ", "))
}

// Email requires value to be a well-formed email address.
func (c *Checker) Email(field, value string) {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		c.Fail(field, "must be a valid email address")
	}
}

// Phone requires value to be exactly ten digits.
func (c *Checker) Phone(field, value string) {
	if !phonePattern.MatchString(strings.TrimSpace(value)) {
		c.Fail(field, "must be a 10-digit number")
	}
}

// Date requires value to be a valid YYYY-MM-DD calendar date and
// returns the parsed time. Returns the zero time on failure.
func (c *Checker) Date(field, value string) time.Time {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		c.Fail(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	return parsed
}

// NonEmptyList requires the list length to be at least one.
func (c *Checker) NonEmptyList(field string, length int) {
	if length == 0 {
		c.Fail(field, "must contain at least one entry")
	}
}

// Err returns a validation error carrying every recorded violation, or
// nil when all rules passed.
func (c *Checker) Err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return apperr.Validation(c.violations)
}
