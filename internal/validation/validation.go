// Package validation enforces the schema rules on records, symmetrically for
// writes and for rows decoded from the sheet. A hand-edited sheet that drifts
// out of shape fails loudly on read instead of silently serving corrupt data.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/careercompass/compass/internal/schema"
)

// Mode selects write-side or read-side rule interpretation.
type Mode int

const (
	// ModeWrite applies the strict rules for freshly written records.
	ModeWrite Mode = iota
	// ModeRead relaxes rules that would reject tolerated legacy rows.
	ModeRead
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
// Matching is exact and case-sensitive.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value %q must be one of: %s", value, strings.Join(allowed, ", ")),
	}
}

// ValidateDate returns an error if a non-empty value is not a strict
// YYYY-MM-DD date. Empty values pass; required-ness is checked separately.
func ValidateDate(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value %q must be a date in YYYY-MM-DD format", value),
		}
	}
	return nil
}

// ValidatePercent returns an error if a non-empty value is not a number in
// [0,100]. The string itself is preserved as written; only parseability and
// range are checked.
func ValidatePercent(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value %q must be a number between 0 and 100", value),
		}
	}
	if f < 0 || f > 100 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("value %q must be between 0 and 100", value),
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// Record checks a record against the entity's schema. It returns hard errors
// and, separately, warnings for tolerated legacy conditions (a mapping row
// with both foreign keys populated is accepted on read but flagged).
//
// Records are expected to carry canonical keys, which is what Decode produces
// and what the store's default application produces on the write path.
func Record(e schema.Entity, rec map[string]string, mode Mode) (errs, warnings []ValidationError) {
	var c Collector
	for _, col := range e.Columns {
		value := rec[col.Key]
		if col.Required {
			if err := ValidateRequired(col.Key, value); err != nil {
				c.Add(err)
				continue
			}
		}
		if value == "" {
			continue
		}
		if len(col.Enum) > 0 {
			c.Add(ValidateEnum(col.Key, value, col.Enum))
		}
		switch col.Kind {
		case schema.KindDate:
			c.Add(ValidateDate(col.Key, value))
		case schema.KindPercent:
			c.Add(ValidatePercent(col.Key, value))
		}
		if col.MaxLen > 0 {
			c.Add(ValidateMaxLength(col.Key, value, col.MaxLen))
		}
	}

	if e.OneOf[0] != "" {
		first := strings.TrimSpace(rec[e.OneOf[0]]) != ""
		second := strings.TrimSpace(rec[e.OneOf[1]]) != ""
		switch {
		case !first && !second:
			c.Add(&ValidationError{
				Field:   e.OneOf[0],
				Message: fmt.Sprintf("exactly one of %s or %s must be set", e.OneOf[0], e.OneOf[1]),
			})
		case first && second:
			if mode == ModeWrite {
				c.Add(&ValidationError{
					Field:   e.OneOf[1],
					Message: fmt.Sprintf("only one of %s or %s may be set", e.OneOf[0], e.OneOf[1]),
				})
			} else {
				// Legacy rows with both keys exist in historical data; reads
				// tolerate them so old sheets keep loading.
				warnings = append(warnings, ValidationError{
					Field:   e.OneOf[1],
					Message: fmt.Sprintf("both %s and %s are set; treating as legacy row", e.OneOf[0], e.OneOf[1]),
				})
			}
		}
	}

	return c.Errors(), warnings
}
