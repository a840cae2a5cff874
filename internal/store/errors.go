package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/careercompass/compass/internal/validation"
)

var (
	// ErrSheetMissing means a required sheet does not exist and the entity
	// disallows creating it. Provision the tab out of band and restart.
	ErrSheetMissing = errors.New("required sheet missing")

	// ErrHeaderMismatch means a sheet's header row has drifted from the
	// schema and the entity disallows rewriting it.
	ErrHeaderMismatch = errors.New("sheet header mismatch")

	// ErrAppendNoEffect means the API reported success but wrote zero rows.
	ErrAppendNoEffect = errors.New("append produced no effect")
)

// RecordError reports a record that failed schema validation. Row is the
// 1-based sheet row (header is row 1) for reads, or 0 for a pre-write check,
// so an operator can locate the offending row in the spreadsheet directly.
type RecordError struct {
	Sheet  string
	Row    int
	Errors []validation.ValidationError
}

func (e *RecordError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		parts[i] = fmt.Sprintf("field %q %s", ve.Field, ve.Message)
	}
	if e.Row > 0 {
		return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s record: %s", e.Sheet, strings.Join(parts, "; "))
}
