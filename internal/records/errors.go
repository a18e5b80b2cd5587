package records

import (
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-records/internal/types"
)

var (
	// ErrNotFound is returned when an operation targets an id that is not
	// in the table.
	ErrNotFound = errors.New("student not found")

	// ErrInvalidField is returned when an edit targets the id or a column
	// outside the schema.
	ErrInvalidField = errors.New("field is not editable")

	// ErrNoMatch is returned by Resolve when the term matches nothing.
	ErrNoMatch = errors.New("no student matches")

	// ErrAmbiguous is matched (errors.Is) by every *AmbiguousError.
	ErrAmbiguous = errors.New("more than one student matches")
)

// AmbiguousError carries the candidates of a search that could not be
// narrowed to a single record. The caller must re-query by exact id.
type AmbiguousError struct {
	Term    string
	Matches []types.Record
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%d students match %q: search by exact id", len(e.Matches), e.Term)
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }
