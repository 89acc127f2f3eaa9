package papers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paper-nest/backend/internal/filter"
	"github.com/paper-nest/backend/internal/models"
)

var ErrPaperNotFound = errors.New("paper not found")

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// chapterErrors reports chapter names with no letters or digits. They would
// otherwise vanish from the filter and widen the query to every chapter.
func chapterErrors(chapters []string) []string {
	var errs []string
	for _, ch := range filter.Unmatchable(chapters) {
		errs = append(errs, fmt.Sprintf("chapter %q has no letters or digits", ch))
	}
	return errs
}

func chapterRequestErrors(reqs []models.ChapterRequest) []string {
	var errs []string
	for i, cr := range reqs {
		for _, e := range chapterErrors([]string{cr.Chapter}) {
			errs = append(errs, fmt.Sprintf("replacementRequests[%d]: %s", i, e))
		}
	}
	return errs
}

func validationError(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// NotFoundError means the filters were valid but nothing matched.
type NotFoundError struct {
	Message string
	Filter  string
}

func (e *NotFoundError) Error() string {
	if e.Filter == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Filter)
}
