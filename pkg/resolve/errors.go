package resolve

import (
	"fmt"
	"strings"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

// ExtractionInputError marks a raw entity that failed boundary
// validation. The record is skipped and counted; the batch continues.
type ExtractionInputError struct {
	EntityID string
	Reason   string
}

func (e *ExtractionInputError) Error() string {
	return fmt.Sprintf("invalid raw entity %q: %s", e.EntityID, e.Reason)
}

// validateRawEntity checks the fields resolution cannot work without.
// Embeddings are optional at this boundary; dimension checks happen
// later and only gate embedding-based comparison.
func validateRawEntity(e common.RawEntity) error {
	if strings.TrimSpace(e.ID) == "" {
		return &ExtractionInputError{EntityID: e.ID, Reason: "missing id"}
	}
	if strings.TrimSpace(e.Name) == "" {
		return &ExtractionInputError{EntityID: e.ID, Reason: "missing name"}
	}
	if e.Kind == "" {
		return &ExtractionInputError{EntityID: e.ID, Reason: "missing kind"}
	}
	return nil
}
