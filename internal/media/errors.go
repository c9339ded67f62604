package media

import "fmt"

// MissingElementsError lists every role VerifyCapabilitySet could not
// build, surfaced to callers as PipelineBuildError (spec.md §7).
type MissingElementsError struct {
	Roles []string
}

func (e *MissingElementsError) Error() string {
	return fmt.Sprintf("media: missing required elements: %v", e.Roles)
}
