package outreach

import "fmt"

// ExtractionParseError means the model's answer to the extraction prompt
// could not be read as job postings. The page is usually too large or not
// a careers page.
type ExtractionParseError struct {
	Reason string
	// Raw is the model output, kept for debugging.
	Raw string
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("context too big, unable to parse jobs: %s", e.Reason)
}

// GenerationError wraps a failed email draft.
type GenerationError struct {
	Role  string
	Cause error
}

func (e *GenerationError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("generate email: %v", e.Cause)
	}
	return fmt.Sprintf("generate email for %q: %v", e.Role, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
