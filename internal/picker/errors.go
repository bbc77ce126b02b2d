package picker

import "fmt"

// ValidationError reports a bad caller input, such as a missing URL.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedFormatError reports a quality label without a numeric prefix
// followed by a single unit character.
type MalformedFormatError struct {
	Label    string
	FormatID string
}

func (e *MalformedFormatError) Error() string {
	if e.FormatID != "" {
		return fmt.Sprintf("malformed quality label %q of format %s", e.Label, e.FormatID)
	}
	return fmt.Sprintf("malformed quality label %q", e.Label)
}
