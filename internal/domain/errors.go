package domain

import "fmt"

// AlignmentError reports that two panels share no common periods or no
// common instruments. It is fatal: evaluation cannot proceed on an empty
// intersection.
type AlignmentError struct {
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("panel alignment failed: %s", e.Reason)
}

// ConfigurationError reports an invalid configuration value. It is
// rejected before any per-period computation starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}
