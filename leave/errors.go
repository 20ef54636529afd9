package leave

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparsableClause marks a candidate clause head that did not complete
	// the clause shape. Recovered locally; the rest of the text still parses.
	ErrUnparsableClause = errors.New("unparsable clause")

	// ErrUnparsableGroup marks a date-range group that did not parse.
	ErrUnparsableGroup = errors.New("unparsable group")

	// ErrInvalidConfig is the one fatal condition: an engine configuration
	// that cannot process any row. Reported at construction, never mid-batch.
	ErrInvalidConfig = errors.New("invalid engine configuration")
)

// ConfigError pinpoints the unusable configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid engine configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }
