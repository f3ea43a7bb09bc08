package fixture

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is wrapped by errors returned from [Validate].
var ErrInvalidRecord = errors.New("fixture: invalid record")

// Validate checks rec for required fields.
//
// Rules:
//   - Kind must be non-empty.
//   - Name must be non-empty.
//   - Tags must not contain empty strings.
func Validate(rec Record) error {
	var errs []error

	if rec.Kind == "" {
		errs = append(errs, errors.New("kind must not be empty"))
	}
	if rec.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	for i, tag := range rec.Tags {
		if tag == "" {
			errs = append(errs, fmt.Errorf("tags[%d] must not be empty", i))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidRecord, rec.ID, errors.Join(errs...))
}
