package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("not found")
	ErrUnknownTerm     = fmt.Errorf("%w: model term", ErrNotFound)
	ErrUnknownVariable = fmt.Errorf("%w: variable", ErrNotFound)
	ErrUnknownEffect   = fmt.Errorf("%w: effect", ErrNotFound)

	// Input errors
	ErrNoValidData      = errors.New("no valid data for dependent variable")
	ErrNoLevels         = errors.New("factor has no levels")
	ErrEmptyModel       = errors.New("model has no parameters")
	ErrUnknownContrast  = errors.New("unknown contrast method")
	ErrUnknownSSType    = errors.New("unknown sum of squares type")
	ErrUnknownAdjust    = errors.New("unknown multiple comparison adjustment")
	ErrInvalidModel     = errors.New("invalid model specification")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewUnknownTermError reports a term name absent from the model's term list
func NewUnknownTermError(term string) error {
	return fmt.Errorf("%w %q", ErrUnknownTerm, term)
}

// NewUnknownVariableError reports a variable missing from the dataset or model
func NewUnknownVariableError(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownVariable, name)
}

// NewNoLevelsError reports a factor that has no observed levels
func NewNoLevelsError(factor string) error {
	return fmt.Errorf("%w: %s", ErrNoLevels, factor)
}

// NewNoValidDataError reports a dependent variable without usable records
func NewNoValidDataError(dependent string) error {
	return fmt.Errorf("%w: %s", ErrNoValidData, dependent)
}

// IsInputError reports whether err originates from a malformed request
func IsInputError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoValidData) ||
		errors.Is(err, ErrNoLevels) ||
		errors.Is(err, ErrEmptyModel) ||
		errors.Is(err, ErrUnknownContrast) ||
		errors.Is(err, ErrUnknownSSType) ||
		errors.Is(err, ErrUnknownAdjust) ||
		errors.Is(err, ErrInvalidModel) ||
		errors.Is(err, ErrInsufficientData)
}
