package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxPresets caps the relationship preset table.
	MaxPresets = 20
	// MaxKeyboardPresets is how many presets are reachable by digit keys.
	MaxKeyboardPresets = 9
	// MinViewLayers and MaxViewLayers bound the focus traversal radius.
	MinViewLayers  = 1
	MaxViewLayers  = 7
	MaxLabelLength = 200
)

var (
	ErrEmptyPresetValue     = errors.New("preset value must not be empty")
	ErrDuplicatePresetValue = errors.New("preset value is not unique")
	ErrTooManyPresets       = errors.New("too many presets")
	ErrViewLayersOutOfRange = errors.New("view layers out of range")
)

func init() {
	validate = validator.New()
}

// Struct validates v against its `validate` tags and returns the first
// failure as a field-level message.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// PresetValues checks the semantic rules of a preset table that struct tags
// cannot express: non-empty values, uniqueness and the cardinality cap.
func PresetValues(values []string) error {
	if len(values) > MaxPresets {
		return fmt.Errorf("%w: %d exceeds maximum of %d", ErrTooManyPresets, len(values), MaxPresets)
	}
	seen := make(map[string]int, len(values))
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w (index %d)", ErrEmptyPresetValue, i)
		}
		if prev, ok := seen[v]; ok {
			return fmt.Errorf("%w: %q at index %d and %d", ErrDuplicatePresetValue, v, prev, i)
		}
		seen[v] = i
	}
	return nil
}

// ViewLayers validates the focus traversal radius.
func ViewLayers(n int) error {
	if n < MinViewLayers || n > MaxViewLayers {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrViewLayersOutOfRange, n, MinViewLayers, MaxViewLayers)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "len":
			return fmt.Errorf("%s: must have length %s", field, param)
		case "hexcolor":
			return fmt.Errorf("%s: must be a hex color", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
