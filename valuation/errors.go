package valuation

import "fmt"

// UnknownAreaError is returned when the requested area has no base rate.
type UnknownAreaError struct {
	Area string
}

func (e *UnknownAreaError) Error() string {
	return fmt.Sprintf("valuation: unknown area %q", e.Area)
}

// UnknownPropertyTypeError is returned when an area is priced per property
// type and the requested type is missing or not priced there.
type UnknownPropertyTypeError struct {
	Area         string
	PropertyType string
}

func (e *UnknownPropertyTypeError) Error() string {
	if e.PropertyType == "" {
		return fmt.Sprintf("valuation: area %q requires a property type", e.Area)
	}
	return fmt.Sprintf("valuation: no rate for property type %q in area %q", e.PropertyType, e.Area)
}

// InvalidSizeError is returned for a size that is not a positive finite number.
type InvalidSizeError struct {
	Size float64
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("valuation: size must be positive, got %v", e.Size)
}
