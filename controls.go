package pixfx

import (
	"fmt"
	"slices"
)

// Control represents an editable parameter of an effect.
// When the value is modified via ChangeValue the effect picks it up on its next render.
type Control interface {
	// Display/human readable name and description.
	Describe() (name, description string)
	// ActualValue returns the current value of the control.
	ActualValue() any
	// ChangeValue attempts to update the ActualValue to newValue.
	ChangeValue(newValue any) error
}

type integer interface {
	~int | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

// enum best generated with stringer commands.
type enum interface {
	integer
	fmt.Stringer
}

// ControlEnum maps to dropdown kind of list.
type ControlEnum[T enum] struct {
	Name        string
	Description string
	Value       T
	ValidValues []T
	OnChange    func(T) error
}

func (ce *ControlEnum[T]) Describe() (name, description string) {
	return ce.Name, ce.Description
}

func (ce *ControlEnum[T]) ActualValue() any {
	return ce.Value
}

func (ce *ControlEnum[T]) ChangeValue(newValue any) error {
	v, ok := newValue.(T)
	if !ok {
		return fmt.Errorf("new value %T not of type %T", newValue, ce.Value)
	}
	if !slices.Contains(ce.ValidValues, v) {
		return fmt.Errorf("value %v of %T not valid", v, v)
	}
	if ce.OnChange != nil {
		if err := ce.OnChange(v); err != nil {
			return err
		}
	}
	ce.Value = v
	return nil
}
