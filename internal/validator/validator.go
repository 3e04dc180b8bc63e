package validator

import (
	"fmt"
	"reflect"
)

// Validate reports an error when any required dependency of a component is
// missing: nil for pointer-like kinds, the zero value otherwise.
func Validate(name string, deps ...any) error {
	for _, dep := range deps {
		v := reflect.ValueOf(dep)
		if !v.IsValid() {
			return fmt.Errorf("missing required deps for component: %s", name)
		}

		var missing bool
		switch v.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
			missing = v.IsNil()
		default:
			missing = v.IsZero()
		}
		if missing {
			return fmt.Errorf("missing required deps for component: %s", name)
		}
	}

	return nil
}
