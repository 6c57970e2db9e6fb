package reactive

import "reflect"

// Equal reports whether two state values are equal. Comparable scalar
// kinds use ==; everything else uses reflect.DeepEqual. Non-nil funcs are
// never equal: closures of one literal share a code pointer but not their
// captured variables.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	switch ta.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a == b
	case reflect.Func:
		return reflect.ValueOf(a).IsNil() && reflect.ValueOf(b).IsNil()
	}
	return reflect.DeepEqual(a, b)
}

func equalOf[T any](a, b T) bool {
	return Equal(any(a), any(b))
}
