package ledger

import "reflect"

// reflectSliceOf wraps v in a slice of its own (possibly anonymous) type.
func reflectSliceOf(v any) any {
	rv := reflect.ValueOf(v)
	s := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 0, 1)
	return reflect.Append(s, rv).Interface()
}
