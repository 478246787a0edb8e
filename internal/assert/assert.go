// Package assert holds constructor-time checks for programmer errors. They panic,
// so they belong where a wrong value means the binary was wired incorrectly.
package assert

import (
	"fmt"
	"reflect"
)

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NotNil panics if value is nil, including a nil pointer stored in an interface.
func NotNil(value any, name string) {
	if isNil(value) {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
}

func NotEmptyStr(str, name string) {
	if str == "" {
		panic(fmt.Sprintf("%s must not be empty", name))
	}
}
