// Package assert panics on programming errors in constructors.
package assert

import (
	"fmt"
	"reflect"
)

// NotNil also catches typed nils stored in an interface, ex. a nil
// *telemetry.Recorder passed as a telemetry.API.
func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			panic(fmt.Sprintf("expected value of type %T to be not nil", value))
		}
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}
