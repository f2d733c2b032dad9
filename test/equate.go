// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

package test

import (
	"reflect"
	"testing"
)

// Equate is used to test equality between one value and another. Generally,
// both values must be of the same type. The one exception is when the value
// is an integer of any width and the expected value is written as an untyped
// literal, which the Go language types as int. It is very convenient to be
// able to write:
//
//	var r uint16
//	r = someFunction()
//	test.Equate(t, r, 10)
//
// without having to cast the expected value.
func Equate(t *testing.T, value, expectedValue interface{}) {
	t.Helper()

	if value == nil || expectedValue == nil {
		if value != expectedValue {
			t.Errorf("equation failed (%v - wanted %v)", value, expectedValue)
		}
		return
	}

	v := reflect.ValueOf(value)
	ev := reflect.ValueOf(expectedValue)

	if v.Type() != ev.Type() {
		// allow an int literal to stand in for any integer type
		if ev.Kind() == reflect.Int {
			switch v.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				if v.Int() != ev.Int() {
					t.Errorf("equation of type %T failed (%d - wanted %d)", value, v.Int(), ev.Int())
				}
				return
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				if ev.Int() >= 0 && v.Uint() == uint64(ev.Int()) {
					return
				}
				t.Errorf("equation of type %T failed (%d - wanted %d)", value, v.Uint(), ev.Int())
				return
			}
		}
		t.Fatalf("values for Equate() are not the same type (%T and %T)", value, expectedValue)
		return
	}

	if !reflect.DeepEqual(value, expectedValue) {
		t.Errorf("equation of type %T failed (%v - wanted %v)", value, value, expectedValue)
	}
}
