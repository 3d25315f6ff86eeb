package expr

import "strings"

// Value is a sealed interface representing one node of a query
// expression tree. Only Null, Bool, Int, Float, String, Array and
// Object implement it.
type Value interface {
	exprValue() // Sealed - only types in this package implement it
}

// Null represents a JSON null.
// An explicit type rather than a nil Value, so that decoded trees never
// contain untyped nils.
type Null struct{}

func (Null) exprValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) exprValue() {}

// Int represents an integral number. Always int64.
type Int int64

func (Int) exprValue() {}

// Float represents a non-integral number.
type Float float64

func (Float) exprValue() {}

// String represents a string value.
type String string

func (String) exprValue() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) exprValue() {}

// Field is one key/value entry of an Object.
type Field struct {
	Key string
	Val Value
}

// Object represents a mapping from string keys to values. Entries keep
// the order of the source they were decoded from; keys are unique.
type Object []Field

func (Object) exprValue() {}

// Special returns the first key beginning with '$' together with its
// value. Keys starting with '$' denote operators rather than property
// names; at most one per object is recognized.
func (o Object) Special() (key string, val Value, ok bool) {
	for _, f := range o {
		if strings.HasPrefix(f.Key, "$") {
			return f.Key, f.Val, true
		}
	}
	return "", nil, false
}

// Get returns the value for key, or nil if absent.
func (o Object) Get(key string) Value {
	for _, f := range o {
		if f.Key == key {
			return f.Val
		}
	}
	return nil
}
