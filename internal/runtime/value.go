package runtime

import "fmt"

// Tag is the inline discriminant of a Value. Heap tags share tagHeap so
// IsHeap is a single mask test.
type Tag uint8

const (
	TagUndefined Tag = 0
	TagInt       Tag = 1
	TagBool      Tag = 2

	tagHeap     Tag = 0x80
	TagStr      Tag = tagHeap | 1
	TagPair     Tag = tagHeap | 2
	TagFunction Tag = tagHeap | 3
)

// TypeName is the name used in runtime error messages.
func (t Tag) TypeName() string {
	switch t {
	case TagInt:
		return "int"
	case TagBool:
		return "bool"
	case TagStr:
		return "string"
	case TagPair:
		return "tuple"
	case TagFunction:
		return "function"
	case TagUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Handle indexes the heap. Slots are reused; Gen tells generations apart.
type Handle uint32

// Value is the universal runtime representation.
type Value struct {
	Tag Tag
	N   int64 // int payload; 0 or 1 for bools
	H   Handle
	Gen uint32
}

// Undefined is never observable by programs.
var Undefined = Value{}

func IntValue(n int64) Value { return Value{Tag: TagInt, N: n} }

func BoolValue(b bool) Value {
	if b {
		return Value{Tag: TagBool, N: 1}
	}
	return Value{Tag: TagBool}
}

// IsHeap reports whether v is refcounted.
func (v Value) IsHeap() bool { return v.Tag&tagHeap != 0 }

func (v Value) TypeName() string { return v.Tag.TypeName() }

// Int returns the payload of an int value without checking the tag.
func (v Value) Int() int64 { return v.N }

// Bool returns the payload of a bool value without checking the tag.
func (v Value) Bool() bool { return v.N != 0 }

func (v Value) String() string {
	switch v.Tag {
	case TagInt:
		return fmt.Sprintf("int(%d)", v.N)
	case TagBool:
		return fmt.Sprintf("bool(%t)", v.Bool())
	case TagUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("%s#%d.%d", v.TypeName(), v.H, v.Gen)
	}
}
