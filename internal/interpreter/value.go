package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the dynamic type of a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	}
	return "unknown"
}

// List is a mutable sequence shared by every Value that refers to it,
// so `b = a` followed by `a.append(x)` is visible through b.
type List struct {
	items []Value
}

// Value is one entry of the simulated environment.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	list *List
}

// IntValue wraps an int.
func IntValue(n int64) Value { return Value{kind: KindInt, i: n} }

// FloatValue wraps a float.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ListValue builds a new list holding copies of items.
func ListValue(items ...Value) Value {
	return Value{kind: KindList, list: &List{items: append([]Value{}, items...)}}
}

// BoolValue wraps a bool.
func BoolValue(b bool) Value {
	if b {
		return Value{kind: KindBool, i: 1}
	}
	return Value{kind: KindBool}
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload; bools report 0 or 1.
func (v Value) Int() int64 { return v.i }

// Float returns the value as a float64 for numeric kinds.
func (v Value) Float() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return float64(v.i)
}

// Str returns the string payload.
func (v Value) Str() string { return v.s }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.i != 0 }

// Items returns a copy of a list's elements.
func (v Value) Items() []Value {
	if v.list == nil {
		return nil
	}
	return append([]Value{}, v.list.items...)
}

// Len is the number of list elements or string runes.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list.items)
	case KindString:
		return len([]rune(v.s))
	}
	return 0
}

func (v Value) isNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat || v.kind == KindBool
}

// Truthy follows Python truthiness.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list.items) > 0
	}
	return v.i != 0
}

// maxNestDepth bounds recursion through lists that contain lists.
const maxNestDepth = 64

// Equal compares like Python ==: numbers across int/float, lists element-wise.
func (v Value) Equal(o Value) bool {
	return v.equal(o, 0)
}

func (v Value) equal(o Value, depth int) bool {
	if v.isNumeric() && o.isNumeric() {
		if v.kind == KindFloat || o.kind == KindFloat {
			return v.Float() == o.Float()
		}
		return v.i == o.i
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindList:
		if v.list == o.list {
			return true
		}
		if len(v.list.items) != len(o.list.items) || depth >= maxNestDepth {
			return false
		}
		for i := range v.list.items {
			if !v.list.items[i].equal(o.list.items[i], depth+1) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value the way print() shows it.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindBool:
		if v.i != 0 {
			return "True"
		}
		return "False"
	case KindList:
		var b strings.Builder
		writeList(&b, v.list, map[*List]bool{})
		return b.String()
	}
	return ""
}

// writeList renders a list like Python, printing [...] for a list that
// contains itself. Output stops shortly after maxValueLen bytes, since shared
// sublists can make the full text exponentially long.
func writeList(b *strings.Builder, l *List, open map[*List]bool) {
	if open[l] {
		b.WriteString("[...]")
		return
	}
	open[l] = true
	defer delete(open, l)

	b.WriteByte('[')
	for i, item := range l.items {
		if b.Len() > maxValueLen {
			b.WriteString("...")
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		if item.kind == KindList {
			writeList(b, item.list, open)
		} else {
			b.WriteString(item.Repr())
		}
	}
	b.WriteByte(']')
}

// Repr renders the value as it appears inside a printed list.
func (v Value) Repr() string {
	if v.kind != KindString {
		return v.String()
	}
	quote := "'"
	if strings.Contains(v.s, "'") && !strings.Contains(v.s, `"`) {
		quote = `"`
	}
	var b strings.Builder
	b.WriteString(quote)
	for _, r := range v.s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case string(r) == quote:
			b.WriteString(`\` + quote)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(quote)
	return b.String()
}

// GoString keeps %#v output readable in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.Repr())
}

// formatFloat mirrors Python's float repr: 20.0, 2.5, 1e+16.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
