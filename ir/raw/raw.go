// Package raw is the in-memory model of PDF objects exactly as the file
// spells them: names, numbers, strings, arrays, dictionaries, streams and
// references, before any document-level interpretation.
package raw

import (
	"fmt"
	"math"
)

// ObjectRef uniquely identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
	IsIndirect() bool
}

// Name is a PDF name without its leading solidus. Values produced by a
// NameCache share storage with every other occurrence of the same name.
type Name string

func (n Name) Type() string     { return "name" }
func (n Name) IsIndirect() bool { return false }
func (n Name) Value() string    { return string(n) }

// Number is every PDF numeric value. Integers are stored exactly.
type Number float64

func Int(i int64) Number    { return Number(i) }
func Real(f float64) Number { return Number(f) }

func (n Number) Type() string     { return "number" }
func (n Number) IsIndirect() bool { return false }
func (n Number) Float() float64   { return float64(n) }
func (n Number) Int() int64       { return int64(math.Round(float64(n))) }

// IsInteger reports whether n has no fractional part.
func (n Number) IsInteger() bool {
	f := float64(n)
	return f == math.Trunc(f) && !math.IsInf(f, 0)
}

type Bool bool

const (
	True  = Bool(true)
	False = Bool(false)
)

func (b Bool) Type() string     { return "boolean" }
func (b Bool) IsIndirect() bool { return false }
func (b Bool) Value() bool      { return bool(b) }

type NullObj struct{}

// Null is the null object.
var Null = NullObj{}

func (NullObj) Type() string     { return "null" }
func (NullObj) IsIndirect() bool { return false }

// String keeps the decoded bytes of a string and the form it was written in.
type String struct {
	Bytes []byte
	Hex   bool
}

func Str(s string) String    { return String{Bytes: []byte(s)} }
func HexStr(b []byte) String { return String{Bytes: b, Hex: true} }

func (s String) Type() string     { return "string" }
func (s String) IsIndirect() bool { return false }
func (s String) Value() []byte    { return s.Bytes }
func (s String) IsHex() bool      { return s.Hex }

type Array struct{ Items []Object }

func NewArray(items ...Object) *Array { return &Array{Items: items} }

func (a *Array) Type() string     { return "array" }
func (a *Array) IsIndirect() bool { return false }
func (a *Array) Len() int         { return len(a.Items) }
func (a *Array) Append(o Object)  { a.Items = append(a.Items, o) }

func (a *Array) Get(i int) (Object, bool) {
	if i < 0 || i >= len(a.Items) {
		return nil, false
	}
	return a.Items[i], true
}

// Numbers returns the items as float64 values. ok is false if any item is
// not a number.
func (a *Array) Numbers() (out []float64, ok bool) {
	out = make([]float64, len(a.Items))
	for i, it := range a.Items {
		n, isNum := it.(Number)
		if !isNum {
			return nil, false
		}
		out[i] = float64(n)
	}
	return out, true
}

// Stream is a dictionary plus its still-encoded payload.
type Stream struct {
	Dict *Dict
	Data []byte
}

func NewStream(dict *Dict, data []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	return &Stream{Dict: dict, Data: data}
}

func (s *Stream) Type() string     { return "stream" }
func (s *Stream) IsIndirect() bool { return false }
func (s *Stream) RawData() []byte  { return s.Data }
func (s *Stream) Length() int64    { return int64(len(s.Data)) }

// Reference names an indirect object. It never holds the object itself.
type Reference struct {
	num, gen int
}

// NewRef returns a reference that is not shared with any cache.
func NewRef(num, gen int) *Reference { return &Reference{num: num, gen: gen} }

func (r *Reference) Type() string     { return "ref" }
func (r *Reference) IsIndirect() bool { return true }
func (r *Reference) Ref() ObjectRef   { return ObjectRef{Num: r.num, Gen: r.gen} }
func (r *Reference) Num() int         { return r.num }
func (r *Reference) Gen() int         { return r.gen }
func (r *Reference) String() string   { return r.Ref().String() }
