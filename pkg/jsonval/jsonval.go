// Package jsonval provides a JSON variant type that round-trips structurally:
// object member order and exact number text are preserved, so a value decoded
// from a payload marshals back to the same document.
package jsonval

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "invalid"
}

// Member is a single key/value pair of an Object. Members keep the order in
// which they appeared in the source document.
type Member struct {
	Key   string
	Value Value
}

// Value is a tagged union over the JSON value kinds. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	num  string // exact decimal text as it appeared on the wire
	str  string
	arr  []Value
	obj  []Member
}

func OfBool(b bool) Value      { return Value{kind: Bool, b: b} }
func OfString(s string) Value  { return Value{kind: String, str: s} }
func OfArray(v ...Value) Value { return Value{kind: Array, arr: v} }

// OfNumber builds a Number from its decimal text. The text is not checked
// here; invalid text surfaces as a marshal error.
func OfNumber(text string) Value { return Value{kind: Number, num: text} }

func OfInt(i int64) Value { return Value{kind: Number, num: strconv.FormatInt(i, 10)} }

func OfObject(members ...Member) Value { return Value{kind: Object, obj: members} }

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// BoolValue returns the boolean payload; false for non-Bool values.
func (v Value) BoolValue() bool { return v.kind == Bool && v.b }

// NumberText returns the exact decimal text of a Number.
func (v Value) NumberText() string { return v.num }

// Float64 converts a Number to float64.
func (v Value) Float64() (float64, error) {
	if v.kind != Number {
		return 0, fmt.Errorf("jsonval: Float64 on %s value", v.kind)
	}
	return strconv.ParseFloat(v.num, 64)
}

// StringValue returns the string payload; empty for non-String values.
func (v Value) StringValue() string { return v.str }

// Items returns the elements of an Array.
func (v Value) Items() []Value { return v.arr }

// Members returns the ordered members of an Object.
func (v Value) Members() []Member { return v.obj }

// Get looks up an Object member by key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		if _, err := strconv.ParseFloat(v.num, 64); err != nil {
			return fmt.Errorf("jsonval: invalid number text %q", v.num)
		}
		buf.WriteString(v.num)
	case String:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("jsonval: invalid kind %d", v.kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err == nil {
		return errors.New("jsonval: trailing data after value")
	}
	*v = parsed
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("jsonval: object key is %T", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Value{}, err
			}
			return Value{kind: Object, obj: members}, nil
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return Value{kind: Array, arr: items}, nil
		}
		return Value{}, fmt.Errorf("jsonval: unexpected delimiter %v", t)
	case bool:
		return Value{kind: Bool, b: t}, nil
	case json.Number:
		return Value{kind: Number, num: t.String()}, nil
	case string:
		return Value{kind: String, str: t}, nil
	case nil:
		return Value{}, nil
	}
	return Value{}, fmt.Errorf("jsonval: unexpected token %T", tok)
}
