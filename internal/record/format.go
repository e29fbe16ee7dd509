// Package record holds the in-memory record model: formats, typed field
// values and key comparison.
package record

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFieldCount     = errors.New("field count does not match format")
	ErrFieldType      = errors.New("field value does not match field type")
	ErrUnknownField   = errors.New("unknown field")
	ErrKeyTooLong     = errors.New("key has more fields than the format key")
	ErrNotKeyed       = errors.New("format has no key fields")
	ErrNumberAssigned = errors.New("record number already assigned")
	ErrDuplicateField = errors.New("duplicate field name")
)

type FieldType int

const (
	TypeInteger FieldType = iota
	TypeDecimal
	TypeFixedText
	TypeVarText
	TypeBytes
)

func (t FieldType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeDecimal:
		return "decimal"
	case TypeFixedText:
		return "fixed-text"
	case TypeVarText:
		return "var-text"
	case TypeBytes:
		return "bytes"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// FieldDesc describes one field. Length is the fixed width for
// TypeFixedText and the maximum length for TypeVarText and TypeBytes
// (0 means unbounded).
type FieldDesc struct {
	Name   string
	Type   FieldType
	Length int
}

// Format is the shared schema of every record a session produces.
// It is immutable once built.
type Format struct {
	name   string
	fields []FieldDesc
	index  map[string]int
	keys   []int
}

func NewFormat(name string, fields []FieldDesc, keyFields ...string) (*Format, error) {
	f := &Format{
		name:   name,
		fields: append([]FieldDesc(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, fd := range f.fields {
		if _, ok := f.index[fd.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, fd.Name)
		}
		f.index[fd.Name] = i
	}
	for _, kf := range keyFields {
		i, ok := f.index[kf]
		if !ok {
			return nil, fmt.Errorf("key %w: %s", ErrUnknownField, kf)
		}
		f.keys = append(f.keys, i)
	}
	return f, nil
}

func (f *Format) Name() string {
	return f.name
}

func (f *Format) NumFields() int {
	return len(f.fields)
}

func (f *Format) Field(i int) FieldDesc {
	return f.fields[i]
}

// Fields returns a copy of the field descriptions.
func (f *Format) Fields() []FieldDesc {
	return append([]FieldDesc(nil), f.fields...)
}

func (f *Format) IndexOf(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

func (f *Format) NumKeyFields() int {
	return len(f.keys)
}

func (f *Format) KeyField(i int) FieldDesc {
	return f.fields[f.keys[i]]
}

func (f *Format) KeyFieldNames() []string {
	names := make([]string, len(f.keys))
	for i, k := range f.keys {
		names[i] = f.fields[k].Name
	}
	return names
}

// Equal reports whether both formats describe the same layout.
func (f *Format) Equal(o *Format) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil || f.name != o.name || len(f.fields) != len(o.fields) || len(f.keys) != len(o.keys) {
		return false
	}
	for i := range f.fields {
		if f.fields[i] != o.fields[i] {
			return false
		}
	}
	for i := range f.keys {
		if f.keys[i] != o.keys[i] {
			return false
		}
	}
	return true
}

// NormalizeKey converts a (possibly partial) key into the canonical value
// types of the leading key fields.
func (f *Format) NormalizeKey(key []any) ([]any, error) {
	if len(f.keys) == 0 {
		return nil, ErrNotKeyed
	}
	if len(key) > len(f.keys) {
		return nil, fmt.Errorf("%w: %d > %d", ErrKeyTooLong, len(key), len(f.keys))
	}
	out := make([]any, len(key))
	for i, v := range key {
		nv, err := normalize(f.KeyField(i), v)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}

func (f *Format) String() string {
	var sb strings.Builder
	sb.WriteString(f.name)
	sb.WriteString("(")
	for i, fd := range f.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %s", fd.Name, fd.Type)
	}
	sb.WriteString(")")
	if len(f.keys) > 0 {
		fmt.Fprintf(&sb, " key%v", f.KeyFieldNames())
	}
	return sb.String()
}

func normalize(fd FieldDesc, v any) (any, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %s is %s, got %T", ErrFieldType, fd.Name, fd.Type, v)
	}
	switch fd.Type {
	case TypeInteger:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		}
	case TypeDecimal:
		switch x := v.(type) {
		case Decimal:
			return x, nil
		case int64:
			return NewDecimal(x, 0), nil
		case int:
			return NewDecimal(int64(x), 0), nil
		case string:
			return ParseDecimal(x)
		}
	case TypeFixedText:
		if s, ok := v.(string); ok {
			if fd.Length > 0 {
				if len(s) > fd.Length {
					return nil, fmt.Errorf("%w: %s longer than %d", ErrFieldType, fd.Name, fd.Length)
				}
				s += strings.Repeat(" ", fd.Length-len(s))
			}
			return s, nil
		}
	case TypeVarText:
		if s, ok := v.(string); ok {
			if fd.Length > 0 && len(s) > fd.Length {
				return nil, fmt.Errorf("%w: %s longer than %d", ErrFieldType, fd.Name, fd.Length)
			}
			return s, nil
		}
	case TypeBytes:
		if b, ok := v.([]byte); ok {
			if fd.Length > 0 && len(b) > fd.Length {
				return nil, fmt.Errorf("%w: %s longer than %d", ErrFieldType, fd.Name, fd.Length)
			}
			return append([]byte(nil), b...), nil
		}
	}
	return nil, mismatch()
}
