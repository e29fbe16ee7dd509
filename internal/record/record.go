package record

import (
	"bytes"
	"fmt"
	"strings"
)

// Record is one row of a file. Values follow the field order of its Format.
// The record number is 0 until the host assigns one.
type Record struct {
	format       *Format
	values       []any
	recordNumber int64
}

// New builds a record prepared for a write.
func New(format *Format, values ...any) (*Record, error) {
	return NewNumbered(format, 0, values...)
}

// NewNumbered builds a record as read from the host.
func NewNumbered(format *Format, recordNumber int64, values ...any) (*Record, error) {
	if len(values) != format.NumFields() {
		return nil, fmt.Errorf("%w: %s wants %d, got %d", ErrFieldCount, format.Name(), format.NumFields(), len(values))
	}
	r := &Record{
		format:       format,
		values:       make([]any, len(values)),
		recordNumber: recordNumber,
	}
	for i, v := range values {
		nv, err := normalize(format.Field(i), v)
		if err != nil {
			return nil, err
		}
		r.values[i] = nv
	}
	return r, nil
}

func (r *Record) Format() *Format {
	return r.format
}

func (r *Record) RecordNumber() int64 {
	return r.recordNumber
}

// SetRecordNumber records the number the host assigned on write.
func (r *Record) SetRecordNumber(n int64) error {
	if r.recordNumber != 0 {
		return fmt.Errorf("%w: %d", ErrNumberAssigned, r.recordNumber)
	}
	r.recordNumber = n
	return nil
}

func (r *Record) NumFields() int {
	return len(r.values)
}

func (r *Record) Value(i int) any {
	return r.values[i]
}

func (r *Record) Field(name string) (any, error) {
	i, ok := r.format.IndexOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return r.values[i], nil
}

// Values returns a copy of the field values.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	for i, v := range r.values {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[i] = v
	}
	return out
}

// Key returns the key field values in key order.
func (r *Record) Key() []any {
	key := make([]any, r.format.NumKeyFields())
	for i := range key {
		key[i] = r.values[r.format.keys[i]]
	}
	return key
}

// Clone returns a copy carrying the given record number.
func (r *Record) Clone(recordNumber int64) *Record {
	return &Record{format: r.format, values: r.Values(), recordNumber: recordNumber}
}

// Equal compares the record number and every field value.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.recordNumber != o.recordNumber || len(r.values) != len(o.values) {
		return false
	}
	for i := range r.values {
		if !valueEqual(r.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

func (r *Record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d{", r.recordNumber)
	for i, v := range r.values {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%v", r.format.Field(i).Name, v)
	}
	sb.WriteString("}")
	return sb.String()
}

func valueEqual(a, b any) bool {
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case Decimal:
		y, ok := b.(Decimal)
		return ok && x.Cmp(y) == 0
	}
	return a == b
}
