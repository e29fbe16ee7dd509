package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testFormat(t *testing.T) *Format {
	f, err := NewFormat("ORDERS", []FieldDesc{
		{Name: "REGION", Type: TypeFixedText, Length: 4},
		{Name: "CUSTOMER", Type: TypeVarText, Length: 16},
		{Name: "AMOUNT", Type: TypeDecimal},
		{Name: "QTY", Type: TypeInteger},
		{Name: "TAG", Type: TypeBytes, Length: 2},
	}, "REGION", "CUSTOMER")
	require.NoError(t, err)
	return f
}

func TestNewFormat(t *testing.T) {
	f := testFormat(t)
	require.Equal(t, "ORDERS", f.Name())
	require.Equal(t, 5, f.NumFields())
	require.Equal(t, 2, f.NumKeyFields())
	require.Equal(t, []string{"REGION", "CUSTOMER"}, f.KeyFieldNames())
	require.Equal(t, TypeVarText, f.KeyField(1).Type)
	i, ok := f.IndexOf("QTY")
	require.True(t, ok)
	require.Equal(t, 3, i)
	require.True(t, f.Equal(testFormat(t)))
	require.Contains(t, f.String(), "key[REGION CUSTOMER]")

	_, err := NewFormat("X", []FieldDesc{{Name: "A"}, {Name: "A"}})
	require.ErrorIs(t, err, ErrDuplicateField)
	_, err = NewFormat("X", []FieldDesc{{Name: "A"}}, "B")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestRecord_New(t *testing.T) {
	f := testFormat(t)

	rec, err := New(f, "EU", "acme", "12.50", 3, []byte{1, 2})
	require.NoError(t, err)
	require.EqualValues(t, 0, rec.RecordNumber())
	require.Equal(t, "EU  ", rec.Value(0), "fixed text is blank padded")
	require.Equal(t, NewDecimal(1250, 2), rec.Value(2))
	require.Equal(t, int64(3), rec.Value(3))
	require.Equal(t, []any{"EU  ", "acme"}, rec.Key())

	v, err := rec.Field("CUSTOMER")
	require.NoError(t, err)
	require.Equal(t, "acme", v)
	_, err = rec.Field("NOPE")
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = New(f, "EU", "acme")
	require.ErrorIs(t, err, ErrFieldCount)
	_, err = New(f, "EUROPE", "acme", "1", 1, []byte{})
	require.ErrorIs(t, err, ErrFieldType)
	_, err = New(f, "EU", "acme", 1.5, 1, []byte{})
	require.ErrorIs(t, err, ErrFieldType)
	_, err = New(f, "EU", "acme", "1", 1, []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrFieldType)
}

func TestRecord_RecordNumber(t *testing.T) {
	f := testFormat(t)
	rec, err := New(f, "EU", "acme", 1, 1, []byte{})
	require.NoError(t, err)

	require.NoError(t, rec.SetRecordNumber(7))
	require.EqualValues(t, 7, rec.RecordNumber())
	require.ErrorIs(t, rec.SetRecordNumber(8), ErrNumberAssigned)

	clone := rec.Clone(9)
	require.EqualValues(t, 9, clone.RecordNumber())
	require.False(t, clone.Equal(rec))
	require.True(t, clone.Equal(rec.Clone(9)))
}

func TestRecord_ValuesAreCopies(t *testing.T) {
	f := testFormat(t)
	tag := []byte{1, 2}
	rec, err := New(f, "EU", "acme", 1, 1, tag)
	require.NoError(t, err)

	tag[0] = 9
	require.Equal(t, []byte{1, 2}, rec.Value(4))

	values := rec.Values()
	values[4].([]byte)[0] = 9
	require.Equal(t, []byte{1, 2}, rec.Value(4))
}

func TestFormat_NormalizeKey(t *testing.T) {
	f := testFormat(t)

	key, err := f.NormalizeKey([]any{"EU"})
	require.NoError(t, err)
	require.Equal(t, []any{"EU  "}, key)

	_, err = f.NormalizeKey([]any{"EU", "acme", 1})
	require.ErrorIs(t, err, ErrKeyTooLong)

	plain, err := NewFormat("PLAIN", []FieldDesc{{Name: "A", Type: TypeInteger}})
	require.NoError(t, err)
	_, err = plain.NormalizeKey([]any{1})
	require.ErrorIs(t, err, ErrNotKeyed)
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want Decimal
		str  string
	}{
		{in: "1.50", want: NewDecimal(150, 2), str: "1.50"},
		{in: "-0.5", want: NewDecimal(-5, 1), str: "-0.5"},
		{in: "42", want: NewDecimal(42, 0), str: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, d)
			require.Equal(t, tt.str, d.String())
		})
	}

	for _, bad := range []string{"", "1.2.3", "1.-5", "abc"} {
		_, err := ParseDecimal(bad)
		require.ErrorIs(t, err, ErrBadDecimal, bad)
	}

	require.Zero(t, NewDecimal(15, 1).Cmp(NewDecimal(150, 2)))
	require.Equal(t, -1, NewDecimal(149, 2).Cmp(NewDecimal(15, 1)))
	require.Equal(t, 1, NewDecimal(2, -1).Cmp(NewDecimal(19, 0)))
}
