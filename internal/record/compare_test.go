package record

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func keyed(t *testing.T, fd FieldDesc) *Format {
	f, err := NewFormat("K", []FieldDesc{fd, {Name: "SEQ", Type: TypeInteger}}, fd.Name)
	require.NoError(t, err)
	return f
}

func TestComparer_CompareKeys(t *testing.T) {
	c := NewComparer(language.English)

	tests := []struct {
		name   string
		field  FieldDesc
		anchor any
		value  any
		want   KeyRelation
	}{
		{"bytes shorter anchor", FieldDesc{Name: "B", Type: TypeBytes}, []byte{9}, []byte{0, 0}, KeyLessThan},
		{"bytes longer anchor", FieldDesc{Name: "B", Type: TypeBytes}, []byte{0, 0}, []byte{9}, KeyMoreThan},
		{"bytes same length", FieldDesc{Name: "B", Type: TypeBytes}, []byte{1, 2}, []byte{1, 3}, KeyLessThan},
		{"bytes equal", FieldDesc{Name: "B", Type: TypeBytes}, []byte{1, 2}, []byte{1, 2}, KeyEqual},
		{"text collated", FieldDesc{Name: "T", Type: TypeVarText}, "a", "B", KeyLessThan},
		{"text collated reverse", FieldDesc{Name: "T", Type: TypeVarText}, "b", "A", KeyMoreThan},
		{"text blank padded", FieldDesc{Name: "T", Type: TypeVarText}, "abc", "abc  ", KeyEqual},
		{"decimal numeric", FieldDesc{Name: "D", Type: TypeDecimal}, NewDecimal(15, 1), NewDecimal(150, 2), KeyEqual},
		{"decimal less", FieldDesc{Name: "D", Type: TypeDecimal}, NewDecimal(-1, 0), NewDecimal(0, 0), KeyLessThan},
		{"integer equal", FieldDesc{Name: "I", Type: TypeInteger}, int64(4), int64(4), KeyEqual},
		{"integer unordered", FieldDesc{Name: "I", Type: TypeInteger}, int64(4), int64(5), KeyUnknown},
		{"fixed text unordered", FieldDesc{Name: "F", Type: TypeFixedText, Length: 2}, "AA", "BB", KeyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := keyed(t, tt.field)
			rec, err := New(f, tt.value, 1)
			require.NoError(t, err)
			require.Equal(t, tt.want, c.CompareKeys([]any{tt.anchor}, rec))
		})
	}
}

func TestComparer_PartialKey(t *testing.T) {
	c := NewComparer(language.Und)
	f, err := NewFormat("K", []FieldDesc{
		{Name: "A", Type: TypeVarText},
		{Name: "B", Type: TypeDecimal},
	}, "A", "B")
	require.NoError(t, err)

	rec, err := New(f, "north", "2.5")
	require.NoError(t, err)

	require.Equal(t, KeyEqual, c.CompareKeys([]any{"north"}, rec))
	require.Equal(t, KeyMoreThan, c.CompareKeys([]any{"north", NewDecimal(3, 0)}, rec))
	require.Equal(t, KeyLessThan, c.CompareKeys([]any{"east", NewDecimal(3, 0)}, rec))
	require.Equal(t, KeyEqual, c.CompareKeys(nil, rec))
}

func TestComparer_OrderKeys(t *testing.T) {
	c := NewComparer(language.English)
	f, err := NewFormat("K", []FieldDesc{
		{Name: "I", Type: TypeInteger},
		{Name: "F", Type: TypeFixedText, Length: 3},
		{Name: "B", Type: TypeBytes},
	}, "I", "F", "B")
	require.NoError(t, err)

	require.Equal(t, -1, c.OrderKeys(f, []any{int64(1)}, []any{int64(2)}))
	require.Equal(t, 1, c.OrderKeys(f, []any{int64(2), "B  "}, []any{int64(2), "A  "}))
	require.Equal(t, 0, c.OrderKeys(f, []any{int64(2)}, []any{int64(2), "A  "}), "prefix compares equal")
	require.Equal(t, -1, c.OrderKeys(f, []any{int64(2), "A  ", []byte{9}}, []any{int64(2), "A  ", []byte{0, 0}}))
}
