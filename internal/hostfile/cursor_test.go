package hostfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

func itemsFormat(t *testing.T) *record.Format {
	f, err := record.NewFormat("ITEMS", []record.FieldDesc{
		{Name: "ID", Type: record.TypeInteger},
		{Name: "NAME", Type: record.TypeVarText, Length: 32},
	})
	require.NoError(t, err)
	return f
}

func customersFormat(t *testing.T) *record.Format {
	f, err := record.NewFormat("CUSTOMERS", []record.FieldDesc{
		{Name: "REGION", Type: record.TypeFixedText, Length: 4},
		{Name: "NAME", Type: record.TypeVarText, Length: 32},
	}, "REGION")
	require.NoError(t, err)
	return f
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var he *host.Error
	require.True(t, errors.As(err, &he), "not a host error: %v", err)
	require.True(t, he.Has(code), "want %s, got %v", code, err)
}

func numbers(recs []*record.Record) []int64 {
	out := make([]int64, len(recs))
	for i, rec := range recs {
		out[i] = rec.RecordNumber()
	}
	return out
}

func newItems(t *testing.T, s *Store, count int) {
	f := itemsFormat(t)
	file, err := s.Create(FileSpec{Name: "ITEMS", Format: f})
	require.NoError(t, err)
	for i := 1; i <= count; i++ {
		rec, err := record.New(f, i, "item")
		require.NoError(t, err)
		_, err = file.Append(rec)
		require.NoError(t, err)
	}
}

func TestStore_CreateLookup(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	newItems(t, s, 0)

	_, err := s.Create(FileSpec{Name: "ITEMS", Format: itemsFormat(t)})
	requireCode(t, err, host.CodeFileExists)

	_, err = s.Lookup("NOPE")
	requireCode(t, err, host.CodeFileNotFound)

	_, err = s.Open("NOPE", host.ReadOnly, 1, -1)
	requireCode(t, err, host.CodeFileNotFound)

	_, err = s.Create(FileSpec{Name: "BAD", Format: itemsFormat(t), Keyed: true})
	requireCode(t, err, host.CodeNotKeyed)

	require.Equal(t, []string{"ITEMS"}, s.Names())
}

func TestCursor_ReadRecordsForward(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	newItems(t, s, 12)

	c, err := s.Open("ITEMS", host.ReadOnly, 5, -1)
	require.NoError(t, err)

	recs, err := c.ReadRecords(host.ReadFirst)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, numbers(recs))

	recs, err = c.ReadRecords(host.ReadNext)
	require.NoError(t, err)
	require.Equal(t, []int64{6, 7, 8, 9, 10}, numbers(recs))

	recs, err = c.ReadRecords(host.ReadNext)
	require.NoError(t, err)
	require.Equal(t, []int64{11, 12}, numbers(recs))

	recs, err = c.ReadRecords(host.ReadNext)
	require.NoError(t, err)
	require.Empty(t, recs)

	// cursor ran off the end: previous starts from the last record
	rec, err := c.ReadRecord(host.ReadPrevious)
	require.NoError(t, err)
	require.EqualValues(t, 12, rec.RecordNumber())
}

func TestCursor_ReadRecordsBackward(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	newItems(t, s, 12)

	c, err := s.Open("ITEMS", host.ReadOnly, 5, -1)
	require.NoError(t, err)

	recs, err := c.ReadRecords(host.ReadLast)
	require.NoError(t, err)
	require.Equal(t, []int64{12, 11, 10, 9, 8}, numbers(recs))

	// host cursor sits on the last record returned
	rec, err := c.ReadRecord(host.ReadSame)
	require.NoError(t, err)
	require.EqualValues(t, 8, rec.RecordNumber())

	rec, err = c.PositionToIndex(6)
	require.NoError(t, err)
	require.EqualValues(t, 6, rec.RecordNumber())

	recs, err = c.ReadRecords(host.ReadPrevious)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 4, 3, 2, 1}, numbers(recs))

	_, err = c.ReadRecord(host.ReadPrevious)
	requireCode(t, err, host.CodeEndOfFile)
	require.True(t, host.IsNotFound(err))
}

func TestCursor_PositionToIndexMiss(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	newItems(t, s, 3)

	c, err := s.Open("ITEMS", host.ReadOnly, 1, -1)
	require.NoError(t, err)

	_, err = c.PositionToIndex(4)
	requireCode(t, err, host.CodeRecordNotFound)

	_, err = c.PositionToKey([]any{1}, host.MatchEqual)
	requireCode(t, err, host.CodeNotKeyed)

	_, err = c.ReadRecord(host.ReadSame)
	requireCode(t, err, host.CodeNoCurrentRecord)
}

func TestCursor_KeyedAccessOrder(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	f := customersFormat(t)
	file, err := s.Create(FileSpec{Name: "CUSTOMERS", Format: f, Keyed: true})
	require.NoError(t, err)

	// arrival order differs from key order; duplicates keep arrival order
	for _, row := range [][]any{
		{"WEST", "w1"}, {"EAST", "e1"}, {"NORD", "n1"}, {"EAST", "e2"}, {"WEST", "w2"},
	} {
		rec, err := record.New(f, row...)
		require.NoError(t, err)
		_, err = file.Append(rec)
		require.NoError(t, err)
	}

	c, err := s.Open("CUSTOMERS", host.ReadOnly, 10, -1)
	require.NoError(t, err)

	recs, err := c.ReadRecords(host.ReadFirst)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4, 3, 1, 5}, numbers(recs))

	rec, err := c.PositionToKey([]any{"EAST"}, host.MatchEqual)
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.RecordNumber())

	rec, err = c.PositionToKey([]any{"EAST"}, host.MatchGreater)
	require.NoError(t, err)
	require.EqualValues(t, 3, rec.RecordNumber())

	rec, err = c.PositionToKey([]any{"WEST"}, host.MatchLess)
	require.NoError(t, err)
	require.EqualValues(t, 3, rec.RecordNumber())

	rec, err = c.PositionToKey([]any{"NORD"}, host.MatchLessOrEqual)
	require.NoError(t, err)
	require.EqualValues(t, 3, rec.RecordNumber())

	_, err = c.PositionToKey([]any{"SUED"}, host.MatchEqual)
	requireCode(t, err, host.CodeRecordNotFound)

	rec, err = c.PositionToKey([]any{"SUED"}, host.MatchGreaterOrEqual)
	require.NoError(t, err)
	require.EqualValues(t, 1, rec.RecordNumber())

	recs, err = c.ReadRecords(host.ReadPrevious)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4, 2}, numbers(recs))
}

func TestCursor_UpdateDelete(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	f := customersFormat(t)
	_, err := s.Create(FileSpec{Name: "CUSTOMERS", Format: f, Keyed: true, UniqueKeys: true})
	require.NoError(t, err)

	w, err := s.Open("CUSTOMERS", host.WriteOnly, 1, -1)
	require.NoError(t, err)
	var recs []*record.Record
	for _, region := range []string{"A", "B", "C"} {
		rec, err := record.New(f, region, "x")
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	nums, err := w.Write(recs)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, nums)

	_, err = w.Write(recs[:1])
	requireCode(t, err, host.CodeDuplicateKey)

	_, err = w.ReadRecord(host.ReadFirst)
	requireCode(t, err, host.CodeModeViolation)

	c, err := s.Open("CUSTOMERS", host.ReadWrite, 1, -1)
	require.NoError(t, err)

	err = c.Update(recs[0])
	requireCode(t, err, host.CodeNoCurrentRecord)

	_, err = c.ReadRecord(host.ReadFirst)
	require.NoError(t, err)

	moved, err := record.New(f, "D", "moved")
	require.NoError(t, err)
	require.NoError(t, c.Update(moved))

	rec, err := c.ReadRecord(host.ReadSame)
	require.NoError(t, err)
	require.EqualValues(t, 1, rec.RecordNumber())
	v, err := rec.Field("NAME")
	require.NoError(t, err)
	require.Equal(t, "moved", v)

	rec, err = c.ReadRecord(host.ReadPrevious)
	require.NoError(t, err)
	require.EqualValues(t, 3, rec.RecordNumber())

	require.NoError(t, c.DeleteCurrent())
	_, err = c.ReadRecord(host.ReadSame)
	requireCode(t, err, host.CodeNoCurrentRecord)

	rec, err = c.ReadRecord(host.ReadPrevious)
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.RecordNumber())

	file, err := s.Lookup("CUSTOMERS")
	require.NoError(t, err)
	require.Equal(t, 2, file.Len())

	c.Close()
	_, err = c.ReadRecord(host.ReadNext)
	requireCode(t, err, host.CodeModeViolation)
}

func TestStore_SeedDemo(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	require.NoError(t, s.SeedDemo(8))
	require.Equal(t, []string{"CUSTOMERS", "ITEMS"}, s.Names())

	items, err := s.Open("ITEMS", host.ReadOnly, 8, -1)
	require.NoError(t, err)
	recs, err := items.ReadRecords(host.ReadFirst)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, numbers(recs))
	price, err := recs[3].Field("PRICE")
	require.NoError(t, err)
	require.Equal(t, record.NewDecimal(500, 2), price)

	customers, err := s.Open("CUSTOMERS", host.ReadOnly, 8, -1)
	require.NoError(t, err)
	recs, err = customers.ReadRecords(host.ReadFirst)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 6, 1, 5, 4, 8, 3, 7}, numbers(recs), "EAST, NORD, SUD, WEST")

	require.Error(t, s.SeedDemo(8), "files exist")
}

func TestCursor_StepsFromDeletedRecord(t *testing.T) {
	s := NewStore(language.English, getTestLogger())
	newItems(t, s, 6)

	c, err := s.Open("ITEMS", host.ReadWrite, 1, -1)
	require.NoError(t, err)
	other, err := s.Open("ITEMS", host.ReadWrite, 1, -1)
	require.NoError(t, err)

	_, err = c.PositionToIndex(3)
	require.NoError(t, err)
	require.NoError(t, c.DeleteCurrent())
	_, err = other.PositionToIndex(4)
	require.NoError(t, err)
	require.NoError(t, other.DeleteCurrent())

	rec, err := c.ReadRecord(host.ReadNext)
	require.NoError(t, err)
	require.EqualValues(t, 5, rec.RecordNumber())
	rec, err = c.ReadRecord(host.ReadPrevious)
	require.NoError(t, err)
	require.EqualValues(t, 2, rec.RecordNumber())

	recs, err := other.ReadRecords(host.ReadPrevious)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, numbers(recs))

	var live []int64
	file, err := s.Lookup("ITEMS")
	require.NoError(t, err)
	file.Scan(func(r *record.Record) bool {
		live = append(live, r.RecordNumber())
		return true
	})
	require.Equal(t, []int64{1, 2, 5, 6}, live)
}
