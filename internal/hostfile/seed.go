package hostfile

import (
	"fmt"

	"github.com/S0me0neR0man/recaccess/internal/record"
)

var regions = []string{"NORD", "EAST", "WEST", "SUD"}

// SeedDemo creates ITEMS, an arrival sequence file, and CUSTOMERS, keyed
// by a non-unique REGION, with count records each.
func (s *Store) SeedDemo(count int) error {
	items, err := record.NewFormat("ITEMS", []record.FieldDesc{
		{Name: "ID", Type: record.TypeInteger},
		{Name: "NAME", Type: record.TypeVarText, Length: 32},
		{Name: "PRICE", Type: record.TypeDecimal},
		{Name: "TAG", Type: record.TypeBytes, Length: 4},
	})
	if err != nil {
		return err
	}
	customers, err := record.NewFormat("CUSTOMERS", []record.FieldDesc{
		{Name: "REGION", Type: record.TypeFixedText, Length: 4},
		{Name: "NAME", Type: record.TypeVarText, Length: 32},
		{Name: "BALANCE", Type: record.TypeDecimal},
	}, "REGION")
	if err != nil {
		return err
	}

	seed := func(spec FileSpec, row func(i int) []any) error {
		f, err := s.Create(spec)
		if err != nil {
			return err
		}
		recs := make([]*record.Record, 0, count)
		for i := 1; i <= count; i++ {
			rec, err := record.New(spec.Format, row(i)...)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		_, err = f.Append(recs...)
		return err
	}

	err = seed(FileSpec{Name: "ITEMS", Format: items}, func(i int) []any {
		return []any{i, fmt.Sprintf("item %03d", i), record.NewDecimal(int64(i*125), 2), []byte{byte(i)}}
	})
	if err != nil {
		return err
	}
	return seed(FileSpec{Name: "CUSTOMERS", Format: customers, Keyed: true}, func(i int) []any {
		return []any{regions[(i-1)%len(regions)], fmt.Sprintf("customer %03d", i), record.NewDecimal(int64(i*1000-5000), 2)}
	})
}
