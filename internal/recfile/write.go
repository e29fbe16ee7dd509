package recfile

import (
	"context"
	"fmt"

	"github.com/S0me0neR0man/recaccess/internal/record"
)

// Write appends records to the file and assigns each its host record
// number. The records must not carry a number yet.
func (f *File) Write(ctx context.Context, recs ...*record.Record) error {
	if err := f.checkWrite(); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := f.checkRecord(rec); err != nil {
			return err
		}
		if rec.RecordNumber() != 0 {
			return fmt.Errorf("write %s: %w", f.opts.Name, record.ErrNumberAssigned)
		}
	}
	if len(recs) == 0 {
		return nil
	}

	f.cache.SetEmpty()
	nums, err := f.ch.Write(ctx, recs)
	if err != nil {
		return fmt.Errorf("write %s: %w", f.opts.Name, err)
	}
	if len(nums) != len(recs) {
		return fmt.Errorf("write %s: host assigned %d record numbers for %d records", f.opts.Name, len(nums), len(recs))
	}
	for i, rec := range recs {
		if err := rec.SetRecordNumber(nums[i]); err != nil {
			return err
		}
	}
	f.sugar.Debugw("write", "records", len(recs), "first", nums[0])
	return nil
}

// Update replaces the current record. Each update or delete needs a read
// or positioning before it.
func (f *File) Update(ctx context.Context, rec *record.Record) error {
	if err := f.checkUpdate(); err != nil {
		return err
	}
	if err := f.checkRecord(rec); err != nil {
		return err
	}

	f.cache.SetEmpty()
	f.updatable = false
	if err := f.ch.Update(ctx, rec); err != nil {
		return fmt.Errorf("update %s: %w", f.opts.Name, err)
	}
	f.sugar.Debugw("update", "record", f.current.RecordNumber())
	f.current = rec.Clone(f.current.RecordNumber())
	return nil
}

// DeleteCurrent deletes the current record.
func (f *File) DeleteCurrent(ctx context.Context) error {
	if err := f.checkUpdate(); err != nil {
		return err
	}

	f.cache.SetEmpty()
	f.updatable = false
	if err := f.ch.DeleteCurrent(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", f.opts.Name, err)
	}
	f.sugar.Debugw("delete", "record", f.current.RecordNumber())
	return nil
}

func (f *File) checkRecord(rec *record.Record) error {
	if rec == nil || !rec.Format().Equal(f.format) {
		return ErrFormat
	}
	return nil
}
