package recfile

import (
	"context"
	"fmt"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

func readType(dir host.Direction) host.ReadType {
	if dir == host.Backward {
		return host.ReadPrevious
	}
	return host.ReadNext
}

// ReadFirst reads the first record of the file.
func (f *File) ReadFirst(ctx context.Context) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if !f.cacheRecords {
		return f.land(f.ch.ReadRecord(ctx, host.ReadFirst))
	}
	if rec := f.cache.First(); rec != nil {
		f.sugar.Debugw("cache hit", "op", "first", "record", rec.RecordNumber())
		return f.land(rec, nil)
	}
	return f.land(f.fill(ctx, host.ReadFirst))
}

// ReadLast reads the last record of the file.
func (f *File) ReadLast(ctx context.Context) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if !f.cacheRecords {
		return f.land(f.ch.ReadRecord(ctx, host.ReadLast))
	}
	if rec := f.cache.Last(); rec != nil {
		f.sugar.Debugw("cache hit", "op", "last", "record", rec.RecordNumber())
		return f.land(rec, nil)
	}
	return f.land(f.fill(ctx, host.ReadLast))
}

// ReadNext reads the record after the current one, nil at end of file.
func (f *File) ReadNext(ctx context.Context) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if !f.cacheRecords {
		return f.land(f.ch.ReadRecord(ctx, host.ReadNext))
	}
	return f.land(f.step(ctx, host.Forward))
}

// ReadPrevious reads the record before the current one, nil at start of file.
func (f *File) ReadPrevious(ctx context.Context) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if !f.cacheRecords {
		return f.land(f.ch.ReadRecord(ctx, host.ReadPrevious))
	}
	return f.land(f.step(ctx, host.Backward))
}

// Read reads the record with the given record number. A miss seeds the
// window with that record alone.
func (f *File) Read(ctx context.Context, recordNumber int64) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if !f.cacheRecords {
		return f.land(f.ch.PositionCursorToIndex(ctx, recordNumber))
	}
	if !f.opts.Keyed && f.cache.SetPosition(recordNumber) {
		rec := f.cache.Current()
		f.sugar.Debugw("cache hit", "op", "read", "record", recordNumber)
		return f.land(rec, nil)
	}

	rec, err := f.reposition(f.toIndex(ctx, recordNumber))
	if err != nil {
		return f.land(nil, err)
	}
	f.cache.Add(rec, false)
	return f.land(rec, nil)
}

// ReadKey reads the record selected by key and m. The window stays empty
// until the next directional read refills it.
func (f *File) ReadKey(ctx context.Context, key []any, m host.Match) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	return f.land(f.reposition(f.toKey(ctx, key, m)))
}

// reposition empties the window and runs a host positioning call. A
// not-found answer leaves the host cursor where it was, so the window and
// its cursor are put back.
func (f *File) reposition(call func() (*record.Record, error)) (*record.Record, error) {
	saved := f.cache.Save()
	f.cache.SetEmpty()
	rec, err := call()
	if err != nil && host.IsNotFound(err) {
		f.cache.Restore(saved)
	}
	return rec, err
}

func (f *File) toIndex(ctx context.Context, recordNumber int64) func() (*record.Record, error) {
	return func() (*record.Record, error) {
		return f.ch.PositionCursorToIndex(ctx, recordNumber)
	}
}

func (f *File) toKey(ctx context.Context, key []any, m host.Match) func() (*record.Record, error) {
	return func() (*record.Record, error) {
		return f.ch.PositionCursorToKey(ctx, key, m)
	}
}

// ReadAfter reads the record following the first record with key.
func (f *File) ReadAfter(ctx context.Context, key []any) (*record.Record, error) {
	if rec, err := f.ReadKey(ctx, key, host.MatchEqual); rec == nil || err != nil {
		return rec, err
	}
	return f.ReadNext(ctx)
}

// ReadBefore reads the record preceding the first record with key.
func (f *File) ReadBefore(ctx context.Context, key []any) (*record.Record, error) {
	if rec, err := f.ReadKey(ctx, key, host.MatchEqual); rec == nil || err != nil {
		return rec, err
	}
	return f.ReadPrevious(ctx)
}

// ReadAfterRecord reads the record following record number n.
func (f *File) ReadAfterRecord(ctx context.Context, recordNumber int64) (*record.Record, error) {
	if rec, err := f.readIndex(ctx, recordNumber); rec == nil || err != nil {
		return rec, err
	}
	return f.ReadNext(ctx)
}

// ReadBeforeRecord reads the record preceding record number n.
func (f *File) ReadBeforeRecord(ctx context.Context, recordNumber int64) (*record.Record, error) {
	if rec, err := f.readIndex(ctx, recordNumber); rec == nil || err != nil {
		return rec, err
	}
	return f.ReadPrevious(ctx)
}

// readIndex moves the host cursor to n and leaves the window empty unless
// n is not found.
func (f *File) readIndex(ctx context.Context, recordNumber int64) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	return f.land(f.reposition(f.toIndex(ctx, recordNumber)))
}

// ReadNextEqual scans forward for the next record whose leading key fields
// equal key. It returns nil once the scan passes key or hits end of file.
func (f *File) ReadNextEqual(ctx context.Context, key []any) (*record.Record, error) {
	return f.scanEqual(ctx, key, host.Forward)
}

// ReadPreviousEqual is the backward mirror of ReadNextEqual.
func (f *File) ReadPreviousEqual(ctx context.Context, key []any) (*record.Record, error) {
	return f.scanEqual(ctx, key, host.Backward)
}

// ReadNextEqualCurrent scans forward for the next record with the key of
// the current record.
func (f *File) ReadNextEqualCurrent(ctx context.Context) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if f.current == nil {
		return nil, ErrNoCurrentRecord
	}
	return f.scanEqual(ctx, f.current.Key(), host.Forward)
}

// ReadPreviousEqualCurrent scans backward for the previous record with the
// key of the current record.
func (f *File) ReadPreviousEqualCurrent(ctx context.Context) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	if f.current == nil {
		return nil, ErrNoCurrentRecord
	}
	return f.scanEqual(ctx, f.current.Key(), host.Backward)
}

// scanEqual steps in dir until the anchor compares equal. Records the
// anchor still lies beyond, or that cannot be ordered, are skipped.
func (f *File) scanEqual(ctx context.Context, key []any, dir host.Direction) (*record.Record, error) {
	if err := f.checkRead(); err != nil {
		return nil, err
	}
	anchor, err := f.format.NormalizeKey(key)
	if err != nil {
		return nil, fmt.Errorf("scan equal %s: %w", f.opts.Name, err)
	}

	beyond := record.KeyMoreThan
	if dir == host.Backward {
		beyond = record.KeyLessThan
	}

	for {
		var rec *record.Record
		if dir == host.Forward {
			rec, err = f.ReadNext(ctx)
		} else {
			rec, err = f.ReadPrevious(ctx)
		}
		if err != nil || rec == nil {
			return nil, err
		}

		switch rel := f.cmp.CompareKeys(anchor, rec); rel {
		case record.KeyEqual:
			return rec, nil
		case beyond, record.KeyUnknown:
			continue
		default:
			f.sugar.Debugw("scan equal passed anchor", "record", rec.RecordNumber(), "relation", rel.String())
			return f.land(nil, nil)
		}
	}
}

// step answers a directional read from the window and refills the window
// when it cannot.
func (f *File) step(ctx context.Context, dir host.Direction) (*record.Record, error) {
	if f.cache.IsEmpty() {
		return f.fill(ctx, readType(dir))
	}

	var rec *record.Record
	if dir == host.Forward {
		rec = f.cache.Next()
	} else {
		rec = f.cache.Previous()
	}
	if rec != nil {
		f.sugar.Debugw("cache hit", "op", readType(dir).String(), "record", rec.RecordNumber())
		return rec, nil
	}
	if (dir == host.Forward && f.cache.AtEndSentinel()) || (dir == host.Backward && f.cache.AtBeginSentinel()) {
		return nil, nil
	}

	// The host cursor sits on the leading edge of the window. Stepping past
	// that edge can extend from it; the other edge needs a resync first.
	if f.cache.Direction() == dir || f.cache.Len() == 1 {
		f.sugar.Debugw("cache miss", "op", readType(dir).String(), "window", f.cache.Len())
		return f.fill(ctx, readType(dir))
	}
	return f.resync(ctx, dir)
}

// fill reads one block of type t from the host cursor and refreshes the
// window from it.
func (f *File) fill(ctx context.Context, t host.ReadType) (*record.Record, error) {
	f.cache.SetEmpty()
	recs, err := f.ch.ReadRecords(ctx, t)
	if err != nil {
		return nil, err
	}

	short := len(recs) < f.blockingFactor
	var containsFirst, containsLast bool
	switch t {
	case host.ReadFirst:
		containsFirst, containsLast = true, short
	case host.ReadLast:
		containsFirst, containsLast = short, true
	case host.ReadNext:
		containsLast = short
	case host.ReadPrevious:
		containsFirst = short
	}
	f.cache.Refresh(recs, t.Direction(), containsFirst, containsLast)
	f.sugar.Debugw("cache refresh", "op", t.String(), "records", len(recs),
		"containsFirst", containsFirst, "containsLast", containsLast)
	return f.cache.Current(), nil
}

// resync realigns the host cursor with the window cursor and refills the
// window in dir. Caching is off while it runs and restored on every exit.
func (f *File) resync(ctx context.Context, dir host.Direction) (*record.Record, error) {
	anchor := f.cache.Current()
	f.sugar.Debugw("cache resync", "op", readType(dir).String(), "anchor", anchor.RecordNumber())

	prev := f.cacheRecords
	f.cacheRecords = false
	defer func() {
		f.cacheRecords = prev
	}()

	f.cache.SetEmpty()
	if err := f.locate(ctx, anchor); err != nil {
		return nil, err
	}
	return f.fill(ctx, readType(dir))
}

// locate moves the host cursor onto anchor: by record number for
// arrival-sequence access, by exact key plus a walk over duplicate keys
// for keyed access.
func (f *File) locate(ctx context.Context, anchor *record.Record) error {
	if !f.opts.Keyed {
		if _, err := f.ch.PositionCursorToIndex(ctx, anchor.RecordNumber()); err != nil {
			if host.IsNotFound(err) {
				return fmt.Errorf("%w: record %d", ErrAnchorLost, anchor.RecordNumber())
			}
			return err
		}
		return nil
	}

	key := anchor.Key()
	rec, err := f.ch.PositionCursorToKey(ctx, key, host.MatchEqual)
	if err != nil {
		if host.IsNotFound(err) {
			return fmt.Errorf("%w: key %v", ErrAnchorLost, key)
		}
		return err
	}
	for rec.RecordNumber() != anchor.RecordNumber() {
		rec, err = f.ReadNext(ctx)
		if err != nil {
			return err
		}
		if rec == nil || f.cmp.CompareKeys(key, rec) != record.KeyEqual {
			return fmt.Errorf("%w: record %d key %v", ErrAnchorLost, anchor.RecordNumber(), key)
		}
	}
	return nil
}
