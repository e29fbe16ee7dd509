package recfile

import (
	"context"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

// PositionCursor moves the cursor to record number n. A window hit costs no
// round trip; a miss positions the host cursor and leaves the window empty
// until the next read. A record number the host does not know keeps the
// window as it was.
func (f *File) PositionCursor(ctx context.Context, recordNumber int64) error {
	if err := f.checkRead(); err != nil {
		return err
	}
	if f.cacheRecords && !f.opts.Keyed && f.cache.SetPosition(recordNumber) {
		f.sugar.Debugw("cache hit", "op", "position", "record", recordNumber)
		_, err := f.land(f.cache.Current(), nil)
		return err
	}
	return f.position(f.reposition(f.toIndex(ctx, recordNumber)))
}

// PositionCursorToKey moves the cursor to the record selected by key and m.
func (f *File) PositionCursorToKey(ctx context.Context, key []any, m host.Match) error {
	if err := f.checkRead(); err != nil {
		return err
	}
	return f.position(f.reposition(f.toKey(ctx, key, m)))
}

// PositionCursorAfter moves the cursor to the record after the first record
// with key.
func (f *File) PositionCursorAfter(ctx context.Context, key []any) error {
	if err := f.PositionCursorToKey(ctx, key, host.MatchEqual); err != nil {
		return err
	}
	return f.PositionCursorToNext(ctx)
}

// PositionCursorBefore moves the cursor to the record before the first
// record with key.
func (f *File) PositionCursorBefore(ctx context.Context, key []any) error {
	if err := f.PositionCursorToKey(ctx, key, host.MatchEqual); err != nil {
		return err
	}
	return f.PositionCursorToPrevious(ctx)
}

// PositionCursorAfterRecord moves the cursor to the record after record
// number n.
func (f *File) PositionCursorAfterRecord(ctx context.Context, recordNumber int64) error {
	if err := f.positionIndex(ctx, recordNumber); err != nil {
		return err
	}
	return f.PositionCursorToNext(ctx)
}

// PositionCursorBeforeRecord moves the cursor to the record before record
// number n.
func (f *File) PositionCursorBeforeRecord(ctx context.Context, recordNumber int64) error {
	if err := f.positionIndex(ctx, recordNumber); err != nil {
		return err
	}
	return f.PositionCursorToPrevious(ctx)
}

func (f *File) positionIndex(ctx context.Context, recordNumber int64) error {
	if err := f.checkRead(); err != nil {
		return err
	}
	return f.position(f.reposition(f.toIndex(ctx, recordNumber)))
}

// PositionCursorBeforeFirst moves the cursor before the first record.
func (f *File) PositionCursorBeforeFirst(ctx context.Context) error {
	return f.positionOff(ctx, host.BeforeFirst)
}

// PositionCursorAfterLast moves the cursor after the last record.
func (f *File) PositionCursorAfterLast(ctx context.Context) error {
	return f.positionOff(ctx, host.AfterLast)
}

func (f *File) positionOff(ctx context.Context, p host.Position) error {
	if !f.open {
		return ErrNotOpen
	}
	f.cache.SetEmpty()
	f.current = nil
	f.updatable = false
	return f.ch.PositionCursor(ctx, p)
}

// PositionCursorToFirst moves the cursor to the first record.
func (f *File) PositionCursorToFirst(ctx context.Context) error {
	_, err := f.ReadFirst(ctx)
	return err
}

// PositionCursorToLast moves the cursor to the last record.
func (f *File) PositionCursorToLast(ctx context.Context) error {
	_, err := f.ReadLast(ctx)
	return err
}

// PositionCursorToNext moves the cursor one record forward.
func (f *File) PositionCursorToNext(ctx context.Context) error {
	_, err := f.ReadNext(ctx)
	return err
}

// PositionCursorToPrevious moves the cursor one record backward.
func (f *File) PositionCursorToPrevious(ctx context.Context) error {
	_, err := f.ReadPrevious(ctx)
	return err
}

// RefreshRecordCache drops the window, reloads it from the start of the
// file and leaves the cursor before the first record.
func (f *File) RefreshRecordCache(ctx context.Context) error {
	if err := f.checkRead(); err != nil {
		return err
	}
	f.current = nil
	f.updatable = false
	if !f.cacheRecords {
		f.cache.SetEmpty()
		return f.ch.PositionCursor(ctx, host.BeforeFirst)
	}
	if _, err := f.fill(ctx, host.ReadFirst); err != nil {
		return err
	}
	f.cache.Previous()
	return nil
}

// position is land for positioning calls: not-found stays an error.
func (f *File) position(rec *record.Record, err error) error {
	if err != nil {
		f.current = nil
		f.updatable = false
		return err
	}
	f.current = rec
	f.updatable = rec != nil
	return nil
}
