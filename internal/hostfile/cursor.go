package hostfile

import (
	"fmt"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

// Cursor is one open of a File with its own host-side position.
type Cursor struct {
	file            *File
	mode            host.OpenMode
	blockingFactor  int
	commitLockLevel int

	at iterator

	closed bool
}

func (c *Cursor) Format() *record.Format {
	return c.file.Format()
}

func (c *Cursor) File() *File {
	return c.file
}

func (c *Cursor) BlockingFactor() int {
	return c.blockingFactor
}

func (c *Cursor) CommitLockLevel() int {
	return c.commitLockLevel
}

func (c *Cursor) Close() {
	c.closed = true
}

func (c *Cursor) canRead() error {
	if c.closed {
		return host.NewError("file "+c.file.Name()+" is closed", host.CodeModeViolation)
	}
	if !c.mode.CanRead() {
		return host.NewError("file "+c.file.Name()+" not open for input", host.CodeModeViolation)
	}
	return nil
}

func (c *Cursor) canWrite() error {
	if c.closed {
		return host.NewError("file "+c.file.Name()+" is closed", host.CodeModeViolation)
	}
	if !c.mode.CanWrite() {
		return host.NewError("file "+c.file.Name()+" not open for output", host.CodeModeViolation)
	}
	return nil
}

func (c *Cursor) canUpdate() error {
	if c.closed {
		return host.NewError("file "+c.file.Name()+" is closed", host.CodeModeViolation)
	}
	if c.mode != host.ReadWrite {
		return host.NewError("file "+c.file.Name()+" not open for update", host.CodeModeViolation)
	}
	return nil
}

// ReadRecords reads up to the blocking factor records. The cursor stays
// on the last record returned, or runs off the file if none was found.
func (c *Cursor) ReadRecords(t host.ReadType) ([]*record.Record, error) {
	if err := c.canRead(); err != nil {
		return nil, err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	switch t {
	case host.ReadFirst:
		c.at.rewind()
	case host.ReadLast:
		c.at.end()
	case host.ReadNext, host.ReadPrevious:
	default:
		return nil, host.NewError(fmt.Sprintf("block read %s not supported", t), host.CodeModeViolation)
	}

	dir := t.Direction()
	recs := make([]*record.Record, 0, c.blockingFactor)
	for len(recs) < c.blockingFactor {
		probe := c.at
		if !probe.step(dir) {
			if len(recs) == 0 {
				c.at = probe
			}
			break
		}
		c.at = probe
		recs = append(recs, c.at.record())
	}
	return recs, nil
}

// ReadRecord reads one record relative to the cursor.
func (c *Cursor) ReadRecord(t host.ReadType) (*record.Record, error) {
	if err := c.canRead(); err != nil {
		return nil, err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	switch t {
	case host.ReadFirst:
		c.at.rewind()
	case host.ReadLast:
		c.at.end()
	case host.ReadSame:
		if !c.at.live() {
			return nil, host.NewError("no current record", host.CodeNoCurrentRecord)
		}
		return c.at.record(), nil
	}

	if !c.at.step(t.Direction()) {
		return nil, host.NewError("end of file "+c.file.Name(), host.CodeEndOfFile)
	}
	return c.at.record(), nil
}

// PositionToIndex moves the cursor to record n.
func (c *Cursor) PositionToIndex(n int64) (*record.Record, error) {
	if err := c.canRead(); err != nil {
		return nil, err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	rec := c.file.get(n)
	if rec == nil {
		return nil, host.NewError(fmt.Sprintf("record %d not found in %s", n, c.file.Name()), host.CodeRecordNotFound)
	}
	c.at.place(c.file.keyOf(rec, n))
	return c.at.record(), nil
}

// PositionToKey moves the cursor to the record selected by key and m.
func (c *Cursor) PositionToKey(key []any, m host.Match) (*record.Record, error) {
	if err := c.canRead(); err != nil {
		return nil, err
	}
	if !c.file.Keyed() {
		return nil, host.NewError("file "+c.file.Name()+" is not keyed", host.CodeNotKeyed)
	}
	key, err := c.file.Format().NormalizeKey(key)
	if err != nil {
		return nil, host.NewError(err.Error(), host.CodeBadRecord)
	}

	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	if !c.at.seek(key, m) {
		return nil, host.NewError(fmt.Sprintf("key %v %s not found in %s", key, m, c.file.Name()), host.CodeRecordNotFound)
	}
	return c.at.record(), nil
}

// Position moves the cursor off the records.
func (c *Cursor) Position(p host.Position) error {
	if c.closed {
		return host.NewError("file "+c.file.Name()+" is closed", host.CodeModeViolation)
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	if p == host.AfterLast {
		c.at.end()
	} else {
		c.at.rewind()
	}
	return nil
}

// Write appends records; the cursor does not move.
func (c *Cursor) Write(recs []*record.Record) ([]int64, error) {
	if err := c.canWrite(); err != nil {
		return nil, err
	}
	return c.file.Append(recs...)
}

// Update replaces the record under the cursor.
func (c *Cursor) Update(rec *record.Record) error {
	if err := c.canUpdate(); err != nil {
		return err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	if !c.at.onRecord() {
		return host.NewError("no current record", host.CodeNoCurrentRecord)
	}
	k, err := c.file.replace(c.at.key.number, rec)
	if err != nil {
		return err
	}
	c.at.place(k)
	return nil
}

// DeleteCurrent deletes the record under the cursor. The cursor keeps its
// place, so next/previous continue from the deleted record.
func (c *Cursor) DeleteCurrent() error {
	if err := c.canUpdate(); err != nil {
		return err
	}
	c.file.mu.Lock()
	defer c.file.mu.Unlock()

	if !c.at.onRecord() {
		return host.NewError("no current record", host.CodeNoCurrentRecord)
	}
	return c.file.delete(c.at.key.number)
}
