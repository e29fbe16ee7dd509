// Package cache keeps the local window of records read from the host in
// blocks, together with a cursor into that window.
//
// IMPORTANT: Cache does not provide thread safety
package cache

import (
	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

type position byte

const (
	begin, onmyway, end position = 0, 1, 2
)

// Cache is a contiguous window of records in file order.
//
// The cursor is either on an element (onmyway) or on one of the two
// sentinels: begin (before the first record of the file) and end (after
// the last). The sentinels are only reachable when the window holds the
// matching file boundary.
type Cache struct {
	records []*record.Record
	idx     int
	pos     position

	direction     host.Direction
	containsFirst bool
	containsLast  bool
}

func New() *Cache {
	return &Cache{}
}

func (c *Cache) IsEmpty() bool {
	return len(c.records) == 0
}

// SetEmpty invalidates the window.
func (c *Cache) SetEmpty() {
	c.records = nil
	c.idx = 0
	c.pos = begin
	c.direction = host.Forward
	c.containsFirst = false
	c.containsLast = false
}

// Snapshot is a saved window, see Save.
type Snapshot struct {
	c Cache
}

// Save returns the window and cursor as they are now.
func (c *Cache) Save() Snapshot {
	return Snapshot{c: *c}
}

// Restore puts back a window returned by Save.
func (c *Cache) Restore(s Snapshot) {
	*c = s.c
}

func (c *Cache) Len() int {
	return len(c.records)
}

// Direction is the way the window was last filled.
func (c *Cache) Direction() host.Direction {
	return c.direction
}

func (c *Cache) ContainsFirstRecord() bool {
	return c.containsFirst
}

func (c *Cache) ContainsLastRecord() bool {
	return c.containsLast
}

func (c *Cache) IsBeginningOfCache() bool {
	return c.pos == onmyway && c.idx == 0
}

func (c *Cache) IsEndOfCache() bool {
	return c.pos == onmyway && c.idx == len(c.records)-1
}

// Refresh replaces the window. recs come in host read order, so a
// backward block is stored reversed. The cursor lands on the first record
// read from the host.
func (c *Cache) Refresh(recs []*record.Record, dir host.Direction, containsFirst, containsLast bool) {
	c.SetEmpty()
	if len(recs) == 0 {
		return
	}
	c.records = make([]*record.Record, 0, len(recs))
	if dir == host.Backward {
		for i := len(recs) - 1; i >= 0; i-- {
			c.records = append(c.records, recs[i])
		}
		c.idx = len(c.records) - 1
	} else {
		c.records = append(c.records, recs...)
		c.idx = 0
	}
	c.pos = onmyway
	c.direction = dir
	c.containsFirst = containsFirst
	c.containsLast = containsLast
}

// Add puts rec at one edge of the window. On an empty cache it seeds a
// one-record window with the cursor on it.
func (c *Cache) Add(rec *record.Record, atFront bool) {
	if c.IsEmpty() {
		c.records = append(c.records, rec)
		c.idx = 0
		c.pos = onmyway
		c.direction = host.Forward
		return
	}
	if !atFront {
		c.records = append(c.records, rec)
		c.containsLast = false
		return
	}
	c.containsFirst = false
	c.records = append(c.records, nil)
	copy(c.records[1:], c.records)
	c.records[0] = rec
	if c.pos == onmyway {
		c.idx++
	}
}

// SetPosition moves the cursor to the record with the given number. On a
// miss nothing changes.
func (c *Cache) SetPosition(recordNumber int64) bool {
	for i, rec := range c.records {
		if rec.RecordNumber() == recordNumber {
			c.idx = i
			c.pos = onmyway
			return true
		}
	}
	return false
}

func (c *Cache) Current() *record.Record {
	if c.pos != onmyway || c.IsEmpty() {
		return nil
	}
	return c.records[c.idx]
}

// Next advances the cursor. It returns nil when the window does not cover
// the next record; if that is because the file ends, the cursor moves to
// the end sentinel, otherwise it stays on the last element.
func (c *Cache) Next() *record.Record {
	if c.IsEmpty() {
		return nil
	}
	switch c.pos {
	case begin:
		c.idx = 0
		c.pos = onmyway
		return c.records[0]
	case end:
		return nil
	}
	if c.idx < len(c.records)-1 {
		c.idx++
		return c.records[c.idx]
	}
	if c.containsLast {
		c.pos = end
	}
	return nil
}

// Previous is the mirror of Next.
func (c *Cache) Previous() *record.Record {
	if c.IsEmpty() {
		return nil
	}
	switch c.pos {
	case end:
		c.idx = len(c.records) - 1
		c.pos = onmyway
		return c.records[c.idx]
	case begin:
		return nil
	}
	if c.idx > 0 {
		c.idx--
		return c.records[c.idx]
	}
	if c.containsFirst {
		c.pos = begin
	}
	return nil
}

// First returns the first record of the file if the window holds it.
func (c *Cache) First() *record.Record {
	if c.IsEmpty() || !c.containsFirst {
		return nil
	}
	c.idx = 0
	c.pos = onmyway
	return c.records[0]
}

// Last returns the last record of the file if the window holds it.
func (c *Cache) Last() *record.Record {
	if c.IsEmpty() || !c.containsLast {
		return nil
	}
	c.idx = len(c.records) - 1
	c.pos = onmyway
	return c.records[c.idx]
}

// AtBeginSentinel reports whether the cursor sits before the first record
// of the file.
func (c *Cache) AtBeginSentinel() bool {
	return !c.IsEmpty() && c.pos == begin
}

// AtEndSentinel reports whether the cursor sits after the last record of
// the file.
func (c *Cache) AtEndSentinel() bool {
	return !c.IsEmpty() && c.pos == end
}
