// Package host describes the boundary to the remote host: the Channel a
// file session talks through and the errors it can raise.
package host

import (
	"context"
	"fmt"

	"github.com/S0me0neR0man/recaccess/internal/record"
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ReadType selects the record a read is relative to.
type ReadType int

const (
	ReadFirst ReadType = iota
	ReadLast
	ReadNext
	ReadPrevious
	ReadSame
)

func (t ReadType) String() string {
	switch t {
	case ReadFirst:
		return "first"
	case ReadLast:
		return "last"
	case ReadNext:
		return "next"
	case ReadPrevious:
		return "previous"
	case ReadSame:
		return "same"
	}
	return fmt.Sprintf("ReadType(%d)", int(t))
}

// Direction is the way the host cursor moves for a block read of type t.
func (t ReadType) Direction() Direction {
	if t == ReadLast || t == ReadPrevious {
		return Backward
	}
	return Forward
}

// Match is the relational condition of a key positioning.
type Match int

const (
	MatchEqual Match = iota
	MatchLess
	MatchLessOrEqual
	MatchGreater
	MatchGreaterOrEqual
)

func (m Match) String() string {
	switch m {
	case MatchEqual:
		return "EQ"
	case MatchLess:
		return "LT"
	case MatchLessOrEqual:
		return "LE"
	case MatchGreater:
		return "GT"
	case MatchGreaterOrEqual:
		return "GE"
	}
	return fmt.Sprintf("Match(%d)", int(m))
}

// Position is a host cursor position that does not sit on a record.
type Position int

const (
	BeforeFirst Position = iota
	AfterLast
)

func (p Position) String() string {
	if p == AfterLast {
		return "after-last"
	}
	return "before-first"
}

type OpenMode int

const (
	ReadOnly OpenMode = iota
	ReadWrite
	WriteOnly
)

func (m OpenMode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	case WriteOnly:
		return "write-only"
	}
	return fmt.Sprintf("OpenMode(%d)", int(m))
}

func (m OpenMode) CanRead() bool {
	return m != WriteOnly
}

func (m OpenMode) CanWrite() bool {
	return m != ReadOnly
}

// Channel is one open cursor on a host file. Every call is a round trip
// and blocks until the host answers.
//
// ReadRecords returns up to the blocking factor records in the order the
// host read them (descending for ReadLast/ReadPrevious) and leaves the host
// cursor on the last record returned. An empty result means the cursor ran
// off the end (or start) of the file.
type Channel interface {
	Open(ctx context.Context, name string, mode OpenMode, blockingFactor int, commitLockLevel int) (*record.Format, error)
	Close(ctx context.Context) error

	ReadRecords(ctx context.Context, t ReadType) ([]*record.Record, error)
	ReadRecord(ctx context.Context, t ReadType) (*record.Record, error)
	PositionCursorToIndex(ctx context.Context, recordNumber int64) (*record.Record, error)
	PositionCursorToKey(ctx context.Context, key []any, m Match) (*record.Record, error)
	PositionCursor(ctx context.Context, p Position) error

	Write(ctx context.Context, recs []*record.Record) ([]int64, error)
	Update(ctx context.Context, rec *record.Record) error
	DeleteCurrent(ctx context.Context) error
}
