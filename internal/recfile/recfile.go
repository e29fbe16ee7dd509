// Package recfile is the record-level file access coordinator. A File owns
// one host cursor and a local window of blocked records, answers reads from
// the window when it can and keeps the window and the host cursor in step
// when it cannot.
//
// IMPORTANT: File does not provide thread safety, one goroutine drives one
// open file
package recfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/cache"
	"github.com/S0me0neR0man/recaccess/internal/commit"
	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

// DefaultBlockingFactor is used when Open is given a blocking factor < 1.
const DefaultBlockingFactor = 32

var (
	ErrNotOpen         = fmt.Errorf("%w: file not open", host.ErrState)
	ErrAlreadyOpen     = fmt.Errorf("%w: file already open", host.ErrState)
	ErrNoCurrentRecord = fmt.Errorf("%w: no current record", host.ErrState)
	ErrModeViolation   = fmt.Errorf("%w: operation not allowed in open mode", host.ErrState)
	ErrFormat          = fmt.Errorf("%w: record format does not match file", host.ErrState)

	// ErrAnchorLost reports that the record the window was positioned on is
	// no longer on the host, so the host cursor cannot be realigned.
	ErrAnchorLost = errors.New("cursor anchor record not found on host")
)

// Options configure a File.
type Options struct {
	// Name of the host file.
	Name string
	// Keyed selects key based resynchronization. It must match how the
	// host file is accessed.
	Keyed bool
	// Connection identifies the host connection in the commit registry.
	Connection string
	// Commit is the registry of connections under commitment control, may be nil.
	Commit *commit.Registry
	// Locale drives variable text key collation.
	Locale language.Tag
}

// File is one record-level access session on a host file.
type File struct {
	ch   host.Channel
	opts Options
	id   string

	format *record.Format
	cmp    *record.Comparer
	cache  *cache.Cache

	open            bool
	mode            host.OpenMode
	blockingFactor  int
	cacheRecords    bool
	commitLockLevel int

	// current is the record last returned to the caller, updatable says
	// whether the host cursor still sits on it for an update or delete
	current   *record.Record
	updatable bool

	sugar *zap.SugaredLogger
}

func New(ch host.Channel, opts Options, logger *zap.Logger) *File {
	id := uuid.New().String()
	return &File{
		ch:              ch,
		opts:            opts,
		id:              id,
		cmp:             record.NewComparer(opts.Locale),
		cache:           cache.New(),
		commitLockLevel: commit.Inactive,
		sugar:           logger.Sugar().With("file", opts.Name, "session", id),
	}
}

// Open opens the host file. A blocking factor < 1 selects
// DefaultBlockingFactor; read-write opens always use 1.
func (f *File) Open(ctx context.Context, mode host.OpenMode, blockingFactor int) error {
	if f.open {
		return ErrAlreadyOpen
	}
	if blockingFactor < 1 {
		blockingFactor = DefaultBlockingFactor
	}
	if mode == host.ReadWrite {
		blockingFactor = 1
	}
	level, _ := f.opts.Commit.LockLevel(f.opts.Connection)

	format, err := f.ch.Open(ctx, f.opts.Name, mode, blockingFactor, level)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.opts.Name, err)
	}
	if f.opts.Keyed && format.NumKeyFields() == 0 {
		if err := f.ch.Close(ctx); err != nil {
			f.sugar.Warnw("close after format check", "error", err)
		}
		return fmt.Errorf("open %s: %w", f.opts.Name, record.ErrNotKeyed)
	}

	f.format = format
	f.mode = mode
	f.blockingFactor = blockingFactor
	f.cacheRecords = blockingFactor > 1 && mode != host.ReadWrite
	f.commitLockLevel = level
	f.cache.SetEmpty()
	f.current = nil
	f.updatable = false
	f.open = true

	f.sugar.Debugw("open", "mode", mode.String(), "blockingFactor", blockingFactor,
		"caching", f.cacheRecords, "commitLockLevel", level)
	return nil
}

// Close drops the window and closes the host cursor.
func (f *File) Close(ctx context.Context) error {
	if !f.open {
		return ErrNotOpen
	}
	f.open = false
	f.cache.SetEmpty()
	f.current = nil
	f.updatable = false

	f.sugar.Debugw("close")
	if err := f.ch.Close(ctx); err != nil {
		return fmt.Errorf("close %s: %w", f.opts.Name, err)
	}
	return nil
}

func (f *File) IsOpen() bool {
	return f.open
}

// ID is the session id used in logs.
func (f *File) ID() string {
	return f.id
}

func (f *File) Name() string {
	return f.opts.Name
}

func (f *File) Keyed() bool {
	return f.opts.Keyed
}

// Format is nil until the file is opened.
func (f *File) Format() *record.Format {
	return f.format
}

func (f *File) Mode() host.OpenMode {
	return f.mode
}

func (f *File) BlockingFactor() int {
	return f.blockingFactor
}

// CachingEnabled reports whether reads go through the record window.
func (f *File) CachingEnabled() bool {
	return f.cacheRecords
}

// CommitLockLevel is commit.Inactive unless the connection was under
// commitment control when the file was opened.
func (f *File) CommitLockLevel() int {
	return f.commitLockLevel
}

// Current returns the record last returned by a read or positioning.
func (f *File) Current() *record.Record {
	return f.current
}

func (f *File) checkRead() error {
	if !f.open {
		return ErrNotOpen
	}
	if !f.mode.CanRead() {
		return fmt.Errorf("%w: read on %s file", ErrModeViolation, f.mode)
	}
	return nil
}

func (f *File) checkWrite() error {
	if !f.open {
		return ErrNotOpen
	}
	if !f.mode.CanWrite() {
		return fmt.Errorf("%w: write on %s file", ErrModeViolation, f.mode)
	}
	return nil
}

func (f *File) checkUpdate() error {
	if !f.open {
		return ErrNotOpen
	}
	if f.mode != host.ReadWrite {
		return fmt.Errorf("%w: update on %s file", ErrModeViolation, f.mode)
	}
	if !f.updatable {
		return ErrNoCurrentRecord
	}
	return nil
}

// land translates a host answer for the caller: the benign not-found
// codes become a nil record, and the record returned becomes current.
func (f *File) land(rec *record.Record, err error) (*record.Record, error) {
	if err != nil {
		f.current = nil
		f.updatable = false
		if host.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	f.current = rec
	f.updatable = rec != nil
	return rec, nil
}
