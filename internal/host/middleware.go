package host

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/recaccess/internal/record"
)

// Middleware receives a Channel and returns another Channel wrapping it.
type Middleware func(Channel) Channel

// Chain use pattern chain of responsibility to decorate a channel
type Chain struct {
	middlewares []Middleware
}

// NewChain make new chain
func NewChain(mw ...Middleware) *Chain {
	c := &Chain{}
	return c.Attach(mw...)
}

// Attach appends middlewares to the chain
func (c *Chain) Attach(mw ...Middleware) *Chain {
	c.middlewares = append(c.middlewares, mw...)
	return c
}

// Then wraps ch; the first attached middleware sees calls first.
func (c *Chain) Then(ch Channel) Channel {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		ch = c.middlewares[i](ch)
	}
	return ch
}

// ObserveFunc is called after every round trip.
type ObserveFunc func(op string, elapsed time.Duration, err error)

// Observe builds a middleware that reports each round trip to fn.
func Observe(fn ObserveFunc) Middleware {
	return func(next Channel) Channel {
		return &observed{next: next, fn: fn}
	}
}

// Logging logs every round trip at debug level, failures at warn.
func Logging(logger *zap.Logger) Middleware {
	sugar := logger.Sugar()
	return Observe(func(op string, elapsed time.Duration, err error) {
		if err != nil && !IsNotFound(err) {
			sugar.Warnw("host round trip failed", "op", op, "elapsed", elapsed, "err", err)
			return
		}
		sugar.Debugw("host round trip", "op", op, "elapsed", elapsed)
	})
}

// Meter counts round trips per operation.
type Meter struct {
	mu     sync.Mutex
	counts map[string]int
	total  int
}

func NewMeter() *Meter {
	return &Meter{counts: make(map[string]int)}
}

func (m *Meter) Middleware() Middleware {
	return Observe(func(op string, _ time.Duration, _ error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.counts[op]++
		m.total++
	})
}

func (m *Meter) Count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[op]
}

func (m *Meter) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
	m.total = 0
}

// Operation names reported to observers.
const (
	OpOpen                  = "Open"
	OpClose                 = "Close"
	OpReadRecords           = "ReadRecords"
	OpReadRecord            = "ReadRecord"
	OpPositionCursorToIndex = "PositionCursorToIndex"
	OpPositionCursorToKey   = "PositionCursorToKey"
	OpPositionCursor        = "PositionCursor"
	OpWrite                 = "Write"
	OpUpdate                = "Update"
	OpDeleteCurrent         = "DeleteCurrent"
)

type observed struct {
	next Channel
	fn   ObserveFunc
}

func (o *observed) done(op string, start time.Time, err error) {
	o.fn(op, time.Since(start), err)
}

func (o *observed) Open(ctx context.Context, name string, mode OpenMode, blockingFactor int, commitLockLevel int) (*record.Format, error) {
	start := time.Now()
	f, err := o.next.Open(ctx, name, mode, blockingFactor, commitLockLevel)
	o.done(OpOpen, start, err)
	return f, err
}

func (o *observed) Close(ctx context.Context) error {
	start := time.Now()
	err := o.next.Close(ctx)
	o.done(OpClose, start, err)
	return err
}

func (o *observed) ReadRecords(ctx context.Context, t ReadType) ([]*record.Record, error) {
	start := time.Now()
	recs, err := o.next.ReadRecords(ctx, t)
	o.done(OpReadRecords, start, err)
	return recs, err
}

func (o *observed) ReadRecord(ctx context.Context, t ReadType) (*record.Record, error) {
	start := time.Now()
	rec, err := o.next.ReadRecord(ctx, t)
	o.done(OpReadRecord, start, err)
	return rec, err
}

func (o *observed) PositionCursorToIndex(ctx context.Context, recordNumber int64) (*record.Record, error) {
	start := time.Now()
	rec, err := o.next.PositionCursorToIndex(ctx, recordNumber)
	o.done(OpPositionCursorToIndex, start, err)
	return rec, err
}

func (o *observed) PositionCursorToKey(ctx context.Context, key []any, m Match) (*record.Record, error) {
	start := time.Now()
	rec, err := o.next.PositionCursorToKey(ctx, key, m)
	o.done(OpPositionCursorToKey, start, err)
	return rec, err
}

func (o *observed) PositionCursor(ctx context.Context, p Position) error {
	start := time.Now()
	err := o.next.PositionCursor(ctx, p)
	o.done(OpPositionCursor, start, err)
	return err
}

func (o *observed) Write(ctx context.Context, recs []*record.Record) ([]int64, error) {
	start := time.Now()
	nums, err := o.next.Write(ctx, recs)
	o.done(OpWrite, start, err)
	return nums, err
}

func (o *observed) Update(ctx context.Context, rec *record.Record) error {
	start := time.Now()
	err := o.next.Update(ctx, rec)
	o.done(OpUpdate, start, err)
	return err
}

func (o *observed) DeleteCurrent(ctx context.Context) error {
	start := time.Now()
	err := o.next.DeleteCurrent(ctx)
	o.done(OpDeleteCurrent, start, err)
	return err
}
