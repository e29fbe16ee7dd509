// Package channel holds the host.Channel variants: Native runs against an
// in-process hostfile.Store, Remote talks to a host simulator over gRPC.
package channel

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/hostfile"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

// Native is a host.Channel on an in-process store.
type Native struct {
	store *hostfile.Store
	cur   *hostfile.Cursor
	sugar *zap.SugaredLogger
}

func NewNative(store *hostfile.Store, logger *zap.Logger) *Native {
	return &Native{store: store, sugar: logger.Sugar()}
}

func (n *Native) cursor(ctx context.Context) (*hostfile.Cursor, error) {
	if err := host.CheckContext(ctx); err != nil {
		return nil, err
	}
	if n.cur == nil {
		return nil, fmt.Errorf("%w: channel not open", host.ErrState)
	}
	return n.cur, nil
}

func (n *Native) Open(ctx context.Context, name string, mode host.OpenMode, blockingFactor int, commitLockLevel int) (*record.Format, error) {
	if err := host.CheckContext(ctx); err != nil {
		return nil, err
	}
	if n.cur != nil {
		return nil, fmt.Errorf("%w: channel already open on %s", host.ErrState, n.cur.File().Name())
	}
	cur, err := n.store.Open(name, mode, blockingFactor, commitLockLevel)
	if err != nil {
		return nil, err
	}
	n.cur = cur
	n.sugar.Debugw("native open", "file", name, "mode", mode.String())
	return cur.Format(), nil
}

func (n *Native) Close(ctx context.Context) error {
	if n.cur == nil {
		return fmt.Errorf("%w: channel not open", host.ErrState)
	}
	n.cur.Close()
	n.cur = nil
	return nil
}

func (n *Native) ReadRecords(ctx context.Context, t host.ReadType) ([]*record.Record, error) {
	cur, err := n.cursor(ctx)
	if err != nil {
		return nil, err
	}
	return cur.ReadRecords(t)
}

func (n *Native) ReadRecord(ctx context.Context, t host.ReadType) (*record.Record, error) {
	cur, err := n.cursor(ctx)
	if err != nil {
		return nil, err
	}
	return cur.ReadRecord(t)
}

func (n *Native) PositionCursorToIndex(ctx context.Context, recordNumber int64) (*record.Record, error) {
	cur, err := n.cursor(ctx)
	if err != nil {
		return nil, err
	}
	return cur.PositionToIndex(recordNumber)
}

func (n *Native) PositionCursorToKey(ctx context.Context, key []any, m host.Match) (*record.Record, error) {
	cur, err := n.cursor(ctx)
	if err != nil {
		return nil, err
	}
	return cur.PositionToKey(key, m)
}

func (n *Native) PositionCursor(ctx context.Context, p host.Position) error {
	cur, err := n.cursor(ctx)
	if err != nil {
		return err
	}
	return cur.Position(p)
}

func (n *Native) Write(ctx context.Context, recs []*record.Record) ([]int64, error) {
	cur, err := n.cursor(ctx)
	if err != nil {
		return nil, err
	}
	return cur.Write(recs)
}

func (n *Native) Update(ctx context.Context, rec *record.Record) error {
	cur, err := n.cursor(ctx)
	if err != nil {
		return err
	}
	return cur.Update(rec)
}

func (n *Native) DeleteCurrent(ctx context.Context) error {
	cur, err := n.cursor(ctx)
	if err != nil {
		return err
	}
	return cur.DeleteCurrent()
}
