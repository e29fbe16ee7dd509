package host

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/recaccess/internal/record"
)

func TestError(t *testing.T) {
	err := NewError("record 9 not found", CodeRecordNotFound)
	require.Equal(t, "host CPF5006: record 9 not found", err.Error())
	require.True(t, err.Has(CodeRecordNotFound))
	require.False(t, err.Has(CodeEndOfFile))
	require.Equal(t, "host: plain", NewError("plain").Error())

	require.True(t, IsNotFound(err))
	require.True(t, IsNotFound(fmt.Errorf("read: %w", NewError("eof", "CPF9999", CodeEndOfFile))))
	require.False(t, IsNotFound(NewError("busy", CodeFileInUse)))
	require.False(t, IsNotFound(errors.New("CPF5006")))
	require.False(t, IsNotFound(nil))
}

func TestCheckContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, CheckContext(ctx))
	cancel()

	err := CheckContext(ctx)
	require.ErrorIs(t, err, ErrInterrupted)
	require.False(t, IsNotFound(err))
}

func TestEnums(t *testing.T) {
	require.Equal(t, Backward, ReadLast.Direction())
	require.Equal(t, Backward, ReadPrevious.Direction())
	require.Equal(t, Forward, ReadFirst.Direction())
	require.Equal(t, Forward, ReadNext.Direction())
	require.Equal(t, "GE", MatchGreaterOrEqual.String())
	require.True(t, ReadWrite.CanRead())
	require.True(t, ReadWrite.CanWrite())
	require.False(t, ReadOnly.CanWrite())
	require.False(t, WriteOnly.CanRead())
}

// stub answers every call with its fields.
type stub struct {
	recs []*record.Record
	err  error
}

func (s *stub) Open(context.Context, string, OpenMode, int, int) (*record.Format, error) {
	return nil, s.err
}
func (s *stub) Close(context.Context) error { return s.err }
func (s *stub) ReadRecords(context.Context, ReadType) ([]*record.Record, error) {
	return s.recs, s.err
}
func (s *stub) ReadRecord(context.Context, ReadType) (*record.Record, error) { return nil, s.err }
func (s *stub) PositionCursorToIndex(context.Context, int64) (*record.Record, error) {
	return nil, s.err
}
func (s *stub) PositionCursorToKey(context.Context, []any, Match) (*record.Record, error) {
	return nil, s.err
}
func (s *stub) PositionCursor(context.Context, Position) error            { return s.err }
func (s *stub) Write(context.Context, []*record.Record) ([]int64, error) { return nil, s.err }
func (s *stub) Update(context.Context, *record.Record) error              { return s.err }
func (s *stub) DeleteCurrent(context.Context) error                       { return s.err }

func TestChain_Order(t *testing.T) {
	var calls []string
	named := func(name string) Middleware {
		return Observe(func(op string, _ time.Duration, _ error) {
			calls = append(calls, name+":"+op)
		})
	}

	ch := NewChain(named("outer")).Attach(named("inner")).Then(&stub{})
	_, err := ch.ReadRecords(context.Background(), ReadNext)
	require.NoError(t, err)

	// observers report on the way out, so the innermost reports first
	require.Equal(t, []string{"inner:ReadRecords", "outer:ReadRecords"}, calls)
}

func TestMeter(t *testing.T) {
	m := NewMeter()
	failing := &stub{err: NewError("eof", CodeEndOfFile)}
	ch := NewChain(m.Middleware(), Logging(zap.NewNop())).Then(failing)
	ctx := context.Background()

	_, _ = ch.ReadRecords(ctx, ReadNext)
	_, _ = ch.ReadRecords(ctx, ReadPrevious)
	_, _ = ch.PositionCursorToIndex(ctx, 1)
	_ = ch.PositionCursor(ctx, BeforeFirst)
	_, _ = ch.Write(ctx, nil)
	_ = ch.Update(ctx, nil)
	_ = ch.DeleteCurrent(ctx)

	require.Equal(t, 2, m.Count(OpReadRecords))
	require.Equal(t, 1, m.Count(OpPositionCursorToIndex))
	require.Equal(t, 1, m.Count(OpDeleteCurrent))
	require.Zero(t, m.Count(OpReadRecord))
	require.Equal(t, 7, m.Total())

	m.Reset()
	require.Zero(t, m.Total())
}
