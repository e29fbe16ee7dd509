package channel

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
	"github.com/S0me0neR0man/recaccess/internal/token"
)

const formatCacheSize = 64

// Client is one connection to a host simulator. It hands out Remote
// channels and shares record formats between them.
type Client struct {
	conn    *grpc.ClientConn
	cc      grpc.ClientConnInterface
	formats *lru.Cache[string, *record.Format]
	sugar   *zap.SugaredLogger
}

// Dial connects to addr. A nil ts sends no credentials.
func Dial(addr string, ts oauth2.TokenSource, logger *zap.Logger, opts ...grpc.DialOption) (*Client, error) {
	dopts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if ts != nil {
		dopts = append(dopts, grpc.WithPerRPCCredentials(token.New(ts)))
	}
	dopts = append(dopts, opts...)

	conn, err := grpc.Dial(addr, dopts...)
	if err != nil {
		return nil, err
	}
	c, err := NewClient(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. Close does not close it.
func NewClient(cc grpc.ClientConnInterface, logger *zap.Logger) (*Client, error) {
	formats, err := lru.New[string, *record.Format](formatCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		cc:      cc,
		formats: formats,
		sugar:   logger.Sugar(),
	}, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) NewChannel() *Remote {
	return &Remote{client: c}
}

// format returns the cached format for w when it has not changed, so every
// session on a file shares one *record.Format.
func (c *Client) format(w *WireFormat) (*record.Format, error) {
	f, err := FormatFromWire(w)
	if err != nil {
		return nil, err
	}
	if cached, ok := c.formats.Get(f.Name()); ok && cached.Equal(f) {
		return cached, nil
	}
	c.formats.Add(f.Name(), f)
	c.sugar.Debugw("format cached", "file", f.Name(), "fields", f.NumFields())
	return f, nil
}

// response is a Host service response; err is the host error it carries.
type response interface {
	wireMessage
	err() error
}

func (c *Client) call(ctx context.Context, method string, in wireMessage, out response) error {
	if err := invoke(ctx, c.cc, method, in, out); err != nil {
		return fromStatus(err)
	}
	return out.err()
}

// fromStatus maps transport failures onto the host error taxonomy.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", host.ErrInterrupted, st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", host.ErrSecurity, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", host.ErrState, st.Message())
	}
	return err
}

// Remote is a host.Channel whose cursor lives in a host simulator.
type Remote struct {
	client *Client
	handle string
	format *record.Format
}

func (r *Remote) opened() error {
	if r.handle == "" {
		return fmt.Errorf("%w: channel not open", host.ErrState)
	}
	return nil
}

func (r *Remote) Open(ctx context.Context, name string, mode host.OpenMode, blockingFactor int, commitLockLevel int) (*record.Format, error) {
	if r.handle != "" {
		return nil, fmt.Errorf("%w: channel already open on %s", host.ErrState, r.format.Name())
	}
	resp := &OpenResponse{}
	err := r.client.call(ctx, "Open", &OpenRequest{
		File:            name,
		Mode:            int(mode),
		BlockingFactor:  blockingFactor,
		CommitLockLevel: commitLockLevel,
	}, resp)
	if err != nil {
		return nil, err
	}
	f, err := r.client.format(resp.Format)
	if err != nil {
		return nil, err
	}
	r.handle, r.format = resp.Handle, f
	r.client.sugar.Debugw("remote open", "file", name, "handle", r.handle, "mode", mode.String())
	return f, nil
}

func (r *Remote) Close(ctx context.Context) error {
	if err := r.opened(); err != nil {
		return err
	}
	err := r.client.call(ctx, "Close", &HandleRequest{Handle: r.handle}, &StatusResponse{})
	r.handle, r.format = "", nil
	return err
}

func (r *Remote) ReadRecords(ctx context.Context, t host.ReadType) ([]*record.Record, error) {
	if err := r.opened(); err != nil {
		return nil, err
	}
	resp := &RecordsResponse{}
	if err := r.client.call(ctx, "ReadRecords", &ReadRequest{Handle: r.handle, Type: int(t)}, resp); err != nil {
		return nil, err
	}
	return RecordsFromWire(r.format, resp.Records)
}

func (r *Remote) ReadRecord(ctx context.Context, t host.ReadType) (*record.Record, error) {
	if err := r.opened(); err != nil {
		return nil, err
	}
	resp := &RecordResponse{}
	if err := r.client.call(ctx, "ReadRecord", &ReadRequest{Handle: r.handle, Type: int(t)}, resp); err != nil {
		return nil, err
	}
	return RecordFromWire(r.format, resp.Record)
}

func (r *Remote) PositionCursorToIndex(ctx context.Context, recordNumber int64) (*record.Record, error) {
	if err := r.opened(); err != nil {
		return nil, err
	}
	resp := &RecordResponse{}
	err := r.client.call(ctx, "PositionToIndex", &PositionIndexRequest{Handle: r.handle, RecordNumber: recordNumber}, resp)
	if err != nil {
		return nil, err
	}
	return RecordFromWire(r.format, resp.Record)
}

func (r *Remote) PositionCursorToKey(ctx context.Context, key []any, m host.Match) (*record.Record, error) {
	if err := r.opened(); err != nil {
		return nil, err
	}
	values, err := EncodeValues(key)
	if err != nil {
		return nil, err
	}
	resp := &RecordResponse{}
	err = r.client.call(ctx, "PositionToKey", &PositionKeyRequest{Handle: r.handle, Key: values, Match: int(m)}, resp)
	if err != nil {
		return nil, err
	}
	return RecordFromWire(r.format, resp.Record)
}

func (r *Remote) PositionCursor(ctx context.Context, p host.Position) error {
	if err := r.opened(); err != nil {
		return err
	}
	return r.client.call(ctx, "Position", &PositionRequest{Handle: r.handle, Position: int(p)}, &StatusResponse{})
}

func (r *Remote) Write(ctx context.Context, recs []*record.Record) ([]int64, error) {
	if err := r.opened(); err != nil {
		return nil, err
	}
	req := &WriteRequest{Handle: r.handle}
	for _, rec := range recs {
		w, err := RecordToWire(rec)
		if err != nil {
			return nil, err
		}
		req.Records = append(req.Records, w)
	}
	resp := &WriteResponse{}
	if err := r.client.call(ctx, "Write", req, resp); err != nil {
		return nil, err
	}
	return resp.Numbers, nil
}

func (r *Remote) Update(ctx context.Context, rec *record.Record) error {
	if err := r.opened(); err != nil {
		return err
	}
	w, err := RecordToWire(rec)
	if err != nil {
		return err
	}
	return r.client.call(ctx, "Update", &UpdateRequest{Handle: r.handle, Record: w}, &StatusResponse{})
}

func (r *Remote) DeleteCurrent(ctx context.Context) error {
	if err := r.opened(); err != nil {
		return err
	}
	return r.client.call(ctx, "DeleteCurrent", &HandleRequest{Handle: r.handle}, &StatusResponse{})
}
