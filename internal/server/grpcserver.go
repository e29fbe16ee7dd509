package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/S0me0neR0man/recaccess/internal/channel"
	"github.com/S0me0neR0man/recaccess/internal/config"
	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/hostfile"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

var (
	errMissingMetadata = status.Errorf(codes.InvalidArgument, "missing metadata")
	errInvalidToken    = status.Errorf(codes.Unauthenticated, "invalid token")
)

// session is one open cursor. Calls on a handle are serialized.
type session struct {
	mu  sync.Mutex
	cur *hostfile.Cursor
}

type GRPCServer struct {
	store *hostfile.Store
	sugar *zap.SugaredLogger
	gserv *grpc.Server
	conf  *config.Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	wg sync.WaitGroup
}

func NewHostServer(store *hostfile.Store, conf *config.Config, logger *zap.Logger) *GRPCServer {
	ss := &GRPCServer{
		store:    store,
		conf:     conf,
		sugar:    logger.Sugar(),
		sessions: make(map[uuid.UUID]*session),
	}

	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(ss.ensureValidToken),
	}
	ss.gserv = grpc.NewServer(opts...)
	channel.RegisterHostServer(ss.gserv, ss)

	return ss
}

// Start listens on conf.Addr and serves until ctx is done.
func (ss *GRPCServer) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", ss.conf.Addr)
	if err != nil {
		return err
	}
	return ss.Serve(ctx, lis)
}

func (ss *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	ss.sugar.Infow("gprcserver start", "addr", lis.Addr().String())

	ss.wg.Add(1)
	go ss.gracefulStop(ctx)

	return ss.gserv.Serve(lis)
}

func (ss *GRPCServer) gracefulStop(ctx context.Context) {
	defer ss.wg.Done()

	<-ctx.Done()
	ss.gserv.GracefulStop()
	ss.sugar.Infow("gprcserver stopped", "sessions", ss.Sessions())
}

func (ss *GRPCServer) Wait() {
	ss.wg.Wait()
}

// Sessions returns the number of open handles.
func (ss *GRPCServer) Sessions() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

func (ss *GRPCServer) ensureValidToken(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if ss.conf.Token == "" {
		return handler(ctx, req)
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, errMissingMetadata
	}
	// The keys within metadata.MD are normalized to lowercase.
	if !valid(md["authorization"], ss.conf.Token) {
		ss.sugar.Debugw("ensureValidToken", "method", info.FullMethod)
		return nil, errInvalidToken
	}
	return handler(ctx, req)
}

func valid(authorization []string, token string) bool {
	for _, a := range authorization {
		if a == "Bearer "+token {
			return true
		}
	}
	return false
}

// reply splits err into a host error carried in the response and a status
// error for everything else.
func reply(err error) (*channel.WireError, error) {
	if err == nil {
		return nil, nil
	}
	if we := channel.WireErrorOf(err); we != nil {
		return we, nil
	}
	switch {
	case errors.Is(err, host.ErrInterrupted):
		return nil, status.Error(codes.Canceled, err.Error())
	case errors.Is(err, host.ErrState):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return nil, status.Error(codes.InvalidArgument, err.Error())
}

func (ss *GRPCServer) session(handle string) (*session, error) {
	id, err := uuid.Parse(handle)
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "bad handle %q", handle)
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[id]
	if !ok {
		return nil, status.Errorf(codes.FailedPrecondition, "handle %s is not open", handle)
	}
	return s, nil
}

// with runs fn on the session cursor under the session lock.
func (ss *GRPCServer) with(ctx context.Context, handle string, fn func(*hostfile.Cursor) error) (*channel.WireError, error) {
	if err := host.CheckContext(ctx); err != nil {
		return reply(err)
	}
	s, err := ss.session(handle)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return reply(fn(s.cur))
}

func (ss *GRPCServer) Open(ctx context.Context, in *channel.OpenRequest) (*channel.OpenResponse, error) {
	var resp channel.OpenResponse

	cur, err := ss.store.Open(in.File, host.OpenMode(in.Mode), in.BlockingFactor, in.CommitLockLevel)
	if err != nil {
		resp.Error, err = reply(err)
		return &resp, err
	}

	id := uuid.New()
	ss.mu.Lock()
	ss.sessions[id] = &session{cur: cur}
	ss.mu.Unlock()

	resp.Handle = id.String()
	resp.Format = channel.FormatToWire(cur.Format())
	ss.sugar.Debugw("open", "file", in.File, "handle", resp.Handle, "mode", host.OpenMode(in.Mode).String())
	return &resp, nil
}

func (ss *GRPCServer) Close(ctx context.Context, in *channel.HandleRequest) (*channel.StatusResponse, error) {
	var resp channel.StatusResponse

	s, err := ss.session(in.Handle)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	delete(ss.sessions, uuid.MustParse(in.Handle))
	ss.mu.Unlock()

	s.mu.Lock()
	s.cur.Close()
	s.mu.Unlock()

	ss.sugar.Debugw("close", "handle", in.Handle)
	return &resp, nil
}

func (ss *GRPCServer) ReadRecords(ctx context.Context, in *channel.ReadRequest) (*channel.RecordsResponse, error) {
	var resp channel.RecordsResponse

	var err error
	resp.Error, err = ss.with(ctx, in.Handle, func(cur *hostfile.Cursor) error {
		recs, err := cur.ReadRecords(host.ReadType(in.Type))
		if err != nil {
			return err
		}
		for _, rec := range recs {
			w, err := channel.RecordToWire(rec)
			if err != nil {
				return err
			}
			resp.Records = append(resp.Records, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (ss *GRPCServer) ReadRecord(ctx context.Context, in *channel.ReadRequest) (*channel.RecordResponse, error) {
	return ss.oneRecord(ctx, in.Handle, func(cur *hostfile.Cursor) (*record.Record, error) {
		return cur.ReadRecord(host.ReadType(in.Type))
	})
}

func (ss *GRPCServer) PositionToIndex(ctx context.Context, in *channel.PositionIndexRequest) (*channel.RecordResponse, error) {
	return ss.oneRecord(ctx, in.Handle, func(cur *hostfile.Cursor) (*record.Record, error) {
		return cur.PositionToIndex(in.RecordNumber)
	})
}

func (ss *GRPCServer) PositionToKey(ctx context.Context, in *channel.PositionKeyRequest) (*channel.RecordResponse, error) {
	key, err := channel.DecodeValues(in.Key)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return ss.oneRecord(ctx, in.Handle, func(cur *hostfile.Cursor) (*record.Record, error) {
		return cur.PositionToKey(key, host.Match(in.Match))
	})
}

func (ss *GRPCServer) oneRecord(ctx context.Context, handle string, fn func(*hostfile.Cursor) (*record.Record, error)) (*channel.RecordResponse, error) {
	var resp channel.RecordResponse

	var err error
	resp.Error, err = ss.with(ctx, handle, func(cur *hostfile.Cursor) error {
		rec, err := fn(cur)
		if err != nil || rec == nil {
			return err
		}
		resp.Record, err = channel.RecordToWire(rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (ss *GRPCServer) Position(ctx context.Context, in *channel.PositionRequest) (*channel.StatusResponse, error) {
	return ss.statusOnly(ctx, in.Handle, func(cur *hostfile.Cursor) error {
		return cur.Position(host.Position(in.Position))
	})
}

func (ss *GRPCServer) Write(ctx context.Context, in *channel.WriteRequest) (*channel.WriteResponse, error) {
	var resp channel.WriteResponse

	var err error
	resp.Error, err = ss.with(ctx, in.Handle, func(cur *hostfile.Cursor) error {
		recs, err := ss.fromWire(cur, in.Records...)
		if err != nil {
			return err
		}
		resp.Numbers, err = cur.Write(recs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (ss *GRPCServer) Update(ctx context.Context, in *channel.UpdateRequest) (*channel.StatusResponse, error) {
	return ss.statusOnly(ctx, in.Handle, func(cur *hostfile.Cursor) error {
		recs, err := ss.fromWire(cur, in.Record)
		if err != nil {
			return err
		}
		return cur.Update(recs[0])
	})
}

func (ss *GRPCServer) DeleteCurrent(ctx context.Context, in *channel.HandleRequest) (*channel.StatusResponse, error) {
	return ss.statusOnly(ctx, in.Handle, func(cur *hostfile.Cursor) error {
		return cur.DeleteCurrent()
	})
}

func (ss *GRPCServer) statusOnly(ctx context.Context, handle string, fn func(*hostfile.Cursor) error) (*channel.StatusResponse, error) {
	var resp channel.StatusResponse

	var err error
	resp.Error, err = ss.with(ctx, handle, fn)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// fromWire decodes records against the cursor's format. A bad record is a
// host error, like the host rejecting a malformed buffer.
func (ss *GRPCServer) fromWire(cur *hostfile.Cursor, ws ...*channel.WireRecord) ([]*record.Record, error) {
	recs := make([]*record.Record, 0, len(ws))
	for _, w := range ws {
		if w == nil {
			return nil, host.NewError("missing record", host.CodeBadRecord)
		}
		rec, err := channel.RecordFromWire(cur.Format(), w)
		if err != nil {
			ss.sugar.Errorw("fromWire", "file", cur.File().Name(), "err", err)
			return nil, host.NewError(fmt.Sprintf("record rejected: %v", err), host.CodeBadRecord)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
