package channel

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

const (
	serviceName = protoPackage + ".Host"

	typeInt64  = "type.googleapis.com/google.protobuf.Int64Value"
	typeString = "type.googleapis.com/google.protobuf.StringValue"
	typeBytes  = "type.googleapis.com/google.protobuf.BytesValue"
)

var ErrUnsupportedValue = errors.New("unsupported field value")

// wireMessage is a Host service message. It travels as the protobuf
// message of the same name in recaccess/host.proto.
type wireMessage interface {
	messageName() protoreflect.Name
	marshalTo(m msg)
	unmarshalFrom(m msg)
}

func toProto(w wireMessage) proto.Message {
	m := newMessage(w.messageName())
	w.marshalTo(msg{m})
	return m
}

// WireError is a host failure carried inside a response.
type WireError struct {
	IDs []string
	Msg string
}

func (w *WireError) marshalTo(m msg) {
	m.setStrings("ids", w.IDs)
	m.setString("msg", w.Msg)
}

func (w *WireError) unmarshalFrom(m msg) {
	w.IDs = m.getStrings("ids")
	w.Msg = m.getString("msg")
}

// Reply is embedded in every response.
type Reply struct {
	Error *WireError
}

func (r *Reply) err() error {
	if r.Error == nil {
		return nil
	}
	return host.NewError(r.Error.Msg, r.Error.IDs...)
}

func (r *Reply) marshalTo(m msg) {
	if r.Error != nil {
		r.Error.marshalTo(m.sub("error"))
	}
}

func (r *Reply) unmarshalFrom(m msg) {
	r.Error = nil
	if sub, ok := m.getSub("error"); ok {
		r.Error = &WireError{}
		r.Error.unmarshalFrom(sub)
	}
}

type WireField struct {
	Name   string
	Type   int
	Length int
}

type WireFormat struct {
	Name   string
	Fields []WireField
	Keys   []string
}

func (w *WireFormat) marshalTo(m msg) {
	m.setString("name", w.Name)
	for _, f := range w.Fields {
		fm := m.add("fields")
		fm.setString("name", f.Name)
		fm.setInt("type", int64(f.Type))
		fm.setInt("length", int64(f.Length))
	}
	m.setStrings("keys", w.Keys)
}

func (w *WireFormat) unmarshalFrom(m msg) {
	w.Name = m.getString("name")
	w.Fields = nil
	m.each("fields", func(fm msg) {
		w.Fields = append(w.Fields, WireField{
			Name:   fm.getString("name"),
			Type:   int(fm.getInt("type")),
			Length: int(fm.getInt("length")),
		})
	})
	w.Keys = m.getStrings("keys")
}

type WireRecord struct {
	Number int64
	Values [][]byte
}

func (w *WireRecord) marshalTo(m msg) {
	m.setInt("number", w.Number)
	m.setBytesList("values", w.Values)
}

func (w *WireRecord) unmarshalFrom(m msg) {
	w.Number = m.getInt("number")
	w.Values = m.getBytesList("values")
}

func marshalRecords(m msg, name protoreflect.Name, ws []*WireRecord) {
	for _, w := range ws {
		w.marshalTo(m.add(name))
	}
}

func unmarshalRecords(m msg, name protoreflect.Name) []*WireRecord {
	var ws []*WireRecord
	m.each(name, func(rm msg) {
		w := &WireRecord{}
		w.unmarshalFrom(rm)
		ws = append(ws, w)
	})
	return ws
}

func unmarshalRecord(m msg, name protoreflect.Name) *WireRecord {
	rm, ok := m.getSub(name)
	if !ok {
		return nil
	}
	w := &WireRecord{}
	w.unmarshalFrom(rm)
	return w
}

type OpenRequest struct {
	File            string
	Mode            int
	BlockingFactor  int
	CommitLockLevel int
}

func (*OpenRequest) messageName() protoreflect.Name { return "OpenRequest" }

func (r *OpenRequest) marshalTo(m msg) {
	m.setString("file", r.File)
	m.setInt("mode", int64(r.Mode))
	m.setInt("blocking_factor", int64(r.BlockingFactor))
	m.setInt("commit_lock_level", int64(r.CommitLockLevel))
}

func (r *OpenRequest) unmarshalFrom(m msg) {
	r.File = m.getString("file")
	r.Mode = int(m.getInt("mode"))
	r.BlockingFactor = int(m.getInt("blocking_factor"))
	r.CommitLockLevel = int(m.getInt("commit_lock_level"))
}

type OpenResponse struct {
	Reply
	Handle string
	Format *WireFormat
}

func (*OpenResponse) messageName() protoreflect.Name { return "OpenResponse" }

func (r *OpenResponse) marshalTo(m msg) {
	r.Reply.marshalTo(m)
	m.setString("handle", r.Handle)
	if r.Format != nil {
		r.Format.marshalTo(m.sub("format"))
	}
}

func (r *OpenResponse) unmarshalFrom(m msg) {
	r.Reply.unmarshalFrom(m)
	r.Handle = m.getString("handle")
	r.Format = nil
	if fm, ok := m.getSub("format"); ok {
		r.Format = &WireFormat{}
		r.Format.unmarshalFrom(fm)
	}
}

type HandleRequest struct {
	Handle string
}

func (*HandleRequest) messageName() protoreflect.Name { return "HandleRequest" }

func (r *HandleRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
}

func (r *HandleRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
}

type StatusResponse struct {
	Reply
}

func (*StatusResponse) messageName() protoreflect.Name { return "StatusResponse" }

type ReadRequest struct {
	Handle string
	Type   int
}

func (*ReadRequest) messageName() protoreflect.Name { return "ReadRequest" }

func (r *ReadRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
	m.setInt("type", int64(r.Type))
}

func (r *ReadRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
	r.Type = int(m.getInt("type"))
}

type RecordsResponse struct {
	Reply
	Records []*WireRecord
}

func (*RecordsResponse) messageName() protoreflect.Name { return "RecordsResponse" }

func (r *RecordsResponse) marshalTo(m msg) {
	r.Reply.marshalTo(m)
	marshalRecords(m, "records", r.Records)
}

func (r *RecordsResponse) unmarshalFrom(m msg) {
	r.Reply.unmarshalFrom(m)
	r.Records = unmarshalRecords(m, "records")
}

type RecordResponse struct {
	Reply
	Record *WireRecord
}

func (*RecordResponse) messageName() protoreflect.Name { return "RecordResponse" }

func (r *RecordResponse) marshalTo(m msg) {
	r.Reply.marshalTo(m)
	if r.Record != nil {
		r.Record.marshalTo(m.sub("record"))
	}
}

func (r *RecordResponse) unmarshalFrom(m msg) {
	r.Reply.unmarshalFrom(m)
	r.Record = unmarshalRecord(m, "record")
}

type PositionIndexRequest struct {
	Handle       string
	RecordNumber int64
}

func (*PositionIndexRequest) messageName() protoreflect.Name { return "PositionIndexRequest" }

func (r *PositionIndexRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
	m.setInt("record_number", r.RecordNumber)
}

func (r *PositionIndexRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
	r.RecordNumber = m.getInt("record_number")
}

type PositionKeyRequest struct {
	Handle string
	Key    [][]byte
	Match  int
}

func (*PositionKeyRequest) messageName() protoreflect.Name { return "PositionKeyRequest" }

func (r *PositionKeyRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
	m.setBytesList("key", r.Key)
	m.setInt("match", int64(r.Match))
}

func (r *PositionKeyRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
	r.Key = m.getBytesList("key")
	r.Match = int(m.getInt("match"))
}

type PositionRequest struct {
	Handle   string
	Position int
}

func (*PositionRequest) messageName() protoreflect.Name { return "PositionRequest" }

func (r *PositionRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
	m.setInt("position", int64(r.Position))
}

func (r *PositionRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
	r.Position = int(m.getInt("position"))
}

type WriteRequest struct {
	Handle  string
	Records []*WireRecord
}

func (*WriteRequest) messageName() protoreflect.Name { return "WriteRequest" }

func (r *WriteRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
	marshalRecords(m, "records", r.Records)
}

func (r *WriteRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
	r.Records = unmarshalRecords(m, "records")
}

type WriteResponse struct {
	Reply
	Numbers []int64
}

func (*WriteResponse) messageName() protoreflect.Name { return "WriteResponse" }

func (r *WriteResponse) marshalTo(m msg) {
	r.Reply.marshalTo(m)
	m.setInts("numbers", r.Numbers)
}

func (r *WriteResponse) unmarshalFrom(m msg) {
	r.Reply.unmarshalFrom(m)
	r.Numbers = m.getInts("numbers")
}

type UpdateRequest struct {
	Handle string
	Record *WireRecord
}

func (*UpdateRequest) messageName() protoreflect.Name { return "UpdateRequest" }

func (r *UpdateRequest) marshalTo(m msg) {
	m.setString("handle", r.Handle)
	if r.Record != nil {
		r.Record.marshalTo(m.sub("record"))
	}
}

func (r *UpdateRequest) unmarshalFrom(m msg) {
	r.Handle = m.getString("handle")
	r.Record = unmarshalRecord(m, "record")
}

// HostServer is the server side of the Host service.
type HostServer interface {
	Open(context.Context, *OpenRequest) (*OpenResponse, error)
	Close(context.Context, *HandleRequest) (*StatusResponse, error)
	ReadRecords(context.Context, *ReadRequest) (*RecordsResponse, error)
	ReadRecord(context.Context, *ReadRequest) (*RecordResponse, error)
	PositionToIndex(context.Context, *PositionIndexRequest) (*RecordResponse, error)
	PositionToKey(context.Context, *PositionKeyRequest) (*RecordResponse, error)
	Position(context.Context, *PositionRequest) (*StatusResponse, error)
	Write(context.Context, *WriteRequest) (*WriteResponse, error)
	Update(context.Context, *UpdateRequest) (*StatusResponse, error)
	DeleteCurrent(context.Context, *HandleRequest) (*StatusResponse, error)
}

type wirePtr[T any] interface {
	*T
	wireMessage
}

// unary decodes the request message, runs call on its Go form and encodes
// the response. Interceptors see the Go form.
func unary[Req, Resp any, PReq wirePtr[Req], PResp wirePtr[Resp]](method string, call func(HostServer, context.Context, PReq) (PResp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			m := newMessage(in.messageName())
			if err := dec(m); err != nil {
				return nil, err
			}
			in.unmarshalFrom(msg{m})

			handler := func(ctx context.Context, req any) (any, error) {
				out, err := call(srv.(HostServer), ctx, req.(PReq))
				if err != nil {
					return nil, err
				}
				return toProto(out), nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + method,
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var hostServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*HostServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Open", HostServer.Open),
		unary("Close", HostServer.Close),
		unary("ReadRecords", HostServer.ReadRecords),
		unary("ReadRecord", HostServer.ReadRecord),
		unary("PositionToIndex", HostServer.PositionToIndex),
		unary("PositionToKey", HostServer.PositionToKey),
		unary("Position", HostServer.Position),
		unary("Write", HostServer.Write),
		unary("Update", HostServer.Update),
		unary("DeleteCurrent", HostServer.DeleteCurrent),
	},
	Metadata: protoFile,
}

func RegisterHostServer(s grpc.ServiceRegistrar, srv HostServer) {
	s.RegisterService(&hostServiceDesc, srv)
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in, out wireMessage) error {
	resp := newMessage(out.messageName())
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, toProto(in), resp); err != nil {
		return err
	}
	out.unmarshalFrom(msg{resp})
	return nil
}

// EncodeValue wraps one field or key value as anypb bytes.
// Decimals travel as their string form.
func EncodeValue(v any) ([]byte, error) {
	var m proto.Message
	switch x := v.(type) {
	case int64:
		m = wrapperspb.Int64(x)
	case int:
		m = wrapperspb.Int64(int64(x))
	case int32:
		m = wrapperspb.Int64(int64(x))
	case string:
		m = wrapperspb.String(x)
	case record.Decimal:
		m = wrapperspb.String(x.String())
	case []byte:
		m = wrapperspb.Bytes(x)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	a, err := anypb.New(m)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(a)
}

// DecodeValue is the inverse of EncodeValue. The result is typed by the
// wrapper only; record.NewNumbered converts it to the field type.
func DecodeValue(b []byte) (any, error) {
	a := &anypb.Any{}
	if err := proto.Unmarshal(b, a); err != nil {
		return nil, err
	}
	switch a.GetTypeUrl() {
	case typeInt64:
		v := &wrapperspb.Int64Value{}
		if err := a.UnmarshalTo(v); err != nil {
			return nil, err
		}
		return v.GetValue(), nil
	case typeString:
		v := &wrapperspb.StringValue{}
		if err := a.UnmarshalTo(v); err != nil {
			return nil, err
		}
		return v.GetValue(), nil
	case typeBytes:
		v := &wrapperspb.BytesValue{}
		if err := a.UnmarshalTo(v); err != nil {
			return nil, err
		}
		if v.GetValue() == nil {
			return []byte{}, nil
		}
		return v.GetValue(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, a.GetTypeUrl())
}

func EncodeValues(values []any) ([][]byte, error) {
	out := make([][]byte, len(values))
	for i, v := range values {
		b, err := EncodeValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func DecodeValues(in [][]byte) ([]any, error) {
	out := make([]any, len(in))
	for i, b := range in {
		v, err := DecodeValue(b)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func RecordToWire(rec *record.Record) (*WireRecord, error) {
	values, err := EncodeValues(rec.Values())
	if err != nil {
		return nil, err
	}
	return &WireRecord{Number: rec.RecordNumber(), Values: values}, nil
}

func RecordFromWire(format *record.Format, w *WireRecord) (*record.Record, error) {
	if w == nil {
		return nil, nil
	}
	values, err := DecodeValues(w.Values)
	if err != nil {
		return nil, err
	}
	return record.NewNumbered(format, w.Number, values...)
}

func RecordsFromWire(format *record.Format, ws []*WireRecord) ([]*record.Record, error) {
	out := make([]*record.Record, 0, len(ws))
	for _, w := range ws {
		rec, err := RecordFromWire(format, w)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func FormatToWire(f *record.Format) *WireFormat {
	w := &WireFormat{Name: f.Name(), Keys: f.KeyFieldNames()}
	for _, fd := range f.Fields() {
		w.Fields = append(w.Fields, WireField{Name: fd.Name, Type: int(fd.Type), Length: fd.Length})
	}
	return w
}

func FormatFromWire(w *WireFormat) (*record.Format, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: no format in open response", host.ErrState)
	}
	fields := make([]record.FieldDesc, len(w.Fields))
	for i, f := range w.Fields {
		fields[i] = record.FieldDesc{Name: f.Name, Type: record.FieldType(f.Type), Length: f.Length}
	}
	return record.NewFormat(w.Name, fields, w.Keys...)
}

// WireErrorOf returns the host error carried by err, if any.
func WireErrorOf(err error) *WireError {
	var he *host.Error
	if errors.As(err, &he) {
		return &WireError{IDs: he.IDs, Msg: he.Msg}
	}
	return nil
}
