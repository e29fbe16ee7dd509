package channel

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	protoFile    = "recaccess/host.proto"
	protoPackage = "recaccess"
)

var (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
)

type fieldKind struct {
	typ      descriptorpb.FieldDescriptorProto_Type
	typeName string
	label    *descriptorpb.FieldDescriptorProto_Label
}

var (
	str      = fieldKind{typ: descriptorpb.FieldDescriptorProto_TYPE_STRING, label: optional}
	strs     = fieldKind{typ: descriptorpb.FieldDescriptorProto_TYPE_STRING, label: repeated}
	i64      = fieldKind{typ: descriptorpb.FieldDescriptorProto_TYPE_INT64, label: optional}
	i64s     = fieldKind{typ: descriptorpb.FieldDescriptorProto_TYPE_INT64, label: repeated}
	raw      = fieldKind{typ: descriptorpb.FieldDescriptorProto_TYPE_BYTES, label: repeated}
	errorMsg = msgKind("Error", optional)
	recMsg   = msgKind("Record", optional)
	recMsgs  = msgKind("Record", repeated)
)

func msgKind(name string, label *descriptorpb.FieldDescriptorProto_Label) fieldKind {
	return fieldKind{
		typ:      descriptorpb.FieldDescriptorProto_TYPE_MESSAGE,
		typeName: "." + protoPackage + "." + name,
		label:    label,
	}
}

type fieldSpec struct {
	name string
	kind fieldKind
}

func message(name string, fields ...fieldSpec) *descriptorpb.DescriptorProto {
	m := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		fd := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(int32(i + 1)),
			Type:   f.kind.typ.Enum(),
			Label:  f.kind.label,
		}
		if f.kind.typeName != "" {
			fd.TypeName = proto.String(f.kind.typeName)
		}
		m.Field = append(m.Field, fd)
	}
	return m
}

func method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String("." + protoPackage + "." + in),
		OutputType: proto.String("." + protoPackage + "." + out),
	}
}

// hostFile is the schema of the Host service.
var hostFile = &descriptorpb.FileDescriptorProto{
	Name:    proto.String(protoFile),
	Package: proto.String(protoPackage),
	Syntax:  proto.String("proto3"),
	MessageType: []*descriptorpb.DescriptorProto{
		message("Error", fieldSpec{"ids", strs}, fieldSpec{"msg", str}),
		message("Field", fieldSpec{"name", str}, fieldSpec{"type", i64}, fieldSpec{"length", i64}),
		message("Format", fieldSpec{"name", str}, fieldSpec{"fields", msgKind("Field", repeated)}, fieldSpec{"keys", strs}),
		message("Record", fieldSpec{"number", i64}, fieldSpec{"values", raw}),
		message("OpenRequest", fieldSpec{"file", str}, fieldSpec{"mode", i64},
			fieldSpec{"blocking_factor", i64}, fieldSpec{"commit_lock_level", i64}),
		message("OpenResponse", fieldSpec{"error", errorMsg}, fieldSpec{"handle", str},
			fieldSpec{"format", msgKind("Format", optional)}),
		message("HandleRequest", fieldSpec{"handle", str}),
		message("StatusResponse", fieldSpec{"error", errorMsg}),
		message("ReadRequest", fieldSpec{"handle", str}, fieldSpec{"type", i64}),
		message("RecordsResponse", fieldSpec{"error", errorMsg}, fieldSpec{"records", recMsgs}),
		message("RecordResponse", fieldSpec{"error", errorMsg}, fieldSpec{"record", recMsg}),
		message("PositionIndexRequest", fieldSpec{"handle", str}, fieldSpec{"record_number", i64}),
		message("PositionKeyRequest", fieldSpec{"handle", str}, fieldSpec{"key", raw}, fieldSpec{"match", i64}),
		message("PositionRequest", fieldSpec{"handle", str}, fieldSpec{"position", i64}),
		message("WriteRequest", fieldSpec{"handle", str}, fieldSpec{"records", recMsgs}),
		message("WriteResponse", fieldSpec{"error", errorMsg}, fieldSpec{"numbers", i64s}),
		message("UpdateRequest", fieldSpec{"handle", str}, fieldSpec{"record", recMsg}),
	},
	Service: []*descriptorpb.ServiceDescriptorProto{{
		Name: proto.String("Host"),
		Method: []*descriptorpb.MethodDescriptorProto{
			method("Open", "OpenRequest", "OpenResponse"),
			method("Close", "HandleRequest", "StatusResponse"),
			method("ReadRecords", "ReadRequest", "RecordsResponse"),
			method("ReadRecord", "ReadRequest", "RecordResponse"),
			method("PositionToIndex", "PositionIndexRequest", "RecordResponse"),
			method("PositionToKey", "PositionKeyRequest", "RecordResponse"),
			method("Position", "PositionRequest", "StatusResponse"),
			method("Write", "WriteRequest", "WriteResponse"),
			method("Update", "UpdateRequest", "StatusResponse"),
			method("DeleteCurrent", "HandleRequest", "StatusResponse"),
		},
	}},
}

var hostDescriptor protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(hostFile, nil)
	if err != nil {
		panic(fmt.Sprintf("host service schema: %v", err))
	}
	hostDescriptor = fd
}

// newMessage returns an empty Host service message.
func newMessage(name protoreflect.Name) *dynamicpb.Message {
	md := hostDescriptor.Messages().ByName(name)
	if md == nil {
		panic(fmt.Sprintf("no message %s in %s", name, protoFile))
	}
	return dynamicpb.NewMessage(md)
}

// msg reads and writes the fields of a Host service message by name.
// Zero scalars and empty lists are left unset.
type msg struct {
	m protoreflect.Message
}

func (x msg) field(name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := x.m.Descriptor().Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("no field %s in %s", name, x.m.Descriptor().FullName()))
	}
	return fd
}

func (x msg) setString(name protoreflect.Name, v string) {
	if v != "" {
		x.m.Set(x.field(name), protoreflect.ValueOfString(v))
	}
}

func (x msg) getString(name protoreflect.Name) string {
	return x.m.Get(x.field(name)).String()
}

func (x msg) setInt(name protoreflect.Name, v int64) {
	if v != 0 {
		x.m.Set(x.field(name), protoreflect.ValueOfInt64(v))
	}
}

func (x msg) getInt(name protoreflect.Name) int64 {
	return x.m.Get(x.field(name)).Int()
}

func (x msg) setStrings(name protoreflect.Name, vs []string) {
	if len(vs) == 0 {
		return
	}
	l := x.m.Mutable(x.field(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfString(v))
	}
}

func (x msg) getStrings(name protoreflect.Name) []string {
	l := x.m.Get(x.field(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

func (x msg) setInts(name protoreflect.Name, vs []int64) {
	if len(vs) == 0 {
		return
	}
	l := x.m.Mutable(x.field(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfInt64(v))
	}
}

func (x msg) getInts(name protoreflect.Name) []int64 {
	l := x.m.Get(x.field(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]int64, l.Len())
	for i := range out {
		out[i] = l.Get(i).Int()
	}
	return out
}

func (x msg) setBytesList(name protoreflect.Name, vs [][]byte) {
	if len(vs) == 0 {
		return
	}
	l := x.m.Mutable(x.field(name)).List()
	for _, v := range vs {
		l.Append(protoreflect.ValueOfBytes(v))
	}
}

func (x msg) getBytesList(name protoreflect.Name) [][]byte {
	l := x.m.Get(x.field(name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([][]byte, l.Len())
	for i := range out {
		out[i] = l.Get(i).Bytes()
	}
	return out
}

// sub returns the nested message field for writing.
func (x msg) sub(name protoreflect.Name) msg {
	return msg{x.m.Mutable(x.field(name)).Message()}
}

// getSub returns the nested message field, false if it is not set.
func (x msg) getSub(name protoreflect.Name) (msg, bool) {
	fd := x.field(name)
	if !x.m.Has(fd) {
		return msg{}, false
	}
	return msg{x.m.Get(fd).Message()}, true
}

// add appends a nested message to a repeated field.
func (x msg) add(name protoreflect.Name) msg {
	l := x.m.Mutable(x.field(name)).List()
	v := l.NewElement()
	l.Append(v)
	return msg{v.Message()}
}

func (x msg) each(name protoreflect.Name, fn func(msg)) {
	l := x.m.Get(x.field(name)).List()
	for i := 0; i < l.Len(); i++ {
		fn(msg{l.Get(i).Message()})
	}
}
