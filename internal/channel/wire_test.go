package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/record"
)

func TestDecodeValue_Types(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", 7, int64(7)},
		{"int32", int32(-3), int64(-3)},
		{"text", "abc ", "abc "},
		{"decimal as text", record.NewDecimal(-1250, 2), "-12.50"},
		{"bytes", []byte{0, 1}, []byte{0, 1}},
		{"empty bytes", []byte{}, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := EncodeValue(tt.in)
			require.NoError(t, err)
			got, err := DecodeValue(b)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := EncodeValue(1.5)
	require.ErrorIs(t, err, ErrUnsupportedValue)
	_, err = DecodeValue([]byte{0xff, 0xff})
	require.Error(t, err)
}

func TestRecordFromWire(t *testing.T) {
	f, err := record.NewFormat("ORDERS", []record.FieldDesc{
		{Name: "REGION", Type: record.TypeFixedText, Length: 4},
		{Name: "AMOUNT", Type: record.TypeDecimal},
		{Name: "QTY", Type: record.TypeInteger},
	}, "REGION")
	require.NoError(t, err)

	wf, err := FormatFromWire(FormatToWire(f))
	require.NoError(t, err)
	require.True(t, wf.Equal(f))

	rec, err := record.NewNumbered(f, 9, "EU", "3.10", 2)
	require.NoError(t, err)
	w, err := RecordToWire(rec)
	require.NoError(t, err)
	back, err := RecordFromWire(wf, w)
	require.NoError(t, err)
	require.True(t, back.Equal(rec), "got %v", back)

	none, err := RecordFromWire(wf, nil)
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = FormatFromWire(nil)
	require.ErrorIs(t, err, host.ErrState)
}

func TestFromStatus(t *testing.T) {
	require.ErrorIs(t, fromStatus(status.Error(codes.DeadlineExceeded, "slow")), host.ErrInterrupted)
	require.ErrorIs(t, fromStatus(status.Error(codes.PermissionDenied, "no")), host.ErrSecurity)
	require.ErrorIs(t, fromStatus(status.Error(codes.FailedPrecondition, "closed")), host.ErrState)

	other := status.Error(codes.Internal, "boom")
	require.Equal(t, other, fromStatus(other))

	plain := errors.New("plain")
	require.Equal(t, plain, fromStatus(plain))
}

func TestReply_Err(t *testing.T) {
	var r Reply
	require.NoError(t, r.err())

	r.Error = WireErrorOf(host.NewError("gone", host.CodeRecordNotFound))
	require.True(t, host.IsNotFound(r.err()))
	require.Nil(t, WireErrorOf(errors.New("plain")))
}

func TestHostDescriptor_MatchesService(t *testing.T) {
	sd := hostDescriptor.Services().ByName("Host")
	require.NotNil(t, sd)
	require.Equal(t, protoreflect.FullName(serviceName), sd.FullName())
	require.Equal(t, len(hostServiceDesc.Methods), sd.Methods().Len())
	for _, m := range hostServiceDesc.Methods {
		require.NotNil(t, sd.Methods().ByName(protoreflect.Name(m.MethodName)), m.MethodName)
	}
}

func TestWireMessage_Proto(t *testing.T) {
	in := &OpenResponse{
		Reply:  Reply{Error: &WireError{IDs: []string{host.CodeFileNotFound}, Msg: "gone"}},
		Handle: "h1",
		Format: &WireFormat{
			Name:   "ORDERS",
			Fields: []WireField{{Name: "REGION", Type: 1, Length: 4}, {Name: "QTY"}},
			Keys:   []string{"REGION"},
		},
	}
	b, err := proto.Marshal(toProto(in))
	require.NoError(t, err)

	m := newMessage(in.messageName())
	require.NoError(t, proto.Unmarshal(b, m))
	out := &OpenResponse{}
	out.unmarshalFrom(msg{m})
	require.Equal(t, in, out)

	recs := &RecordsResponse{Records: []*WireRecord{{Number: 3, Values: [][]byte{{1}, {2, 3}}}, {Number: 4}}}
	b, err = proto.Marshal(toProto(recs))
	require.NoError(t, err)
	m = newMessage(recs.messageName())
	require.NoError(t, proto.Unmarshal(b, m))
	gotRecs := &RecordsResponse{}
	gotRecs.unmarshalFrom(msg{m})
	require.Nil(t, gotRecs.Error)
	require.Equal(t, recs.Records, gotRecs.Records)

	empty := &RecordResponse{}
	empty.unmarshalFrom(msg{newMessage(empty.messageName())})
	require.Nil(t, empty.Record)
	require.NoError(t, empty.err())
}
