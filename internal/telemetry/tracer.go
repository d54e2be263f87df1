package telemetry

import (
	"context"
	"net"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys attached to fshare spans.
const (
	AttrClientAddr = "client.address"
	AttrClientIP   = "client.ip"
	AttrClientPort = "client.port"

	AttrProtocol  = "protocol.name"
	AttrSessionID = "fshare.session_id"
	AttrMsgType   = "fshare.msg_type"
	AttrMsgCode   = "fshare.msg_code"
	AttrPayload   = "fshare.payload_len"
	AttrStatus    = "fshare.status"
	AttrStatusMsg = "fshare.status_msg"
	AttrState     = "fshare.state"

	AttrFilename     = "fs.filename"
	AttrSize         = "fs.size"
	AttrBytesRead    = "fs.bytes_read"
	AttrBytesWritten = "fs.bytes_written"
	AttrCount        = "fs.count"
)

// ProtocolName is the value reported under AttrProtocol.
const ProtocolName = "fshare"

// ClientAddr records the peer address. When the address splits into host and
// port the individual parts are recorded as well.
func ClientAddr(addr string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(AttrClientAddr, addr)}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return attrs
	}
	attrs = append(attrs, attribute.String(AttrClientIP, host))
	if p, err := strconv.Atoi(port); err == nil {
		attrs = append(attrs, attribute.Int(AttrClientPort, p))
	}
	return attrs
}

func SessionID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrSessionID, int64(id))
}

func MsgType(name string) attribute.KeyValue {
	return attribute.String(AttrMsgType, name)
}

func MsgCode(code uint8) attribute.KeyValue {
	return attribute.Int(AttrMsgCode, int(code))
}

func PayloadLen(n int) attribute.KeyValue {
	return attribute.Int(AttrPayload, n)
}

func Status(name string) attribute.KeyValue {
	return attribute.String(AttrStatus, name)
}

func StatusMsg(msg string) attribute.KeyValue {
	return attribute.String(AttrStatusMsg, msg)
}

func State(name string) attribute.KeyValue {
	return attribute.String(AttrState, name)
}

func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

func Size(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrSize, int64(n))
}

func BytesRead(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesRead, n)
}

func BytesWritten(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesWritten, n)
}

func Count(n int) attribute.KeyValue {
	return attribute.Int(AttrCount, n)
}

// StartSessionSpan starts the root span covering one client session.
func StartSessionSpan(ctx context.Context, sessionID uint64, remote string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrProtocol, ProtocolName),
		SessionID(sessionID),
	}
	attrs = append(attrs, ClientAddr(remote)...)
	return StartSpan(ctx, "fshare.session",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...))
}

// StartMessageSpan starts a child span for a single inbound message. The
// span name is "fshare.<msgType>".
func StartMessageSpan(ctx context.Context, msgType string, sessionID uint64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := make([]attribute.KeyValue, 0, len(attrs)+2)
	all = append(all, MsgType(msgType), SessionID(sessionID))
	all = append(all, attrs...)
	return StartSpan(ctx, "fshare."+msgType, trace.WithAttributes(all...))
}

// StartStorageSpan starts a span for a storage manager operation.
func StartStorageSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "storage."+operation, trace.WithAttributes(attrs...))
}
