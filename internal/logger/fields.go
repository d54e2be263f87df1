package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys. Use these consistently so logs can be queried by key.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeySessionID      = "session_id"
	KeyClient         = "client"
	KeyMsgType        = "msg_type"
	KeyPayloadLen     = "payload_len"
	KeyStatus         = "status"
	KeyAttempt        = "attempt"
	KeyActiveSessions = "active_sessions"
	KeyMaxSessions    = "max_sessions"
	KeyAddress        = "address"

	KeyFilename     = "filename"
	KeySize         = "size"
	KeyDeclaredSize = "declared_size"
	KeyBytesWritten = "bytes_written"
	KeyBytesSent    = "bytes_sent"
	KeyCount        = "count"
	KeyRoot         = "root"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

func SessionID(id uint64) slog.Attr { return slog.Uint64(KeySessionID, id) }

func Client(addr string) slog.Attr { return slog.String(KeyClient, addr) }

// MsgType logs a message type by its protocol name.
func MsgType(t fmt.Stringer) slog.Attr { return slog.String(KeyMsgType, t.String()) }

func PayloadLen(n uint32) slog.Attr { return slog.Uint64(KeyPayloadLen, uint64(n)) }

func Status(s fmt.Stringer) slog.Attr { return slog.String(KeyStatus, s.String()) }

func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

func ActiveSessions(n int) slog.Attr { return slog.Int(KeyActiveSessions, n) }

func MaxSessions(n int) slog.Attr { return slog.Int(KeyMaxSessions, n) }

func Address(addr string) slog.Attr { return slog.String(KeyAddress, addr) }

func Filename(name string) slog.Attr { return slog.String(KeyFilename, name) }

func Size(n uint64) slog.Attr { return slog.Uint64(KeySize, n) }

func DeclaredSize(n uint64) slog.Attr { return slog.Uint64(KeyDeclaredSize, n) }

func BytesWritten(n uint64) slog.Attr { return slog.Uint64(KeyBytesWritten, n) }

func BytesSent(n uint64) slog.Attr { return slog.Uint64(KeyBytesSent, n) }

func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }

func Root(path string) slog.Attr { return slog.String(KeyRoot, path) }

func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns an error attribute, or an empty attribute for a nil error so it
// is dropped by the handler.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
