package fshare

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/internal/telemetry"
	"github.com/marmos91/fshare/pkg/metrics"
)

// Connection serves one accepted client from its first frame to teardown.
type Connection struct {
	server *Adapter
	conn   net.Conn
	remote string

	session *Session
	lc      *logger.LogContext

	// replyStatus is the status of the error sent while handling the
	// current message, StatusOK if none was sent.
	replyStatus wire.Status
}

func newConnection(server *Adapter, conn net.Conn, sessionID uint64) *Connection {
	remote := conn.RemoteAddr().String()
	return &Connection{
		server:  server,
		conn:    conn,
		remote:  remote,
		session: newSession(sessionID, time.Now()),
		lc:      logger.NewLogContext(sessionID, remote),
	}
}

// Session returns the connection's protocol state. Only safe to inspect once
// Serve has returned.
func (c *Connection) Session() *Session {
	return c.session
}

// Serve reads and handles frames until the peer disconnects, the session
// closes itself, the idle timeout elapses or ctx is cancelled.
//
// Cancelling ctx interrupts a blocked read; a message being handled is
// finished first. The adapter cancels ctx only when it force-closes
// sessions, so a graceful shutdown leaves running sessions alone. The
// connection is closed before Serve returns.
func (c *Connection) Serve(ctx context.Context) {
	ctx, span := telemetry.StartSessionSpan(ctx, c.session.ID, c.remote)
	defer span.End()

	ctx = logger.WithContext(ctx, c.lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx)))
	defer c.teardown(ctx)

	logger.InfoCtx(ctx, "Session started")

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if err := c.armReadDeadline(); err != nil {
			logger.WarnCtx(ctx, "Failed to set read deadline", logger.Err(err))
		}
		// Checked after arming so a concurrent cancel always wins.
		if ctx.Err() != nil {
			logger.DebugCtx(ctx, "Session closed due to server shutdown")
			return
		}

		frame, err := wire.ReadFrame(c.conn, c.server.config.MaxFrameSize)
		if err != nil {
			c.handleReadError(ctx, frame, err)
			return
		}

		if !c.handleFrame(ctx, frame) {
			return
		}
	}
}

// armReadDeadline bounds the wait for the next frame. It is armed after a
// message has been handled, so a slow handler can leave the session past its
// idle limit even though the read succeeds; handleFrame catches that case.
func (c *Connection) armReadDeadline() error {
	if c.server.config.IdleTimeout <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(c.server.config.IdleTimeout))
}

// handleReadError classifies a failed frame read. Framing violations are
// reported to the peer; transport failures end the session silently.
func (c *Connection) handleReadError(ctx context.Context, frame *wire.Frame, err error) {
	var netErr net.Error

	switch {
	case errors.Is(err, io.EOF):
		logger.DebugCtx(ctx, "Session closed by client")
	case errors.Is(err, io.ErrUnexpectedEOF):
		logger.DebugCtx(ctx, "Session closed mid-frame", logger.Err(err))
	case errors.Is(err, net.ErrClosed):
		logger.DebugCtx(ctx, "Session connection closed", logger.Err(err))
	case errors.As(err, &netErr) && netErr.Timeout():
		if ctx.Err() != nil {
			logger.DebugCtx(ctx, "Session closed due to server shutdown")
			return
		}
		logger.InfoCtx(ctx, "Session idle timeout", "timeout", c.server.config.IdleTimeout)
	case errors.Is(err, wire.ErrMalformedHeader):
		c.rejectFrame(ctx, "bad_magic", "Invalid message header", err)
	case errors.Is(err, wire.ErrUnsupportedVersion):
		c.rejectFrame(ctx, "bad_version", "Unsupported protocol version", err, logger.MsgType(frame.Type()))
	case errors.Is(err, wire.ErrFrameTooLarge):
		c.rejectFrame(ctx, "too_large", "Message too large", err,
			logger.MsgType(frame.Type()), logger.PayloadLen(frame.Header.Length))
	default:
		logger.DebugCtx(ctx, "Error reading frame", logger.Err(err))
	}
}

func (c *Connection) rejectFrame(ctx context.Context, reason, msg string, err error, attrs ...any) {
	logger.WarnCtx(ctx, "Rejected frame", append(attrs, logger.Err(err))...)
	if m := c.server.metrics; m != nil {
		m.RecordFrameError(reason)
	}
	if werr := c.sendError(wire.StatusInvalidRequest, msg); werr != nil {
		logger.DebugCtx(ctx, "Failed to report frame error", logger.Err(werr))
	}
}

// handleFrame runs one message through the state machine and reports
// whether the session continues.
func (c *Connection) handleFrame(ctx context.Context, frame *wire.Frame) bool {
	now := time.Now()
	if c.session.expired(now, c.server.config.IdleTimeout) {
		logger.InfoCtx(ctx, "Session timed out",
			"idle", now.Sub(c.session.LastActivity), "timeout", c.server.config.IdleTimeout)
		return false
	}
	c.session.touch(now)

	msgType := frame.Type()
	ctx, span := telemetry.StartMessageSpan(ctx, msgType.String(), c.session.ID,
		telemetry.MsgCode(uint8(msgType)),
		telemetry.PayloadLen(len(frame.Payload)),
		telemetry.State(c.session.State.String()))
	defer span.End()

	lc := logger.FromContext(ctx).WithMessage(msgType.String())
	ctx = logger.WithContext(ctx, lc)

	logger.DebugCtx(ctx, "Handling message", logger.PayloadLen(frame.Header.Length))

	c.replyStatus = wire.StatusOK
	keep, err := c.dispatch(ctx, msgType, frame.Payload)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.DebugCtx(ctx, "Failed to send reply", logger.Err(err))
		keep = false
	}

	span.SetAttributes(telemetry.Status(c.replyStatus.String()))
	if m := c.server.metrics; m != nil {
		m.RecordMessage(msgType.String(), c.replyStatus.String(), time.Since(now))
	}
	logger.DebugCtx(ctx, "Message handled",
		logger.Status(c.replyStatus), logger.DurationMs(lc.DurationMs()))

	return keep
}

// teardown discards any open upload and closes the connection.
func (c *Connection) teardown(ctx context.Context) {
	if p := c.session.endUpload(); p != nil {
		p.upload.Abort()
		logger.WarnCtx(ctx, "Upload aborted on session close",
			logger.Filename(p.upload.Name()),
			logger.BytesWritten(p.upload.Written()),
			logger.DeclaredSize(p.declared))
		if m := c.server.metrics; m != nil {
			m.RecordUpload(metrics.UploadAborted)
		}
	}
	c.session.State = StateClosed

	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.DebugCtx(ctx, "Error closing connection", logger.Err(err))
	}
	logger.InfoCtx(ctx, "Session closed", logger.DurationMs(c.lc.DurationMs()))
}

// send writes one frame.
func (c *Connection) send(t wire.MessageType, payload []byte) error {
	return wire.WriteFrame(c.conn, t, payload)
}

// sendError writes an ERROR_RESPONSE and records its status for the
// current message.
func (c *Connection) sendError(status wire.Status, msg string) error {
	c.replyStatus = status
	return c.send(wire.MsgErrorResponse, wire.EncodeStatus(status, msg))
}

// sendStatusError reports se to the peer and logs its cause.
func (c *Connection) sendStatusError(ctx context.Context, se *StatusError) error {
	if se.Err != nil {
		logger.DebugCtx(ctx, "Request failed", logger.Status(se.Status), logger.Err(se.Err))
	}
	return c.sendError(se.Status, se.Msg)
}
