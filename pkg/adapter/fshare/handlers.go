package fshare

import (
	"context"
	"errors"
	"io"

	"github.com/marmos91/fshare/internal/logger"
	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/internal/telemetry"
	"github.com/marmos91/fshare/pkg/bufpool"
	"github.com/marmos91/fshare/pkg/metrics"
	"github.com/marmos91/fshare/pkg/storage"
)

// Reply texts understood by deployed clients.
const (
	msgWelcome         = "Authentication successful - Welcome to File Server"
	msgInvalidPassword = "Invalid password"
	msgTooManyAttempts = "Too many failed attempts - disconnecting"
	msgBadPassword     = "Invalid password format"
	msgNotAuth         = "Not authenticated - password required"
	msgUnknownType     = "Unknown message type"
	msgInvalidFilename = "Invalid filename"
	msgUnsafeFilename  = "Invalid filename - may contain path traversal or illegal characters"
	msgBadUpload       = "Invalid upload request"
	msgFileTooLarge    = "File too large - maximum 1GB allowed"
	msgCannotCreate    = "Cannot create file"
	msgNoUpload        = "No active upload"
	msgUploadOverflow  = "Upload exceeds declared size"
	msgWriteFailed     = "Failed to write file"
	msgSaveFailed      = "Failed to save file"
	msgListFailed      = "Failed to list files"
	msgReadFailed      = "Failed to read file"
	msgDeleteFailed    = "Failed to delete file"
	msgDeleted         = "File deleted"
)

// messageHandler handles one request type. It returns false when the session
// must close. A non-nil error means a reply could not be written.
type messageHandler func(c *Connection, ctx context.Context, payload []byte) (bool, error)

// requestHandlers holds every request that requires an authenticated
// session. CONNECT_REQUEST and DISCONNECT are handled before the table.
var requestHandlers = map[wire.MessageType]messageHandler{
	wire.MsgListRequest:     (*Connection).handleList,
	wire.MsgUploadRequest:   (*Connection).handleUploadRequest,
	wire.MsgUploadData:      (*Connection).handleUploadData,
	wire.MsgUploadComplete:  (*Connection).handleUploadComplete,
	wire.MsgDownloadRequest: (*Connection).handleDownload,
	wire.MsgDeleteRequest:   (*Connection).handleDelete,
}

func (c *Connection) dispatch(ctx context.Context, t wire.MessageType, payload []byte) (bool, error) {
	switch t {
	case wire.MsgConnectRequest:
		return c.handleConnect(ctx, payload)
	case wire.MsgDisconnect:
		logger.InfoCtx(ctx, "Client requested disconnect")
		return false, nil
	}

	handler, ok := requestHandlers[t]
	if !ok {
		logger.WarnCtx(ctx, "Unknown message type", logger.MsgType(t))
		return true, c.sendError(wire.StatusInvalidRequest, msgUnknownType)
	}

	if !c.session.Authenticated() {
		logger.WarnCtx(ctx, "Request before authentication")
		return false, c.sendError(wire.StatusAccessDenied, msgNotAuth)
	}

	return handler(c, ctx, payload)
}

func (c *Connection) handleConnect(ctx context.Context, payload []byte) (bool, error) {
	candidate, _, err := wire.DecodeString(payload)
	if err != nil {
		logger.DebugCtx(ctx, "Malformed connect request", logger.Err(err))
		return true, c.sendError(wire.StatusInvalidRequest, msgBadPassword)
	}

	if c.server.cred.Matches(candidate) {
		c.session.authenticate()
		logger.InfoCtx(ctx, "Authentication successful")
		return true, c.send(wire.MsgConnectResponse, wire.EncodeString(msgWelcome))
	}

	limit := c.server.config.MaxAuthAttempts
	lockout := c.session.recordAuthFailure(limit)
	if m := c.server.metrics; m != nil {
		m.RecordAuthFailure(lockout)
	}
	logger.WarnCtx(ctx, "Authentication failed", logger.Attempt(c.session.FailedAuthAttempts))

	if lockout {
		return false, c.sendError(wire.StatusAccessDenied, msgTooManyAttempts)
	}
	return true, c.sendError(wire.StatusAccessDenied, msgInvalidPassword)
}

func (c *Connection) handleList(ctx context.Context, _ []byte) (bool, error) {
	files, err := c.server.store.List()
	if err != nil {
		logger.ErrorCtx(ctx, "Listing failed", logger.Err(err))
		return true, c.sendError(wire.StatusError, msgListFailed)
	}

	telemetry.SetAttributes(ctx, telemetry.Count(len(files)))
	logger.DebugCtx(ctx, "Listing files", logger.Count(len(files)))
	return true, c.send(wire.MsgListResponse, wire.EncodeListing(files))
}

// decodeFilename reads the leading filename of payload and checks it.
// On failure the error reply has already been sent and ok is false.
func (c *Connection) decodeFilename(ctx context.Context, payload []byte, unsafeMsg string) (name string, n int, ok bool, err error) {
	name, n, derr := wire.DecodeString(payload)
	if derr != nil {
		logger.DebugCtx(ctx, "Malformed filename", logger.Err(derr))
		return "", 0, false, c.sendError(wire.StatusInvalidRequest, msgInvalidFilename)
	}
	if !security.IsSafeFilename(name) {
		logger.WarnCtx(ctx, "Rejected unsafe filename", logger.Filename(name))
		return "", 0, false, c.sendError(wire.StatusInvalidRequest, unsafeMsg)
	}
	telemetry.SetAttributes(ctx, telemetry.Filename(name))
	return name, n, true, nil
}

func (c *Connection) handleUploadRequest(ctx context.Context, payload []byte) (bool, error) {
	if c.session.pending != nil {
		c.abortUpload(ctx, metrics.UploadAborted, "Upload replaced by new request")
	}

	name, n, ok, err := c.decodeFilename(ctx, payload, msgUnsafeFilename)
	if !ok {
		return true, err
	}

	size, derr := wire.DecodeUint64(payload[n:])
	if derr != nil {
		logger.DebugCtx(ctx, "Malformed upload request", logger.Err(derr))
		return true, c.sendError(wire.StatusInvalidRequest, msgBadUpload)
	}
	if !security.IsAcceptableSize(size) {
		logger.WarnCtx(ctx, "Rejected upload size", logger.Filename(name), logger.DeclaredSize(size))
		return true, c.sendError(wire.StatusInvalidRequest, msgFileTooLarge)
	}
	telemetry.SetAttributes(ctx, telemetry.Size(size))

	upload, err := c.server.store.OpenForWriting(name)
	if err != nil {
		se := mapStorageError(err, msgCannotCreate)
		if se.Status == wire.StatusFileNotFound || se.Status == wire.StatusInvalidRequest {
			se = &StatusError{Status: wire.StatusError, Msg: msgCannotCreate, Err: err}
		}
		logger.WarnCtx(ctx, "Cannot open upload", logger.Filename(name), logger.Err(err))
		return true, c.sendStatusError(ctx, se)
	}

	c.session.beginUpload(upload, size)
	logger.InfoCtx(ctx, "Upload started", logger.Filename(name), logger.DeclaredSize(size))

	// Acceptance is acknowledged with a CONNECT_RESPONSE frame.
	return true, c.send(wire.MsgConnectResponse, wire.EncodeStatus(wire.StatusOK, ""))
}

func (c *Connection) handleUploadData(ctx context.Context, payload []byte) (bool, error) {
	p := c.session.pending
	if p == nil {
		return true, c.sendError(wire.StatusInvalidRequest, msgNoUpload)
	}

	if p.upload.Written()+uint64(len(payload)) > p.declared {
		logger.WarnCtx(ctx, "Upload exceeds declared size",
			logger.Filename(p.upload.Name()),
			logger.DeclaredSize(p.declared),
			logger.BytesWritten(p.upload.Written()+uint64(len(payload))))
		c.abortUpload(ctx, metrics.UploadOverflow, "")
		return true, c.sendError(wire.StatusInvalidRequest, msgUploadOverflow)
	}

	n, err := p.upload.Write(payload)
	if m := c.server.metrics; m != nil && n > 0 {
		m.RecordBytesTransferred(metrics.DirectionUpload, uint64(n))
	}
	if err != nil {
		logger.ErrorCtx(ctx, "Upload write failed", logger.Filename(p.upload.Name()), logger.Err(err))
		c.abortUpload(ctx, metrics.UploadFailed, "")
		return true, c.sendError(wire.StatusError, msgWriteFailed)
	}
	return true, nil
}

func (c *Connection) handleUploadComplete(ctx context.Context, _ []byte) (bool, error) {
	p := c.session.endUpload()
	if p == nil {
		return true, nil
	}

	written := p.upload.Written()
	if written < p.declared {
		logger.WarnCtx(ctx, "Upload shorter than declared size",
			logger.Filename(p.upload.Name()),
			logger.DeclaredSize(p.declared),
			logger.BytesWritten(written))
	}

	if err := p.upload.Commit(); err != nil {
		if m := c.server.metrics; m != nil {
			m.RecordUpload(metrics.UploadFailed)
		}
		logger.ErrorCtx(ctx, "Upload commit failed", logger.Filename(p.upload.Name()), logger.Err(err))
		return true, c.sendStatusError(ctx, mapStorageError(err, msgSaveFailed))
	}

	if m := c.server.metrics; m != nil {
		m.RecordUpload(metrics.UploadCommitted)
	}
	telemetry.SetAttributes(ctx, telemetry.Filename(p.upload.Name()), telemetry.BytesWritten(int64(written)))
	logger.InfoCtx(ctx, "Upload complete",
		logger.Filename(p.upload.Name()),
		logger.BytesWritten(written),
		logger.DurationMs(logger.Duration(p.started)))
	return true, nil
}

// abortUpload discards the active upload and returns the session to
// Authenticated.
func (c *Connection) abortUpload(ctx context.Context, outcome, reason string) {
	p := c.session.endUpload()
	if p == nil {
		return
	}
	p.upload.Abort()
	if m := c.server.metrics; m != nil {
		m.RecordUpload(outcome)
	}
	if reason != "" {
		logger.WarnCtx(ctx, reason, logger.Filename(p.upload.Name()), logger.BytesWritten(p.upload.Written()))
	}
}

func (c *Connection) handleDownload(ctx context.Context, payload []byte) (bool, error) {
	name, _, ok, err := c.decodeFilename(ctx, payload, msgInvalidFilename)
	if !ok {
		return true, err
	}

	d, err := c.server.store.OpenForReading(name)
	if err != nil {
		logger.DebugCtx(ctx, "Download not available", logger.Filename(name), logger.Err(err))
		return true, c.sendStatusError(ctx, mapStorageError(err, "File not found"))
	}
	defer func() { _ = d.Close() }()

	logger.InfoCtx(ctx, "Download started", logger.Filename(name), logger.Size(uint64(d.Size())))

	chunk := c.server.config.DownloadChunkSize
	buf := bufpool.Get(chunk)
	defer bufpool.Put(buf)

	var sent uint64
	for {
		n, rerr := io.ReadFull(d, buf[:chunk])
		if n > 0 {
			if err := c.send(wire.MsgDownloadData, buf[:n]); err != nil {
				return false, err
			}
			sent += uint64(n)
		}
		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		logger.ErrorCtx(ctx, "Download read failed", logger.Filename(name), logger.BytesSent(sent), logger.Err(rerr))
		return true, c.sendError(wire.StatusError, msgReadFailed)
	}

	if m := c.server.metrics; m != nil {
		m.RecordBytesTransferred(metrics.DirectionDownload, sent)
	}
	telemetry.SetAttributes(ctx, telemetry.BytesRead(int64(sent)))
	logger.InfoCtx(ctx, "Download complete", logger.Filename(name), logger.BytesSent(sent))

	return true, c.send(wire.MsgDownloadComplete, wire.EncodeStatus(wire.StatusOK, ""))
}

func (c *Connection) handleDelete(ctx context.Context, payload []byte) (bool, error) {
	name, _, ok, err := c.decodeFilename(ctx, payload, msgInvalidFilename)
	if !ok {
		return true, err
	}

	if err := c.server.store.Delete(name); err != nil {
		status := wire.StatusError
		if errors.Is(err, storage.ErrNotFound) {
			status = wire.StatusFileNotFound
		}
		logger.WarnCtx(ctx, "Delete failed", logger.Filename(name), logger.Err(err))
		return true, c.sendError(status, msgDeleteFailed)
	}

	logger.InfoCtx(ctx, "File deleted", logger.Filename(name))
	return true, c.send(wire.MsgDeleteResponse, wire.EncodeStatus(wire.StatusOK, msgDeleted))
}
