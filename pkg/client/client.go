// Package client speaks the fshare wire protocol to a server.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/pkg/bufpool"
)

const (
	// DefaultChunkSize is the payload size of each UPLOAD_DATA frame.
	DefaultChunkSize = 4096

	// DefaultTimeout bounds each request/response exchange.
	DefaultTimeout = 30 * time.Second
)

// Client is a connection to an fshare server.
//
// Methods are safe for concurrent use but are serialized: the protocol has
// no request identifiers, so only one exchange may be in flight.
type Client struct {
	conn      net.Conn
	timeout   time.Duration
	chunkSize int
	maxFrame  uint32

	mu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each exchange. 0 disables deadlines.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithChunkSize sets the UPLOAD_DATA payload size.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return New(conn, opts...), nil
}

// New wraps an established connection.
func New(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn:      conn,
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
		maxFrame:  wire.DefaultMaxPayload * 16,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect authenticates with password.
func (c *Client) Connect(password string) error {
	return c.ConnectHash(security.LegacyHash(password))
}

// ConnectHash authenticates with a precomputed wire hash.
func (c *Client) ConnectHash(hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arm()

	f, err := c.roundTrip(wire.MsgConnectRequest, wire.EncodeString(hash))
	if err != nil {
		return err
	}
	if f.Type() != wire.MsgConnectResponse {
		return unexpected("connect", f.Type())
	}
	return nil
}

// List returns the files stored on the server.
func (c *Client) List() ([]wire.FileRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arm()

	return c.list()
}

func (c *Client) list() ([]wire.FileRecord, error) {
	f, err := c.roundTrip(wire.MsgListRequest, nil)
	if err != nil {
		return nil, err
	}
	if f.Type() != wire.MsgListResponse {
		return nil, unexpected("list", f.Type())
	}
	files, err := wire.DecodeListing(f.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return files, nil
}

// Upload stores size bytes read from r under name.
//
// The server does not acknowledge UPLOAD_COMPLETE, so Upload confirms the
// commit with a listing before returning.
func (c *Client) Upload(name string, r io.Reader, size uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arm()

	req := wire.EncodeUploadRequest(wire.UploadRequest{Filename: name, Size: size})
	f, err := c.roundTrip(wire.MsgUploadRequest, req)
	if err != nil {
		return err
	}
	if f.Type() != wire.MsgConnectResponse {
		return unexpected("upload", f.Type())
	}
	if st, err := wire.DecodeStatus(f.Payload); err != nil || st.Code != wire.StatusOK {
		return unexpected("upload", f.Type())
	}

	buf := bufpool.Get(c.chunkSize)
	defer bufpool.Put(buf)

	var sent uint64
	src := io.LimitReader(r, int64(size))
	for sent < size {
		c.arm()
		n, rerr := src.Read(buf)
		if n > 0 {
			if err := wire.WriteFrame(c.conn, wire.MsgUploadData, buf[:n]); err != nil {
				return err
			}
			sent += uint64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read upload source: %w", rerr)
		}
	}
	if sent != size {
		return fmt.Errorf("upload %s: source ended after %d of %d bytes", name, sent, size)
	}

	if err := wire.WriteFrame(c.conn, wire.MsgUploadComplete, nil); err != nil {
		return err
	}

	c.arm()
	files, err := c.list()
	if err != nil {
		return err
	}
	for _, fr := range files {
		if fr.Filename == name {
			return nil
		}
	}
	return fmt.Errorf("upload %s: file not listed after completion", name)
}

// Download streams name into w and returns the number of bytes received.
func (c *Client) Download(name string, w io.Writer) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arm()

	if err := wire.WriteFrame(c.conn, wire.MsgDownloadRequest, wire.EncodeString(name)); err != nil {
		return 0, err
	}

	var received uint64
	for {
		c.arm()
		f, err := c.readReply()
		if err != nil {
			return received, err
		}
		switch f.Type() {
		case wire.MsgDownloadData:
			if _, err := w.Write(f.Payload); err != nil {
				return received, fmt.Errorf("write %s: %w", name, err)
			}
			received += uint64(len(f.Payload))
		case wire.MsgDownloadComplete:
			return received, nil
		default:
			return received, unexpected("download", f.Type())
		}
	}
}

// Delete removes name from the server.
func (c *Client) Delete(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arm()

	f, err := c.roundTrip(wire.MsgDeleteRequest, wire.EncodeString(name))
	if err != nil {
		return err
	}
	if f.Type() != wire.MsgDeleteResponse {
		return unexpected("delete", f.Type())
	}
	return nil
}

// Close sends DISCONNECT and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arm()

	werr := wire.WriteFrame(c.conn, wire.MsgDisconnect, nil)
	cerr := c.conn.Close()
	if werr != nil && !errors.Is(werr, net.ErrClosed) {
		return errors.Join(werr, cerr)
	}
	return cerr
}

func (c *Client) arm() {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
}

func (c *Client) roundTrip(t wire.MessageType, payload []byte) (*wire.Frame, error) {
	if err := wire.WriteFrame(c.conn, t, payload); err != nil {
		return nil, err
	}
	return c.readReply()
}

// readReply reads one frame and converts ERROR_RESPONSE into *ServerError.
func (c *Client) readReply() (*wire.Frame, error) {
	f, err := wire.ReadFrame(c.conn, c.maxFrame)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("server closed the connection: %w", err)
		}
		return nil, err
	}
	if f.Type() == wire.MsgErrorResponse {
		st, err := wire.DecodeStatus(f.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode error response: %w", err)
		}
		return nil, &ServerError{Status: st.Code, Message: st.Message}
	}
	return f, nil
}
