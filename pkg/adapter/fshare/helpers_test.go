package fshare

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/pkg/storage"
)

const testPassword = "s3cret"

var goodHash = security.LegacyHash(testPassword)

type testEnv struct {
	adapter *Adapter
	store   *storage.Manager
	fs      afero.Fs
}

func newTestEnv(t *testing.T, cfg Config, opts storage.Options) *testEnv {
	t.Helper()
	fsys := afero.NewMemMapFs()
	store, err := storage.New(fsys, opts)
	require.NoError(t, err)

	a, err := New(cfg, store, security.NewHashedCredential(testPassword), nil)
	require.NoError(t, err)
	return &testEnv{adapter: a, store: store, fs: fsys}
}

// pipeSession runs a Connection over net.Pipe and returns the client end and
// a channel closed once Serve has returned.
func (e *testEnv) pipeSession(t *testing.T, ctx context.Context) (net.Conn, *Connection, <-chan struct{}) {
	t.Helper()
	client, server := net.Pipe()
	c := newConnection(e.adapter, server, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Serve(ctx)
	}()
	t.Cleanup(func() {
		_ = client.Close()
		<-done
	})
	return client, c, done
}

func writeFrame(t *testing.T, conn net.Conn, typ wire.MessageType, payload []byte) {
	t.Helper()
	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, wire.WriteFrame(conn, typ, payload))
}

func readFrame(t *testing.T, conn net.Conn) *wire.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	f, err := wire.ReadFrame(conn, 0)
	require.NoError(t, err)
	return f
}

func readStatus(t *testing.T, conn net.Conn, want wire.MessageType) wire.StatusPayload {
	t.Helper()
	f := readFrame(t, conn)
	require.Equal(t, want, f.Type(), "unexpected reply type")
	st, err := wire.DecodeStatus(f.Payload)
	require.NoError(t, err)
	return st
}

// expectClosed asserts the server closed the connection without sending
// another frame.
func expectClosed(t *testing.T, conn net.Conn) {
	t.Helper()
	// Fails with io.ErrClosedPipe once the server end is gone; Read still
	// reports the closure below.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var b [1]byte
	_, err := conn.Read(b[:])
	require.Error(t, err)
	require.True(t, errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe),
		"expected closed connection, got %v", err)
}

// slowStore delays List to simulate a handler outlasting the idle timeout.
type slowStore struct {
	Store
	delay time.Duration
}

func (s slowStore) List() ([]wire.FileRecord, error) {
	time.Sleep(s.delay)
	return s.Store.List()
}

func login(t *testing.T, conn net.Conn) {
	t.Helper()
	writeFrame(t, conn, wire.MsgConnectRequest, wire.EncodeString(goodHash))
	f := readFrame(t, conn)
	require.Equal(t, wire.MsgConnectResponse, f.Type())
}

func uploadRequest(name string, size uint64) []byte {
	return wire.EncodeUploadRequest(wire.UploadRequest{Filename: name, Size: size})
}

func rawHeader(magic uint16, version, typ uint8, length uint32) []byte {
	b := make([]byte, wire.HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], magic)
	b[2] = version
	b[3] = typ
	binary.BigEndian.PutUint32(b[4:8], length)
	return b
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("session did not end")
	}
}
