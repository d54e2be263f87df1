package fshare

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/internal/protocol/security"
	"github.com/marmos91/fshare/internal/protocol/wire"
	"github.com/marmos91/fshare/pkg/storage"
)

func startServer(t *testing.T, cfg Config) (*testEnv, string) {
	t.Helper()
	cfg.BindAddress = "127.0.0.1"
	env := newTestEnv(t, cfg, storage.Options{AllowOverwrite: true})

	errCh := make(chan error, 1)
	go func() { errCh <- env.adapter.Serve(context.Background()) }()

	addr := env.adapter.GetListenerAddr()
	require.NotEmpty(t, addr)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, env.adapter.Stop(ctx))
		assert.NoError(t, <-errCh)
	})
	return env, addr
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewValidation(t *testing.T) {
	store, err := storage.New(afero.NewMemMapFs(), storage.Options{})
	require.NoError(t, err)
	cred := security.NewHashedCredential("x")

	_, err = New(Config{}, nil, cred, nil)
	assert.Error(t, err)

	_, err = New(Config{}, store, nil, nil)
	assert.Error(t, err)

	_, err = New(Config{Port: 70000}, store, cred, nil)
	assert.ErrorContains(t, err, "invalid port")

	_, err = New(Config{IdleTimeout: -time.Second}, store, cred, nil)
	assert.ErrorContains(t, err, "idle timeout")

	_, err = New(Config{MaxFrameSize: 100, DownloadChunkSize: 4096}, store, cred, nil)
	assert.ErrorContains(t, err, "chunk size")

	a, err := New(Config{MaxSessions: 4}, store, cred, nil)
	require.NoError(t, err)
	assert.Equal(t, ProtocolName, a.Protocol())
	assert.Equal(t, 4, a.MaxSessions())
	assert.Equal(t, uint32(wire.DefaultMaxPayload), a.config.MaxFrameSize)
	assert.Equal(t, DefaultDownloadChunkSize, a.config.DownloadChunkSize)
	assert.Equal(t, DefaultMaxAuthAttempts, a.config.MaxAuthAttempts)
}

func TestMapError(t *testing.T) {
	env := newTestEnv(t, Config{}, storage.Options{})

	assert.Nil(t, env.adapter.MapError(nil))

	tests := []struct {
		err  error
		code wire.Status
	}{
		{storage.ErrNotFound, wire.StatusFileNotFound},
		{storage.ErrNotRegular, wire.StatusFileNotFound},
		{storage.ErrExists, wire.StatusFileExists},
		{storage.ErrInvalidName, wire.StatusInvalidRequest},
		{errors.New("disk on fire"), wire.StatusError},
	}
	for _, tt := range tests {
		pe := env.adapter.MapError(tt.err)
		require.NotNil(t, pe)
		assert.Equal(t, uint32(tt.code), pe.Code(), tt.err.Error())
		assert.ErrorIs(t, pe, tt.err)
		assert.NotEmpty(t, pe.Message())
	}
}

func TestEndToEndTransfer(t *testing.T) {
	env, addr := startServer(t, Config{MaxSessions: 4})
	conn := dial(t, addr)

	login(t, conn)

	content := []byte("0123456789")
	writeFrame(t, conn, wire.MsgUploadRequest, uploadRequest("x.bin", 10))
	assert.Equal(t, wire.StatusOK, readStatus(t, conn, wire.MsgConnectResponse).Code)
	writeFrame(t, conn, wire.MsgUploadData, content)
	writeFrame(t, conn, wire.MsgUploadComplete, nil)

	writeFrame(t, conn, wire.MsgListRequest, nil)
	f := readFrame(t, conn)
	require.Equal(t, wire.MsgListResponse, f.Type())
	files, err := wire.DecodeListing(f.Payload)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "x.bin", files[0].Filename)
	assert.Equal(t, uint64(10), files[0].Size)

	writeFrame(t, conn, wire.MsgDownloadRequest, wire.EncodeString("x.bin"))
	var got []byte
	for {
		f := readFrame(t, conn)
		if f.Type() == wire.MsgDownloadComplete {
			break
		}
		require.Equal(t, wire.MsgDownloadData, f.Type())
		got = append(got, f.Payload...)
	}
	assert.Equal(t, content, got)

	onDisk, err := afero.ReadFile(env.fs, "/x.bin")
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)

	writeFrame(t, conn, wire.MsgDisconnect, nil)
	expectClosed(t, conn)
}

func TestConcurrentCapacity(t *testing.T) {
	env, addr := startServer(t, Config{MaxSessions: 2})

	c1 := dial(t, addr)
	c2 := dial(t, addr)
	login(t, c1)
	login(t, c2)
	assert.Equal(t, 2, env.adapter.ActiveSessions())

	c3 := dial(t, addr)
	require.NoError(t, c3.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := c3.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF, "over-capacity connection is closed without a frame")

	for _, c := range []net.Conn{c1, c2} {
		writeFrame(t, c, wire.MsgListRequest, nil)
		assert.Equal(t, wire.MsgListResponse, readFrame(t, c).Type())
	}

	// A freed slot admits the next client.
	writeFrame(t, c1, wire.MsgDisconnect, nil)
	expectClosed(t, c1)
	require.Eventually(t, func() bool { return env.adapter.ActiveSessions() == 1 },
		2*time.Second, 10*time.Millisecond)

	c4 := dial(t, addr)
	login(t, c4)
}

func TestParallelSessionsIsolated(t *testing.T) {
	_, addr := startServer(t, Config{MaxSessions: 8})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

			name := string(rune('a'+i)) + ".txt"
			steps := []struct {
				typ     wire.MessageType
				payload []byte
				reply   wire.MessageType
			}{
				{wire.MsgConnectRequest, wire.EncodeString(goodHash), wire.MsgConnectResponse},
				{wire.MsgUploadRequest, uploadRequest(name, 1), wire.MsgConnectResponse},
				{wire.MsgUploadData, []byte{byte(i)}, 0},
				{wire.MsgUploadComplete, nil, 0},
				{wire.MsgDeleteRequest, wire.EncodeString(name), wire.MsgDeleteResponse},
			}
			for _, s := range steps {
				if err := wire.WriteFrame(conn, s.typ, s.payload); err != nil {
					errs <- err
					return
				}
				if s.reply == 0 {
					continue
				}
				f, err := wire.ReadFrame(conn, 0)
				if err != nil {
					errs <- err
					return
				}
				if f.Type() != s.reply {
					errs <- errors.New(name + ": unexpected reply " + f.Type().String())
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func serveForShutdown(t *testing.T, shutdownTimeout time.Duration) (*testEnv, string, chan error) {
	t.Helper()
	env := newTestEnv(t, Config{BindAddress: "127.0.0.1", ShutdownTimeout: shutdownTimeout},
		storage.Options{AllowOverwrite: true})

	errCh := make(chan error, 1)
	go func() { errCh <- env.adapter.Serve(context.Background()) }()
	addr := env.adapter.GetListenerAddr()
	require.NotEmpty(t, addr)
	return env, addr, errCh
}

// startHalfUpload leaves conn in the middle of an 8-byte upload.
func startHalfUpload(t *testing.T, conn net.Conn) {
	t.Helper()
	login(t, conn)
	writeFrame(t, conn, wire.MsgUploadRequest, uploadRequest("half.bin", 8))
	readStatus(t, conn, wire.MsgConnectResponse)
	writeFrame(t, conn, wire.MsgUploadData, []byte("abcd"))
	writeFrame(t, conn, wire.MsgListRequest, nil)
	require.Equal(t, wire.MsgListResponse, readFrame(t, conn).Type())
}

func TestStopDrainsRunningUpload(t *testing.T) {
	env, addr, errCh := serveForShutdown(t, 5*time.Second)
	conn := dial(t, addr)
	startHalfUpload(t, conn)

	stopped := make(chan error, 1)
	go func() { stopped <- env.adapter.Stop(context.Background()) }()

	require.Eventually(t, func() bool {
		c, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			_ = c.Close()
		}
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "listener closes on Stop")

	select {
	case err := <-stopped:
		t.Fatalf("Stop returned while an upload was running: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	writeFrame(t, conn, wire.MsgUploadData, []byte("efgh"))
	writeFrame(t, conn, wire.MsgUploadComplete, nil)
	writeFrame(t, conn, wire.MsgListRequest, nil)
	listing, err := wire.DecodeListing(readFrame(t, conn).Payload)
	require.NoError(t, err)
	require.Len(t, listing, 1)
	assert.Equal(t, "half.bin", listing[0].Filename)
	assert.Equal(t, uint64(8), listing[0].Size)

	writeFrame(t, conn, wire.MsgDisconnect, nil)
	require.NoError(t, <-stopped)
	require.NoError(t, <-errCh)
	assert.Equal(t, 0, env.adapter.ActiveSessions())
}

func TestShutdownTimeoutAbortsUpload(t *testing.T) {
	env, addr, errCh := serveForShutdown(t, 200*time.Millisecond)
	conn := dial(t, addr)
	startHalfUpload(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, env.adapter.Stop(ctx))

	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "force-closed")
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond, "sessions get the full timeout")

	expectClosed(t, conn)
	assert.Equal(t, 0, env.adapter.ActiveSessions())

	files, err := env.store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}
